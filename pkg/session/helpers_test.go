package session

import "github.com/matzehuels/garmushka/pkg/config"

func configSession(backend, dir string) config.Session {
	cfg := config.Default().Session
	cfg.Backend = backend
	cfg.Dir = dir
	return cfg
}
