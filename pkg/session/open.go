package session

import (
	"context"

	"github.com/matzehuels/garmushka/pkg/config"
	"github.com/matzehuels/garmushka/pkg/errors"
)

// Open builds the store selected by cfg.Backend. Networked backends retry
// transient failures with DefaultBackoff. Every store is instrumented.
func Open(ctx context.Context, cfg config.Session) (Store, error) {
	var (
		s   Store
		err error
	)
	switch cfg.Backend {
	case config.BackendMemory:
		s = NewMemoryStore()
	case config.BackendFile, "":
		s, err = NewFileStore(cfg.Dir)
	case config.BackendSQLite:
		s, err = NewSQLiteStore(ctx, cfg.SQLitePath)
	case config.BackendRedis:
		var rs *RedisStore
		rs, err = NewRedisStore(ctx, RedisConfig{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		if err == nil {
			s = WithRetry(rs, DefaultBackoff)
		}
	case config.BackendMongo:
		var ms *MongoStore
		ms, err = NewMongoStore(ctx, MongoConfig{URI: cfg.MongoURI, Database: cfg.MongoDatabase})
		if err == nil {
			s = WithRetry(ms, DefaultBackoff)
		}
	default:
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown session backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}
	backend := cfg.Backend
	if backend == "" {
		backend = config.BackendFile
	}
	return Instrument(s, backend), nil
}
