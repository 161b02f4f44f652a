package session

import (
	"context"
	"time"

	"github.com/matzehuels/garmushka/pkg/observability"
)

// instrumented reports store operations to the session hooks.
type instrumented struct {
	Store
	backend string
}

// Instrument wraps s so every Get, Set and Delete is reported to
// observability.Session() under the given backend name.
func Instrument(s Store, backend string) Store {
	return &instrumented{Store: s, backend: backend}
}

func (s *instrumented) Get(ctx context.Context, id string) (*Session, error) {
	start := time.Now()
	sess, err := s.Store.Get(ctx, id)
	observability.Session().OnLoad(ctx, s.backend, id, time.Since(start), err)
	return sess, err
}

func (s *instrumented) Set(ctx context.Context, sess *Session) error {
	start := time.Now()
	err := s.Store.Set(ctx, sess)
	size := 0
	if data, encErr := encode(sess); encErr == nil {
		size = len(data)
	}
	observability.Session().OnSave(ctx, s.backend, sess.ID, size, time.Since(start), err)
	return err
}

func (s *instrumented) Delete(ctx context.Context, id string) error {
	err := s.Store.Delete(ctx, id)
	observability.Session().OnDelete(ctx, s.backend, id, err)
	return err
}
