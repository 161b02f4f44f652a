// Package session persists measurement sessions so they can be reopened,
// browsed and exported later.
//
// A [Session] wraps an [export.Payload] with an id and timestamps. Stores
// implement [Store] over several backends:
//   - memory: in-process map, for tests and `garmushka serve` without persistence
//   - file: one JSON file per session, the CLI default
//   - sqlite: a single database file via the pure-Go ncruces driver
//   - redis: shared storage for several server instances, with native TTL
//   - mongo: document storage with a TTL index on expires_at
//
// Use [Open] to build the store named in the configuration:
//
//	store, err := session.Open(ctx, cfg.Session)
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	sess := session.New(export.FromEngine(eng, "plan.png"), cfg.Session.TTL.Duration)
//	if err := store.Set(ctx, sess); err != nil {
//	    return err
//	}
//
// Missing and expired sessions are both reported as SESSION_NOT_FOUND;
// check with [IsNotFound].
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/garmushka/pkg/errors"
	"github.com/matzehuels/garmushka/pkg/export"
)

// DefaultTTL is how long an untouched session is kept.
const DefaultTTL = 30 * 24 * time.Hour

// Session is one saved measurement session.
type Session struct {
	ID        string         `json:"id"`
	Payload   export.Payload `json:"payload"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	// ExpiresAt is zero for sessions that never expire.
	ExpiresAt time.Time `json:"expires_at"`
}

// New creates a session holding p. A non-positive ttl never expires.
func New(p export.Payload, ttl time.Duration) *Session {
	now := time.Now().UTC()
	s := &Session{ID: GenerateID(), Payload: p, CreatedAt: now, UpdatedAt: now}
	if ttl > 0 {
		s.ExpiresAt = now.Add(ttl)
	}
	return s
}

// GenerateID returns a fresh session id.
func GenerateID() string { return uuid.NewString() }

// SourceLabel returns the label of the measured image.
func (s *Session) SourceLabel() string { return s.Payload.SourceLabel }

// IsExpired reports whether the session is past its expiry.
func (s *Session) IsExpired() bool {
	return !s.ExpiresAt.IsZero() && time.Now().After(s.ExpiresAt)
}

// Update replaces the payload and extends the expiry by ttl.
func (s *Session) Update(p export.Payload, ttl time.Duration) {
	s.Payload = p
	s.UpdatedAt = time.Now().UTC()
	if ttl > 0 {
		s.ExpiresAt = s.UpdatedAt.Add(ttl)
	}
}

// Store is the interface for session storage backends.
type Store interface {
	// Get retrieves a session. Missing or expired sessions return an
	// error for which IsNotFound is true.
	Get(ctx context.Context, id string) (*Session, error)

	// Set creates or replaces a session.
	Set(ctx context.Context, sess *Session) error

	// Delete removes a session. Deleting a missing session is not an error.
	Delete(ctx context.Context, id string) error

	// List returns the live sessions, most recently updated first.
	List(ctx context.Context) ([]*Session, error)

	// Cleanup removes expired sessions. Backends with native expiry may
	// treat it as a no-op.
	Cleanup(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}

// IsNotFound reports whether err means the session does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, errors.ErrCodeSessionNotFound)
}

func notFound(id string) error {
	return errors.New(errors.ErrCodeSessionNotFound, "session %s not found", id)
}

func encode(s *Session) ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal session: %w", err)
	}
	return data, nil
}

func decode(data []byte) (*Session, error) {
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "parse session")
	}
	return &s, nil
}

// clone deep-copies s so stores never share slices with callers.
func clone(s *Session) (*Session, error) {
	data, err := encode(s)
	if err != nil {
		return nil, err
	}
	return decode(data)
}

// sortByUpdated orders sessions most recently updated first.
func sortByUpdated(list []*Session) {
	slices.SortFunc(list, func(a, b *Session) int {
		if c := b.UpdatedAt.Compare(a.UpdatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}
