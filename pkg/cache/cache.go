// Package cache keeps rendered export artifacts, keyed by a hash of the
// inputs that produced them, so exporting an unchanged session twice renders
// once.
//
// Backends:
//   - [MemoryCache]: bounded, process-local; used by `garmushka serve`
//   - [FileCache]: one file per entry under a directory; used by the CLI
//   - [NullCache]: stores nothing
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"
)

// DefaultTTL is how long a rendered artifact stays valid.
const DefaultTTL = 24 * time.Hour

// Cache stores opaque byte slices with an optional time to live.
type Cache interface {
	// Get returns the value and true on a hit. Expired entries are misses.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data. A ttl of zero or less never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Key derives a cache key from a namespace and the values that determine
// the artifact. Parts are JSON encoded before hashing, so they must be
// marshalable.
func Key(namespace string, parts ...any) string {
	data, _ := json.Marshal(parts)
	return namespace + ":" + Hash(data)
}

// Hash returns the hex SHA-256 of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func expired(at time.Time) bool {
	return !at.IsZero() && time.Now().After(at)
}

func expiry(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return time.Now().Add(ttl)
}
