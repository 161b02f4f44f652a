package cache

import (
	"context"
	"slices"
	"sync"
	"time"
)

// DefaultMaxEntries bounds a MemoryCache created with a non-positive size.
const DefaultMaxEntries = 64

type memEntry struct {
	data      []byte
	expiresAt time.Time
}

// MemoryCache holds up to limit entries, evicting the oldest insert first.
type MemoryCache struct {
	mu      sync.Mutex
	limit   int
	entries map[string]memEntry
	order   []string
}

// NewMemoryCache creates a cache bounded to limit entries.
func NewMemoryCache(limit int) *MemoryCache {
	if limit <= 0 {
		limit = DefaultMaxEntries
	}
	return &MemoryCache{limit: limit, entries: make(map[string]memEntry)}
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	if expired(e.expiresAt) {
		c.remove(key)
		return nil, false, nil
	}
	return slices.Clone(e.data), true, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, data []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[key]; ok {
		c.remove(key)
	}
	for len(c.order) >= c.limit {
		c.remove(c.order[0])
	}
	c.entries[key] = memEntry{data: slices.Clone(data), expiresAt: expiry(ttl)}
	c.order = append(c.order, key)
	return nil
}

func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.remove(key)
	return nil
}

// Len reports the number of stored entries, expired ones included.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *MemoryCache) Close() error { return nil }

// remove drops key. Callers hold mu.
func (c *MemoryCache) remove(key string) {
	delete(c.entries, key)
	if i := slices.Index(c.order, key); i >= 0 {
		c.order = slices.Delete(c.order, i, i+1)
	}
}

var _ Cache = (*MemoryCache)(nil)
