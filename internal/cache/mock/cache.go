// Package mock provides an in-memory Cache for testing.
package mock

import (
	"context"
	"sync"
	"time"

	"github.com/dataforge-ai/dataforge/internal/cache"
)

// Cache satisfies cache.Cache with a map. TTLs are ignored. The Err* fields
// inject failures: when set, the corresponding method returns that error.
type Cache struct {
	mu      sync.Mutex
	entries map[string][]byte
	counts  map[string]int64

	ErrSet    error
	ErrGet    error
	ErrDelete error
	ErrIncr   error
}

func NewCache() *Cache {
	return &Cache{
		entries: make(map[string][]byte),
		counts:  make(map[string]int64),
	}
}

var _ cache.Cache = (*Cache)(nil)

func (c *Cache) Ping(ctx context.Context) error { return nil }

func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if c.ErrSet != nil {
		return c.ErrSet
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := make([]byte, len(value))
	copy(cp, value)
	c.entries[key] = cp
	return nil
}

func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if c.ErrGet != nil {
		return nil, false, c.ErrGet
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	cp := make([]byte, len(v))
	copy(cp, v)
	return cp, true, nil
}

func (c *Cache) Delete(ctx context.Context, key string) error {
	if c.ErrDelete != nil {
		return c.ErrDelete
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

func (c *Cache) IncrWithExpiry(ctx context.Context, key string, expiry time.Duration) (int64, error) {
	if c.ErrIncr != nil {
		return 0, c.ErrIncr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[key]++
	return c.counts[key], nil
}
