package cache

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultLRUSize bounds the number of trees an LRUCache keeps.
const DefaultLRUSize = 1024

// LRUCache keeps the most recently used entries in memory. It is safe for
// concurrent use.
type LRUCache struct {
	entries *lru.Cache[string, lruEntry]
	now     func() time.Time
}

type lruEntry struct {
	data      []byte
	expiresAt time.Time
}

// NewLRUCache creates an in-memory cache holding at most size entries.
// A size of zero or less means DefaultLRUSize.
func NewLRUCache(size int) (*LRUCache, error) {
	if size <= 0 {
		size = DefaultLRUSize
	}
	entries, err := lru.New[string, lruEntry](size)
	if err != nil {
		return nil, err
	}
	return &LRUCache{entries: entries, now: time.Now}, nil
}

// Get retrieves a value from the cache. Expired entries are evicted.
func (c *LRUCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	e, ok := c.entries.Get(key)
	if !ok {
		return nil, false, nil
	}
	if !e.expiresAt.IsZero() && c.now().After(e.expiresAt) {
		c.entries.Remove(key)
		return nil, false, nil
	}
	return e.data, true, nil
}

// Set stores a copy of data.
func (c *LRUCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	e := lruEntry{data: append([]byte(nil), data...)}
	if ttl > 0 {
		e.expiresAt = c.now().Add(ttl)
	}
	c.entries.Add(key, e)
	return nil
}

// Delete removes a value from the cache.
func (c *LRUCache) Delete(ctx context.Context, key string) error {
	c.entries.Remove(key)
	return nil
}

// Clear removes every entry.
func (c *LRUCache) Clear(ctx context.Context) error {
	c.entries.Purge()
	return nil
}

// Len returns the number of entries, including expired ones not yet evicted.
func (c *LRUCache) Len() int { return c.entries.Len() }

// Close drops every entry.
func (c *LRUCache) Close() error {
	c.entries.Purge()
	return nil
}

var (
	_ Cache   = (*LRUCache)(nil)
	_ Clearer = (*LRUCache)(nil)
)
