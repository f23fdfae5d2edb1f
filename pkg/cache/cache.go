// Package cache stores materialized dependent trees between queries.
//
// The [Cache] interface is a byte-oriented key/value store with optional
// expiry. Four backends are provided:
//
//   - [NullCache] stores nothing (--no-cache)
//   - [FileCache] keeps entries as files under the user cache directory,
//     which suits one-shot CLI invocations
//   - [LRUCache] holds a bounded number of entries in process memory for
//     the HTTP server
//   - [RedisCache] shares entries between server replicas
//
// Keys come from a [Keyer]. Tree keys include the content hash of the
// snapshot they were computed from, so a rebuilt index never serves trees
// from an older one.
package cache

import (
	"context"
	"time"
)

// DefaultTTL is how long tree entries live unless configured otherwise.
const DefaultTTL = 24 * time.Hour

// Cache is a key/value store for serialized query results.
type Cache interface {
	// Get returns the stored bytes and whether the key was present and
	// unexpired.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Clearer is implemented by caches that can drop every entry at once.
type Clearer interface {
	Clear(ctx context.Context) error
}
