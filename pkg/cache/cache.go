// Package cache stores fetched repository responses between runs.
//
// Remote repositories answer the same metadata and document requests over and
// over; a [Cache] keeps the raw bytes keyed by request so later runs (and
// other processes sharing a backend) skip the network. Four backends exist:
//
//   - [FileCache]: one file per entry under a local directory (CLI default)
//   - [RedisCache]: a shared Redis instance (servers)
//   - [MongoCache]: a MongoDB collection with a TTL index (servers)
//   - [NullCache]: stores nothing (--no-cache)
//
// [Open] builds the backend named in the configuration.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache is a byte store with per-entry expiry. Implementations are safe for
// concurrent use.
type Cache interface {
	// Get returns the entry for key. A missing or expired entry is a miss
	// (nil, false, nil), not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A ttl of 0 keeps the entry until it is deleted.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases connections held by the backend.
	Close() error
}

// Clearer is implemented by backends that can drop every entry at once.
type Clearer interface {
	Clear(ctx context.Context) error
}

// HTTPKey is the key under which the body fetched from url is stored.
func HTTPKey(url string) string {
	return "http:" + url
}

// Hash returns the hex SHA-256 of data. File cache paths and remote scratch
// directories are derived from it.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
