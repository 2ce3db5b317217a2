package cache

import (
	"context"
	"time"
)

// ScopedCache prefixes every key of an inner cache, so several repositories
// or tenants can share one backend without colliding.
//
//	central := cache.NewScoped(c, "central:")
//	central.Set(ctx, "junit:junit", data, ttl) // stored as "central:junit:junit"
type ScopedCache struct {
	inner  Cache
	prefix string
}

// NewScoped wraps inner with prefix. Scopes nest: the prefixes concatenate.
func NewScoped(inner Cache, prefix string) Cache {
	if s, ok := inner.(*ScopedCache); ok {
		return &ScopedCache{inner: s.inner, prefix: s.prefix + prefix}
	}
	return &ScopedCache{inner: inner, prefix: prefix}
}

func (s *ScopedCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return s.inner.Get(ctx, s.prefix+key)
}

func (s *ScopedCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return s.inner.Set(ctx, s.prefix+key, data, ttl)
}

func (s *ScopedCache) Delete(ctx context.Context, key string) error {
	return s.inner.Delete(ctx, s.prefix+key)
}

// Close closes the shared inner cache.
func (s *ScopedCache) Close() error { return s.inner.Close() }

var _ Cache = (*ScopedCache)(nil)
