// Package cache provides the metadata cache used by repository clients.
//
// # Overview
//
// POM files and maven-metadata.xml documents are small, requested often and
// (for released versions) immutable. Repository clients keep them in a
// [Cache] so repeated resolutions don't hit the network. Artifact bytes are
// not stored here; they live in the local Maven-layout store.
//
// # Backends
//
//   - [FileCache]: hash-sharded JSON entries under a directory (CLI default)
//   - [RedisCache]: shared cache for service mode
//   - [NullCache]: disables caching
//
// Wrap any backend with [WithHooks] to report hits, misses and writes to
// the registered observability hooks.
//
// # Keys
//
// A [Keyer] builds keys. [DefaultKeyer] namespaces keys by repository URL;
// [ScopedKeyer] adds a prefix so authenticated repositories don't share
// entries with anonymous ones.
package cache

import (
	"context"
	"strings"
	"time"

	"github.com/matzehuels/mvnfetch/pkg/observability"
)

// Cache stores opaque byte values with an optional TTL.
//
// Implementations must be safe for concurrent use. Get reports a miss with
// (nil, false, nil); errors are reserved for backend failures.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// hooked reports cache events to observability hooks.
type hooked struct {
	Cache
}

// WithHooks wraps c so every Get and Set fires the registered
// [observability.CacheHooks]. The key type is the key prefix before the
// first ':'.
func WithHooks(c Cache) Cache {
	if c == nil {
		return nil
	}
	if _, ok := c.(*hooked); ok {
		return c
	}
	return &hooked{Cache: c}
}

func (h *hooked) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, ok, err := h.Cache.Get(ctx, key)
	if err == nil {
		if ok {
			observability.Cache().OnCacheHit(ctx, keyType(key))
		} else {
			observability.Cache().OnCacheMiss(ctx, keyType(key))
		}
	}
	return data, ok, err
}

func (h *hooked) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if err := h.Cache.Set(ctx, key, data, ttl); err != nil {
		return err
	}
	observability.Cache().OnCacheSet(ctx, keyType(key), len(data))
	return nil
}

func keyType(key string) string {
	if i := strings.IndexByte(key, ':'); i > 0 {
		return key[:i]
	}
	return "unknown"
}
