package cache

import (
	"context"

	"github.com/matzehuels/mvnfetch/pkg/errors"
)

// Backend names accepted by [Open].
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendNone  = "none"
)

// Options selects and configures a backend.
type Options struct {
	Backend  string // "file" (default), "redis" or "none"
	Dir      string // FileCache directory
	RedisURL string // RedisCache server URL
	Prefix   string // RedisCache key prefix
}

// Open creates the configured backend wrapped with [WithHooks].
func Open(ctx context.Context, opts Options) (Cache, error) {
	switch opts.Backend {
	case "", BackendFile:
		if opts.Dir == "" {
			return nil, errors.New(errors.ErrCodeInvalidConfig, "file cache requires a directory")
		}
		c, err := NewFileCache(opts.Dir)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "open cache %s", opts.Dir)
		}
		return WithHooks(c), nil
	case BackendRedis:
		if opts.RedisURL == "" {
			return nil, errors.New(errors.ErrCodeInvalidConfig, "redis cache requires a url")
		}
		prefix := opts.Prefix
		if prefix == "" {
			prefix = "mvnfetch:"
		}
		c, err := NewRedisCache(ctx, opts.RedisURL, prefix)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "connect redis")
		}
		return WithHooks(c), nil
	case BackendNone:
		return NewNullCache(), nil
	default:
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown cache backend %q", opts.Backend)
	}
}
