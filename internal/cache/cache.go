// Package cache holds short-lived, tenant-scoped analytics results.
package cache

import (
	"context"
	"time"

	"github.com/jrsteele09/store-insights/internal/errors"
)

// ErrMiss is returned by Get when nothing is cached for the key.
var ErrMiss = errors.ErrNotFound

// Cache stores encoded values per tenant and version. Invalidate moves the tenant to a
// new version, so entries read or written under an older version are never served.
// Callers take the Version before loading the value they intend to Set.
type Cache interface {
	Version(ctx context.Context, tenantID string) (int64, error)
	Get(ctx context.Context, tenantID string, version int64, key string) ([]byte, error)
	Set(ctx context.Context, tenantID string, version int64, key string, value []byte) error
	Invalidate(ctx context.Context, tenantID string) error
	Close() error
}

// Options selects and configures the backing store.
type Options struct {
	RedisURL string
	TTL      time.Duration
}

// New returns a Redis cache when a URL is configured, otherwise an in-process one.
func New(ctx context.Context, opts Options) (Cache, error) {
	if opts.RedisURL == "" {
		return NewMemory(opts.TTL), nil
	}
	return NewRedis(ctx, opts.RedisURL, opts.TTL)
}
