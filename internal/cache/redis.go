package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jrsteele09/store-insights/internal/errors"
	"github.com/rs/zerolog/log"
)

const (
	keyPrefix     = "insights:"
	versionPrefix = "insights:ver:"
	// DefaultRedisTTL bounds orphaned entries from older versions when no TTL is configured.
	DefaultRedisTTL = 5 * time.Minute
)

// Redis stores each entry under a key carrying the tenant's version. Invalidate bumps the
// version counter and entries from older versions expire on their own.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

var _ Cache = (*Redis)(nil)

func NewRedis(ctx context.Context, url string, ttl time.Duration) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Wrapf(err, "parse redis url")
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrapf(err, "ping redis %s", opts.Addr)
	}
	if ttl <= 0 {
		ttl = DefaultRedisTTL
	}
	log.Info().Str("addr", opts.Addr).Msg("Using redis analytics cache")
	return &Redis{client: client, ttl: ttl}, nil
}

func (r *Redis) Version(ctx context.Context, tenantID string) (int64, error) {
	version, err := r.client.Get(ctx, versionPrefix+tenantID).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, errors.Wrapf(err, "redis get version %s", tenantID)
	}
	return version, nil
}

func (r *Redis) Get(ctx context.Context, tenantID string, version int64, key string) ([]byte, error) {
	value, err := r.client.Get(ctx, entryKey(tenantID, version, key)).Bytes()
	if err == redis.Nil {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, errors.Wrapf(err, "redis get %s", key)
	}
	return value, nil
}

// Set writes under the given version. A write for a stale version lands on a key no reader
// asks for and expires with the TTL.
func (r *Redis) Set(ctx context.Context, tenantID string, version int64, key string, value []byte) error {
	if err := r.client.Set(ctx, entryKey(tenantID, version, key), value, r.ttl).Err(); err != nil {
		return errors.Wrapf(err, "redis set %s", key)
	}
	return nil
}

func (r *Redis) Invalidate(ctx context.Context, tenantID string) error {
	if err := r.client.Incr(ctx, versionPrefix+tenantID).Err(); err != nil {
		return errors.Wrapf(err, "redis incr version %s", tenantID)
	}
	return nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}

func entryKey(tenantID string, version int64, key string) string {
	return fmt.Sprintf("%s%s:%d:%s", keyPrefix, tenantID, version, key)
}
