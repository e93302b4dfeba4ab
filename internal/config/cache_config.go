package config

import "time"

type CacheConfig interface {
	GetRedisURL() string
	GetCacheTTL() time.Duration
}

type Cache struct {
	RedisURL string        `env:"REDIS_URL"`
	TTL      time.Duration `env:"CACHE_TTL" envDefault:"45s"`
}

var _ CacheConfig = Cache{}

// GetRedisURL returns the redis connection URL. Empty selects the in-process cache.
func (c Cache) GetRedisURL() string {
	return c.RedisURL
}

func (c Cache) GetCacheTTL() time.Duration {
	return c.TTL
}
