// Package cache wraps an optional Redis client used to memoize context that
// is expensive to assemble per chat turn (hospital info, model-server status).
// With no Redis address configured every operation is a no-op miss.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"melco-care-server/internal/config"
)

// Cache is a thin JSON layer over go-redis. A nil Cache is valid and disabled.
type Cache struct {
	client *redis.Client
}

// New connects to Redis, returning a disabled cache when no address is set.
func New(cfg config.RedisConfig) (*Cache, error) {
	if cfg.Addr == "" {
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}
	return &Cache{client: client}, nil
}

// GetJSON loads a cached value into v. Returns false on miss, disabled cache,
// or any Redis error.
func (c *Cache) GetJSON(ctx context.Context, key string, v interface{}) bool {
	if c == nil {
		return false
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(data, v) == nil
}

// SetJSON stores v under key with a TTL. Errors are ignored: the cache is
// advisory.
func (c *Cache) SetJSON(ctx context.Context, key string, v interface{}, ttl time.Duration) {
	if c == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	c.client.Set(ctx, key, data, ttl)
}

// Invalidate drops a key, e.g. after an admin updates hospital data.
func (c *Cache) Invalidate(ctx context.Context, key string) {
	if c == nil {
		return
	}
	c.client.Del(ctx, key)
}
