package cache

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

// Cache is a thin TTL cache over redis, used to shield the odds and
// recommendation upstreams from repeated identical reads.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

func New(addr, pass string, db int, ttlSeconds int) *Cache {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: pass,
		DB:       db,
	})

	return &Cache{
		client: rdb,
		ttl:    time.Duration(ttlSeconds) * time.Second,
	}
}

func (c *Cache) Get(ctx context.Context, key string) (string, error) {
	return c.client.Get(ctx, key).Result()
}

func (c *Cache) Set(ctx context.Context, key string, value string) error {
	return c.client.SetEX(ctx, key, value, c.ttl).Err()
}

func (c *Cache) Close() error {
	return c.client.Close()
}
