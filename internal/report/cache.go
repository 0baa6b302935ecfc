package report

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores rendered documents for idempotent retries.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, doc []byte, ttl time.Duration) error
}

// RedisCache keeps documents as plain Redis strings under prefix.
type RedisCache struct {
	client *redis.Client
	prefix string
}

// NewRedisCache builds a cache on client.
func NewRedisCache(client *redis.Client, prefix string) *RedisCache {
	if prefix == "" {
		prefix = "helpdesk:report"
	}
	return &RedisCache{client: client, prefix: prefix}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	doc, err := c.client.Get(ctx, c.prefix+":"+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return doc, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, doc []byte, ttl time.Duration) error {
	return c.client.Set(ctx, c.prefix+":"+key, doc, ttl).Err()
}
