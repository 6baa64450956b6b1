package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"docval/pkg/platform/sentinel"
)

const redisKeyPrefix = "docval:extraction:"

// RedisCache shares extraction payloads between instances. Expiry is left to
// Redis. Connection failures wrap sentinel.ErrUnavailable.
type RedisCache struct {
	client   redis.UniversalClient
	cacheTTL time.Duration
}

func NewRedisCache(client redis.UniversalClient, cacheTTL time.Duration) *RedisCache {
	return &RedisCache{client: client, cacheTTL: cacheTTL}
}

func (c *RedisCache) Set(ctx context.Context, key string, payload []byte) error {
	if err := c.client.Set(ctx, redisKeyPrefix+key, payload, c.cacheTTL).Err(); err != nil {
		return fmt.Errorf("save extraction cache: %w: %w", sentinel.ErrUnavailable, err)
	}
	return nil
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	payload, err := c.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find extraction cache: %w: %w", sentinel.ErrUnavailable, err)
	}
	return payload, nil
}
