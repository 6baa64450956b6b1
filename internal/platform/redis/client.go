// Package redis opens the optional Redis connection backing the extraction cache.
package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"docval/internal/platform/config"
)

// Client is a connected go-redis client. Close is promoted from it.
type Client struct {
	*redis.Client
}

// New dials REDIS_URL and verifies the connection. Without a URL there is
// nothing to connect to and it returns nil, nil; callers fall back to the
// in-process cache.
func New(ctx context.Context, cfg config.RedisConfig) (*Client, error) {
	if cfg.URL == "" {
		return nil, nil
	}
	opts, err := options(cfg)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &Client{Client: client}, nil
}

// options parses the URL then lets explicit pool and timeout settings win.
func options(cfg config.RedisConfig) (*redis.Options, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	overrideInt(&opts.PoolSize, cfg.PoolSize)
	overrideInt(&opts.MinIdleConns, cfg.MinIdleConns)
	if cfg.DialTimeout > 0 {
		opts.DialTimeout = cfg.DialTimeout
	}
	if cfg.ReadTimeout > 0 {
		opts.ReadTimeout = cfg.ReadTimeout
	}
	if cfg.WriteTimeout > 0 {
		opts.WriteTimeout = cfg.WriteTimeout
	}
	return opts, nil
}

func overrideInt(dst *int, v int) {
	if v > 0 {
		*dst = v
	}
}

// Health is the readiness probe for /ready.
func (c *Client) Health(ctx context.Context) error {
	return c.Ping(ctx).Err()
}
