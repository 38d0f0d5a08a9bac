// Package redis shares the gateway bearer token between API replicas.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultKey is the key under which the bearer token is stored.
const DefaultKey = "sms:gateway:token"

// Cache implements ports.TokenCache on top of Redis, using the key TTL as expiry.
type Cache struct {
	rdb *redis.Client
	key string
}

// New returns a Cache storing the token under key (DefaultKey when empty).
func New(rdb *redis.Client, key string) *Cache {
	if key == "" {
		key = DefaultKey
	}
	return &Cache{rdb: rdb, key: key}
}

func (c *Cache) Get(ctx context.Context) (string, bool, error) {
	token, err := c.rdb.Get(ctx, c.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get token: %w", err)
	}
	return token, token != "", nil
}

func (c *Cache) Set(ctx context.Context, token string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return c.Invalidate(ctx)
	}
	if err := c.rdb.Set(ctx, c.key, token, ttl).Err(); err != nil {
		return fmt.Errorf("set token: %w", err)
	}
	return nil
}

func (c *Cache) Invalidate(ctx context.Context) error {
	if err := c.rdb.Del(ctx, c.key).Err(); err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	return nil
}
