package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Connect initializes a Redis client from URL or host:port input
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	var client *redis.Client
	if strings.HasPrefix(redisURL, "redis://") || strings.HasPrefix(redisURL, "rediss://") {
		opt, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		client = redis.NewClient(opt)
	} else {
		client = redis.NewClient(&redis.Options{Addr: redisURL})
	}

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// RedisTokenCache keeps tokens as JSON strings with a TTL
type RedisTokenCache struct {
	client *redis.Client
}

// NewRedisTokenCache creates the redis-backed token cache
func NewRedisTokenCache(client *redis.Client) *RedisTokenCache {
	return &RedisTokenCache{client: client}
}

func (c *RedisTokenCache) Get(ctx context.Context, partialKey string) (*CachedToken, bool, error) {
	raw, err := c.client.Get(ctx, tokenKey(partialKey)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var t CachedToken
	if err := json.Unmarshal(raw, &t); err != nil {
		// A corrupt entry is a miss; it will be overwritten on the next verify
		return nil, false, nil
	}
	return &t, true, nil
}

func (c *RedisTokenCache) Set(ctx context.Context, partialKey string, token CachedToken, ttl time.Duration) error {
	raw, err := json.Marshal(token)
	if err != nil {
		return err
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return c.client.Set(ctx, tokenKey(partialKey), raw, ttl).Err()
}

func (c *RedisTokenCache) Expire(ctx context.Context, partialKeys ...string) error {
	if len(partialKeys) == 0 {
		return nil
	}
	keys := make([]string, len(partialKeys))
	for i, k := range partialKeys {
		keys[i] = tokenKey(k)
	}
	return c.client.Del(ctx, keys...).Err()
}
