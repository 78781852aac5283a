// Package cache holds the Redis-backed caches. The server runs without any of
// them when REDIS_ADDR is empty.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient builds a client and verifies the server answers PING.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		PoolSize:     10,
		MinIdleConns: 2,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("cache: redis ping %s: %w", addr, err)
	}
	return client, nil
}

const tagsKey = "blog:tags:v1"

// TagCache stores the full, sorted tag list under a single key.
type TagCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewTagCache(client *redis.Client, ttl time.Duration) *TagCache {
	return &TagCache{client: client, ttl: ttl}
}

// GetTags returns the cached list. ok is false on a cache miss.
func (c *TagCache) GetTags(ctx context.Context) (tags []string, ok bool, err error) {
	raw, err := c.client.Get(ctx, tagsKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache: reading tags: %w", err)
	}

	tags, err = decodeTags(raw)
	if err != nil {
		return nil, false, err
	}
	return tags, true, nil
}

func (c *TagCache) SetTags(ctx context.Context, tags []string) error {
	raw, err := encodeTags(tags)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, tagsKey, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache: writing tags: %w", err)
	}
	return nil
}

// Invalidate drops the cached list so the next read reloads from the store.
func (c *TagCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, tagsKey).Err(); err != nil {
		return fmt.Errorf("cache: invalidating tags: %w", err)
	}
	return nil
}

func encodeTags(tags []string) ([]byte, error) {
	if tags == nil {
		tags = []string{}
	}
	raw, err := json.Marshal(tags)
	if err != nil {
		return nil, fmt.Errorf("cache: encoding tags: %w", err)
	}
	return raw, nil
}

func decodeTags(raw []byte) ([]string, error) {
	var tags []string
	if err := json.Unmarshal(raw, &tags); err != nil {
		return nil, fmt.Errorf("cache: decoding tags: %w", err)
	}
	if tags == nil {
		tags = []string{}
	}
	return tags, nil
}
