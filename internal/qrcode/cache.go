package qrcode

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const cacheTTL = 24 * time.Hour

// RedisCache keeps rendered images in Redis hashes with a TTL. Redis errors
// degrade to cache misses.
type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisCache wraps an existing client.
func NewRedisCache(rdb *redis.Client) *RedisCache {
	return &RedisCache{rdb: rdb, ttl: cacheTTL}
}

// Get implements Cache.
func (c *RedisCache) Get(ctx context.Context, key string) (*Image, bool) {
	vals, err := c.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		log.Printf("qrcode: cache get %s: %v", key, err)
		return nil, false
	}
	data, ok := vals["data"]
	if !ok || data == "" {
		return nil, false
	}
	return &Image{Bytes: []byte(data), MIMEType: vals["mime"]}, true
}

// Set implements Cache.
func (c *RedisCache) Set(ctx context.Context, key string, img *Image) {
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, "mime", img.MIMEType, "data", img.Bytes)
		pipe.Expire(ctx, key, c.ttl)
		return nil
	})
	if err != nil {
		log.Printf("qrcode: cache set %s: %v", key, err)
	}
}
