package cache

import (
	"context"
	"sync/atomic"
	"time"

	"streamscout/internal/common/database"
	"streamscout/internal/common/logger"

	"github.com/redis/go-redis/v9"
)

// Redis implements Cache on top of a shared Redis instance. TTL and
// eviction are Redis's responsibility (configure maxmemory-policy allkeys-lru
// server-side); hit/miss counters are process-local.
type Redis struct {
	client *database.RedisClient
	prefix string
	log    logger.Logger

	hits   atomic.Uint64
	misses atomic.Uint64
}

func NewRedis(client *database.RedisClient, prefix string, log logger.Logger) *Redis {
	if prefix == "" {
		prefix = "streamscout:cache:"
	}
	return &Redis{
		client: client,
		prefix: prefix,
		log:    log,
	}
}

func (c *Redis) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := c.client.GetClient().Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.Warn("redis cache get failed", map[string]interface{}{
				"key":   key,
				"error": err.Error(),
			})
		}
		c.misses.Add(1)
		return nil, false
	}

	c.hits.Add(1)
	return val, true
}

func (c *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if err := c.client.Set(ctx, c.prefix+key, value, ttl); err != nil {
		// A failed write degrades to a cache miss on the next read.
		c.log.Warn("redis cache set failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}
}

func (c *Redis) Stats() Stats {
	var size int
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if n, err := c.client.GetClient().DBSize(ctx).Result(); err == nil {
		size = int(n)
	}

	return Stats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Size:   size,
	}
}
