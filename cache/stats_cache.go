package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"dzika/logger"
	"dzika/model"

	"github.com/redis/go-redis/v9"
)

// StatsCache caches serialized statistics responses in Redis with a short
// TTL. Aggregations are read-heavy and tolerant of slightly stale numbers;
// a nil cache disables caching entirely.
type StatsCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStatsCache creates a cache on the given client.
func NewStatsCache(client *redis.Client, ttl time.Duration) *StatsCache {
	return &StatsCache{client: client, ttl: ttl}
}

// Key builds the cache key for one statistics view.
func Key(kind string, rng model.DateRange, limit int) string {
	return fmt.Sprintf("stats:%s:%s:%d", kind, rng, limit)
}

// Get loads a cached value into dest. Returns false on a miss; cache errors
// are logged and treated as misses so Redis trouble never fails a read.
func (c *StatsCache) Get(ctx context.Context, key string, dest interface{}) bool {
	if c == nil || c.client == nil {
		return false
	}

	raw, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Warn("stats cache read failed", logger.String("key", key), logger.ErrorField(err))
		}
		return false
	}

	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		logger.Warn("stats cache entry corrupt", logger.String("key", key), logger.ErrorField(err))
		return false
	}
	return true
}

// Set stores a value best-effort; failures are logged, never surfaced.
func (c *StatsCache) Set(ctx context.Context, key string, value interface{}) {
	if c == nil || c.client == nil {
		return
	}

	raw, err := json.Marshal(value)
	if err != nil {
		logger.Warn("stats cache marshal failed", logger.String("key", key), logger.ErrorField(err))
		return
	}

	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		logger.Warn("stats cache write failed", logger.String("key", key), logger.ErrorField(err))
	}
}
