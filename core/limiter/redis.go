package limiter

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "ratelimit:"

// RedisStore backs the gate with Redis SET NX + TTL, so dedup state is shared
// across all server processes.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Redis-backed store. The client's lifecycle is owned
// by the caller.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Hit claims the key for the window via SET NX. When the key already exists,
// the remaining TTL is returned as the retry-after.
func (s *RedisStore) Hit(ctx context.Context, key string, window time.Duration) (Result, error) {
	redisKey := redisKeyPrefix + key

	ok, err := s.client.SetNX(ctx, redisKey, 1, window).Result()
	if err != nil {
		return Result{}, fmt.Errorf("failed to claim rate-limit key: %w", err)
	}
	if ok {
		return Result{Allowed: true}, nil
	}

	ttl, err := s.client.PTTL(ctx, redisKey).Result()
	if err != nil {
		return Result{}, fmt.Errorf("failed to read rate-limit TTL: %w", err)
	}
	if ttl < 0 {
		// Key expired between SETNX and PTTL; treat as a full window.
		ttl = window
	}
	return Result{Allowed: false, RetryAfter: ttl}, nil
}

// Close is a no-op; the underlying client is shared.
func (s *RedisStore) Close() error {
	return nil
}
