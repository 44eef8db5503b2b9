package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter decides whether a caller may issue another request
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// RedisLimiter is a sliding-window rate limiter backed by a Redis sorted set
// per caller. Entries expire with the window, so the counter store stays
// bounded and is shared across service instances.
type RedisLimiter struct {
	rdb *redis.Client
}

// NewRedisLimiter creates a limiter and verifies the Redis connection
func NewRedisLimiter(ctx context.Context, addr, password string, db int) (*RedisLimiter, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &RedisLimiter{rdb: rdb}, nil
}

// Allow records the request and reports whether it fits within limit
// requests per window for the given key.
func (l *RedisLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := time.Now().UnixMilli()
	windowStart := now - window.Milliseconds()

	pipe := l.rdb.Pipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", fmt.Sprintf("%d", windowStart))
	countCmd := pipe.ZCard(ctx, key)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("rate limit check failed: %w", err)
	}

	if countCmd.Val() >= int64(limit) {
		return false, nil
	}

	pipe = l.rdb.Pipeline()
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(now), Member: fmt.Sprintf("%d", now)})
	pipe.Expire(ctx, key, window*2)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("rate limit record failed: %w", err)
	}

	return true, nil
}

// Ping verifies the Redis connection is still alive
func (l *RedisLimiter) Ping(ctx context.Context) error {
	return l.rdb.Ping(ctx).Err()
}

// Close releases the underlying Redis connection
func (l *RedisLimiter) Close() error {
	return l.rdb.Close()
}

// BuildKey builds the limiter key for an API key identity
func BuildKey(keyPrefix string) string {
	return fmt.Sprintf("ratelimit:extract:%s", keyPrefix)
}
