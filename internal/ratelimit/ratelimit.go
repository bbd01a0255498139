// Package ratelimit throttles repeated login attempts per email address.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter decides whether another attempt for key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	Reset(ctx context.Context, key string) error
}

// Noop allows everything. It is used when no Redis address is configured.
type Noop struct{}

func (Noop) Allow(context.Context, string) (bool, error) { return true, nil }
func (Noop) Reset(context.Context, string) error         { return nil }

// RedisConfig holds Redis limiter configuration.
type RedisConfig struct {
	Client redis.Cmdable
	// KeyPrefix defaults to "login:".
	KeyPrefix string
	// Rate is the number of attempts allowed per window.
	Rate   int
	Window time.Duration
}

// RedisLimiter is a fixed-window counter shared by every server instance
// pointing at the same Redis.
type RedisLimiter struct {
	client    redis.Cmdable
	keyPrefix string
	rate      int
	window    time.Duration
}

func NewRedisLimiter(cfg RedisConfig) *RedisLimiter {
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "login:"
	}
	rate := cfg.Rate
	if rate <= 0 {
		rate = 10
	}
	window := cfg.Window
	if window <= 0 {
		window = time.Minute
	}
	return &RedisLimiter{
		client:    cfg.Client,
		keyPrefix: prefix,
		rate:      rate,
		window:    window,
	}
}

// Allow counts one attempt for key and reports whether it is within the rate.
func (r *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	redisKey := r.keyPrefix + key

	count, err := r.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return false, fmt.Errorf("redis rate limit: %w", err)
	}
	if count == 1 {
		if err := r.client.PExpire(ctx, redisKey, r.window).Err(); err != nil {
			return false, fmt.Errorf("redis rate limit expiry: %w", err)
		}
	}
	return count <= int64(r.rate), nil
}

// Reset clears the attempt counter for key.
func (r *RedisLimiter) Reset(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.keyPrefix+key).Err()
}

var (
	_ Limiter = Noop{}
	_ Limiter = (*RedisLimiter)(nil)
)
