// Package ratelimit throttles repeated failed logins. Failures are counted per
// key in a fixed window; once the limit is reached further attempts are
// refused until the window expires.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/docdrive/internal/common"
	"github.com/redis/go-redis/v9"
)

// Limiter is consulted around each login attempt.
type Limiter interface {
	// Check returns common.ErrTooManyAttempts when key is locked out.
	Check(ctx context.Context, key string) error
	// Fail records a failed attempt for key.
	Fail(ctx context.Context, key string) error
	// Reset forgets the failures of key, typically after a successful login.
	Reset(ctx context.Context, key string) error
}

// Store is the subset of redis.Cmdable used by RedisLimiter.
type Store interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

const keyPrefix = "docdrive:login:"

// RedisLimiter counts failures in redis so limits hold across instances.
type RedisLimiter struct {
	store  Store
	limit  int64
	window time.Duration
}

func NewRedis(store Store, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{store: store, limit: int64(limit), window: window}
}

func redisKey(key string) string {
	return keyPrefix + strings.ToLower(key)
}

func (l *RedisLimiter) Check(ctx context.Context, key string) error {
	n, err := l.store.Get(ctx, redisKey(key)).Int64()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("rate limit check: %w", err)
	}
	if n >= l.limit {
		return common.ErrTooManyAttempts
	}
	return nil
}

func (l *RedisLimiter) Fail(ctx context.Context, key string) error {
	k := redisKey(key)
	n, err := l.store.Incr(ctx, k).Result()
	if err != nil {
		return fmt.Errorf("rate limit record: %w", err)
	}
	if n == 1 {
		if err := l.store.Expire(ctx, k, l.window).Err(); err != nil {
			return fmt.Errorf("rate limit expire: %w", err)
		}
	}
	return nil
}

func (l *RedisLimiter) Reset(ctx context.Context, key string) error {
	if err := l.store.Del(ctx, redisKey(key)).Err(); err != nil {
		return fmt.Errorf("rate limit reset: %w", err)
	}
	return nil
}

// Nop never limits. It is used when no redis address is configured.
type Nop struct{}

func (Nop) Check(context.Context, string) error { return nil }
func (Nop) Fail(context.Context, string) error  { return nil }
func (Nop) Reset(context.Context, string) error { return nil }
