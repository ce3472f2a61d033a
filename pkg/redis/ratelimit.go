package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimiter implements sliding-window rate limiting in Redis. It protects
// the manual reminder trigger endpoint from rapid repeated invocations; the
// scan itself is idempotent, so the limit is about notifier load, not
// correctness.
type RateLimiter struct {
	client *Client
	prefix string
}

// RateLimitConfig defines rate limit parameters for one limited operation.
type RateLimitConfig struct {
	Key    string        // operation identifier, e.g. "reminder_run"
	Limit  int           // maximum requests allowed per window
	Window time.Duration // sliding window length
}

// NewRateLimiter creates a rate limiter with a key prefix.
func NewRateLimiter(client *Client, prefix string) *RateLimiter {
	return &RateLimiter{
		client: client,
		prefix: prefix,
	}
}

// Allow checks whether a request is allowed under the limit. With Redis
// disabled every request is allowed.
func (r *RateLimiter) Allow(ctx context.Context, cfg RateLimitConfig) (bool, error) {
	if !r.client.Enabled() {
		return true, nil
	}

	key := fmt.Sprintf("%s:ratelimit:%s", r.prefix, cfg.Key)
	now := time.Now().UnixMilli()
	windowStart := now - cfg.Window.Milliseconds()

	// Lua keeps trim-count-add atomic under concurrent triggers.
	script := redis.NewScript(`
		local key = KEYS[1]
		local now = tonumber(ARGV[1])
		local window_start = tonumber(ARGV[2])
		local limit = tonumber(ARGV[3])
		local window_ms = tonumber(ARGV[4])

		redis.call('ZREMRANGEBYSCORE', key, '-inf', window_start)
		local count = redis.call('ZCARD', key)

		if count < limit then
			redis.call('ZADD', key, now, now)
			redis.call('PEXPIRE', key, window_ms)
			return 1
		end
		return 0
	`)

	result, err := script.Run(ctx, r.client.Redis(), []string{key},
		now,
		windowStart,
		cfg.Limit,
		cfg.Window.Milliseconds(),
	).Int64()
	if err != nil {
		return false, fmt.Errorf("rate limit script failed: %w", err)
	}

	return result == 1, nil
}

// TriggerRateLimit bounds manual scan triggers to a handful per minute.
var TriggerRateLimit = RateLimitConfig{
	Key:    "reminder_run",
	Limit:  6,
	Window: time.Minute,
}
