package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// TokenBucket is a per-user, per-action rate limiter backed by Redis. The
// bucket state lives in a Redis hash so multiple server instances share it.
type TokenBucket struct {
	redis    *redis.Client
	capacity int64
	refill   int64
	window   time.Duration
}

func NewTokenBucket(redisClient *redis.Client, capacity, refillRate int64) *TokenBucket {
	return &TokenBucket{
		redis:    redisClient,
		capacity: capacity,
		refill:   refillRate,
		window:   time.Minute,
	}
}

// refillScript computes the current token count from elapsed time. ARGV[5]
// decides whether a token is consumed (1) or the count is only inspected (0).
const refillScript = `
	local key = KEYS[1]
	local capacity = tonumber(ARGV[1])
	local refill_rate = tonumber(ARGV[2])
	local window = tonumber(ARGV[3])
	local now = tonumber(ARGV[4])
	local consume = tonumber(ARGV[5])

	local bucket = redis.call('HMGET', key, 'tokens', 'last_refill')
	local tokens = tonumber(bucket[1]) or capacity
	local last_refill = tonumber(bucket[2]) or now

	local elapsed = now - last_refill
	local refilled = math.floor((elapsed / window) * refill_rate)
	if refilled > 0 then
		tokens = math.min(capacity, tokens + refilled)
		last_refill = now
	end

	if consume == 0 then
		return tokens
	end

	local allowed = 0
	if tokens > 0 then
		tokens = tokens - 1
		allowed = 1
	end

	redis.call('HMSET', key, 'tokens', tokens, 'last_refill', last_refill)
	redis.call('EXPIRE', key, window * 2)
	return allowed
`

func bucketKey(userID, action string) string {
	return fmt.Sprintf("rate_limit:%s:%s", userID, action)
}

func (tb *TokenBucket) eval(ctx context.Context, userID, action string, consume int) (int64, error) {
	result, err := tb.redis.Eval(ctx, refillScript, []string{bucketKey(userID, action)},
		tb.capacity, tb.refill, int64(tb.window.Seconds()), time.Now().Unix(), consume).Result()
	if err != nil {
		return 0, fmt.Errorf("rate limit script failed: %w", err)
	}

	n, ok := result.(int64)
	if !ok {
		return 0, fmt.Errorf("unexpected result type from rate limit script")
	}

	return n, nil
}

// Allow consumes one token; it returns false when the bucket is empty.
func (tb *TokenBucket) Allow(ctx context.Context, userID, action string) (bool, error) {
	allowed, err := tb.eval(ctx, userID, action, 1)
	if err != nil {
		return false, err
	}
	return allowed == 1, nil
}

// GetRemaining returns the current token count without consuming one.
func (tb *TokenBucket) GetRemaining(ctx context.Context, userID, action string) (int64, error) {
	return tb.eval(ctx, userID, action, 0)
}

// Reset clears the rate limit for a specific user action.
func (tb *TokenBucket) Reset(ctx context.Context, userID, action string) error {
	return tb.redis.Del(ctx, bucketKey(userID, action)).Err()
}

// Limit returns the bucket capacity, for X-RateLimit-Limit headers.
func (tb *TokenBucket) Limit() int64 {
	return tb.capacity
}
