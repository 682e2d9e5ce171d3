package middleware

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-redis/redis/v8"

	"github.com/ken-william/dreamshare/internal/ratelimit"
	"github.com/ken-william/dreamshare/internal/utils/response"
)

type RateLimitConfig struct {
	limiters map[string]*ratelimit.TokenBucket
}

// NewRateLimitConfig wires per-action token buckets. Limits are per user per
// minute.
func NewRateLimitConfig(redisClient *redis.Client) *RateLimitConfig {
	config := &RateLimitConfig{
		limiters: make(map[string]*ratelimit.TokenBucket),
	}

	config.limiters["dreams"] = ratelimit.NewTokenBucket(redisClient, 20, 20)
	config.limiters["comments"] = ratelimit.NewTokenBucket(redisClient, 30, 30)
	config.limiters["likes"] = ratelimit.NewTokenBucket(redisClient, 60, 60)
	config.limiters["messages"] = ratelimit.NewTokenBucket(redisClient, 60, 60)

	return config
}

func (rlc *RateLimitConfig) RateLimitMiddleware(action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := GetUserIDFromContext(r.Context())
			if !ok {
				response.Error(w, http.StatusUnauthorized, "user not authenticated")
				return
			}

			limiter, exists := rlc.limiters[action]
			if !exists {
				next.ServeHTTP(w, r)
				return
			}

			user := strconv.FormatInt(userID, 10)
			allowed, err := limiter.Allow(r.Context(), user, action)
			if err != nil {
				response.Error(w, http.StatusInternalServerError, fmt.Sprintf("rate limit check failed: %v", err))
				return
			}

			remaining, _ := limiter.GetRemaining(r.Context(), user, action)
			w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(limiter.Limit(), 10))
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
			w.Header().Set("X-RateLimit-Reset", "60")

			if !allowed {
				response.Error(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RateLimitedHandler wraps a handler with rate limiting for a specific action
func (rlc *RateLimitConfig) RateLimitedHandler(action string, handler http.HandlerFunc) http.Handler {
	return rlc.RateLimitMiddleware(action)(http.HandlerFunc(handler))
}
