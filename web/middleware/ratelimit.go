package middleware

import (
	"net/http"
	"strconv"
	"time"

	"user-center/caching"
	"user-center/logger"
	"user-center/web/entity"

	"github.com/gin-gonic/gin"
)

// RateLimitConfig configures the fixed-window limiter.
type RateLimitConfig struct {
	RequestsPerMinute int
	KeyFunc           func(c *gin.Context) string
}

// DefaultLoginRateLimit throttles credential guessing on the login route.
func DefaultLoginRateLimit() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerMinute: 10,
		KeyFunc: func(c *gin.Context) string {
			return c.ClientIP()
		},
	}
}

// RateLimit counts requests per key and path in the process-local cache and
// rejects with 429 once the window is exhausted.
func RateLimit(cache *caching.Cache, cfg RateLimitConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "ratelimit:" + cfg.KeyFunc(c) + ":" + c.Request.URL.Path

		count := 0
		if cached, ok := cache.Get(key); ok {
			count, _ = cached.(int)
		}

		if count >= cfg.RequestsPerMinute {
			logger.Warningf("rate limit exceeded for %s on %s (count: %d)", cfg.KeyFunc(c), c.Request.URL.Path, count)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, entity.Msg{
				Success: false,
				Message: "Too many requests. Please try again later.",
			})
			return
		}

		if count == 0 {
			cache.Set(key, 1, time.Minute)
		} else {
			if err := cache.Memory().Increment(key, int64(1)); err != nil {
				cache.Set(key, count+1, time.Minute)
			}
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.RequestsPerMinute))
		remaining := cfg.RequestsPerMinute - count - 1
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Next()
	}
}
