package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/belegpilot/extraction-service/internal/ratelimit"
)

// RateLimitMiddleware creates a middleware that enforces a per-key sliding
// window rate limit. Limiter errors fail open so a Redis outage degrades to
// no rate limiting instead of a full outage.
func RateLimitMiddleware(limiter ratelimit.Limiter, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		prefix := KeyPrefixFromContext(c)
		if prefix == "" {
			prefix = c.ClientIP()
		}

		allowed, err := limiter.Allow(c.Request.Context(), ratelimit.BuildKey(prefix), limit, window)
		if err != nil {
			c.Next()
			return
		}

		if !allowed {
			c.Header("Retry-After", "60")
			c.JSON(http.StatusTooManyRequests, gin.H{
				"status":  "Too Many Requests",
				"message": "Rate limit exceeded, try again later",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
