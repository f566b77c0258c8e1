package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"finassist/pkg/logger"
	"finassist/pkg/ratelimiter"
)

// RateLimit rejects requests above the configured rate with a 429. A nil
// limiter disables limiting.
func RateLimit(log *logger.Logger, limiter ratelimiter.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter != nil && !limiter.Allow() {
			log.WithPayload(map[string]interface{}{
				"path":   c.Request.URL.Path,
				"client": c.ClientIP(),
			}).Warn("Request rate limited")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Rate limit exceeded. Please try again later.",
			})
			return
		}
		c.Next()
	}
}
