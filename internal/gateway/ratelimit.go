package gateway

import (
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	apperrors "github.com/tobiasceruttigothe/MyFinances/internal/errors"
)

// RateLimit rejects requests once the shared token bucket is empty.
func RateLimit(limiter *rate.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(apperrors.ErrRateLimited.StatusCode, gin.H{
				"error": gin.H{
					"code":    apperrors.ErrRateLimited.Code,
					"message": apperrors.ErrRateLimited.Message,
				},
			})
			return
		}
		c.Next()
	}
}
