package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ServiceKeyHeader carries the shared secret between the gateway and services.
const ServiceKeyHeader = "X-Service-Key"

// ServiceKeyAuth rejects requests whose X-Service-Key does not match the
// configured key. Services install it only when a key is configured, so that
// the trusted identity header is honored only for traffic from the gateway or
// a peer service.
func ServiceKeyAuth(serviceKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if serviceKey == "" {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable,
				gin.H{"error": gin.H{"code": "SERVICE_KEY_NOT_CONFIGURED", "message": "Service key is not configured"}})
			return
		}
		key := c.GetHeader(ServiceKeyHeader)
		if subtle.ConstantTimeCompare([]byte(key), []byte(serviceKey)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				gin.H{"error": gin.H{"code": "INVALID_SERVICE_KEY", "message": "Invalid or missing service key"}})
			return
		}
		c.Next()
	}
}
