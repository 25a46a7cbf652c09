package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tobiasceruttigothe/MyFinances/internal/uuid"
)

const (
	// UserIDHeader is set by the gateway to the authenticated subject.
	UserIDHeader = "X-User-Id"

	// UserIDKey is the gin context key holding the resolved user id.
	UserIDKey = "userID"
)

// UserIdentity trusts the gateway-supplied X-User-Id header and stores the
// canonical user id in the context. Requests without a valid id are
// rejected with 401.
func UserIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(UserIDHeader)
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				gin.H{"error": gin.H{"code": "UNAUTHORIZED", "message": "Missing " + UserIDHeader + " header"}})
			return
		}
		userID, err := uuid.Parse(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				gin.H{"error": gin.H{"code": "UNAUTHORIZED", "message": "Invalid " + UserIDHeader + " header"}})
			return
		}
		c.Set(UserIDKey, userID)
		c.Next()
	}
}
