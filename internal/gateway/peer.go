package gateway

import (
	"path"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "github.com/tobiasceruttigothe/MyFinances/internal/errors"
)

// DefaultPeerOnlyPrefixes are service-to-service routes. They take the
// target user from the path and trust the service key alone, so the
// gateway never forwards them.
var DefaultPeerOnlyPrefixes = []string{
	"/api/v1/investments/user/",
	"/api/v1/categories/initialize-for-user/",
}

// BlockPeerOnly answers 404 for any path under one of the prefixes, as if
// the route did not exist.
func BlockPeerOnly(prefixes []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := path.Clean("/" + c.Request.URL.Path)
		for _, prefix := range prefixes {
			if p+"/" == prefix || strings.HasPrefix(p, prefix) {
				c.AbortWithStatusJSON(apperrors.ErrNotFound.StatusCode, gin.H{
					"error": gin.H{"code": apperrors.ErrNotFound.Code, "message": "No route for " + c.Request.URL.Path},
				})
				return
			}
		}
		c.Next()
	}
}
