// Package gateway is the single public entry point of MyFinances. It
// authenticates bearer tokens, rate limits callers and forwards requests to
// the owning service with the caller's identity attached.
package gateway

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tobiasceruttigothe/MyFinances/internal/identity"
	"github.com/tobiasceruttigothe/MyFinances/internal/logger"
	"github.com/tobiasceruttigothe/MyFinances/internal/middleware"
	"github.com/tobiasceruttigothe/MyFinances/internal/uuid"
)

const emailKey = "email"

// DefaultPublicPaths are reachable without a token.
var DefaultPublicPaths = []string{
	"/api/health",
	"/api/v1/users/register",
	"/api/v1/users/login",
	"/api/v1/users/refresh-token",
	"/api/v1/categories/templates",
}

// Authenticate verifies the bearer token of every non-public request and
// records its subject under middleware.UserIDKey. Any client-supplied
// X-User-Id header is discarded first, so only the gateway can assert an
// identity downstream.
func Authenticate(verifier *identity.TokenVerifier, publicPaths []string) gin.HandlerFunc {
	public := make(map[string]struct{}, len(publicPaths))
	for _, p := range publicPaths {
		public[p] = struct{}{}
	}

	return func(c *gin.Context) {
		c.Request.Header.Del(middleware.UserIDHeader)

		if _, ok := public[strings.TrimRight(c.Request.URL.Path, "/")]; ok || c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "UNAUTHORIZED", "Authorization header is required")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			abortUnauthorized(c, "UNAUTHORIZED", "Invalid authorization header format")
			return
		}

		claims, err := verifier.Verify(parts[1])
		if err != nil {
			logger.Named("gateway").Debugw("token rejected", "error", err.Error(), "path", c.Request.URL.Path)
			abortUnauthorized(c, "INVALID_TOKEN", "Invalid or expired token")
			return
		}

		// Reject refresh tokens used as access tokens
		if claims.Type == identity.TokenTypeRefresh {
			abortUnauthorized(c, "INVALID_TOKEN", "Invalid or expired token")
			return
		}

		userID, err := uuid.Parse(claims.Subject)
		if err != nil {
			abortUnauthorized(c, "INVALID_TOKEN", "Token subject is not a user id")
			return
		}

		c.Set(middleware.UserIDKey, userID)
		c.Set(emailKey, claims.Email)
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, code, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": gin.H{"code": code, "message": message}})
}
