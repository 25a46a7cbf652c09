package middleware

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
)

func setupIdentityRouter() *gin.Engine {
	r := gin.New()
	r.Use(UserIdentity())
	r.POST("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetString(UserIDKey)})
	})
	return r
}

func TestUserIdentity(t *testing.T) {
	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantUserID string
	}{
		{
			name:       "canonical_uuid",
			header:     "0192f5a8-7c3e-7b21-9d4a-5e6f7a8b9c0d",
			wantStatus: http.StatusOK,
			wantUserID: "0192f5a8-7c3e-7b21-9d4a-5e6f7a8b9c0d",
		},
		{
			name:       "uppercase_uuid_is_normalized",
			header:     "0192F5A8-7C3E-7B21-9D4A-5E6F7A8B9C0D",
			wantStatus: http.StatusOK,
			wantUserID: "0192f5a8-7c3e-7b21-9d4a-5e6f7a8b9c0d",
		},
		{
			name:       "missing_header",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "not_a_uuid",
			header:     "42",
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := map[string]string{}
			if tt.header != "" {
				headers[UserIDHeader] = tt.header
			}
			rec := doRequest(setupIdentityRouter(), headers)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
			if tt.wantStatus != http.StatusOK {
				if code := errorCode(t, rec); code != "UNAUTHORIZED" {
					t.Errorf("expected UNAUTHORIZED, got %q", code)
				}
				return
			}
			if got := parseBody(t, rec)["user_id"]; got != tt.wantUserID {
				t.Errorf("expected user_id %q, got %v", tt.wantUserID, got)
			}
		})
	}
}
