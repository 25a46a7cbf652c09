package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	apperrors "github.com/tobiasceruttigothe/MyFinances/internal/errors"
	"github.com/tobiasceruttigothe/MyFinances/internal/middleware"
	"github.com/tobiasceruttigothe/MyFinances/internal/validator"
)

const (
	testUserID  = "11111111-1111-4111-8111-111111111111"
	otherUserID = "22222222-2222-4222-8222-222222222222"
	testItemID  = "33333333-3333-4333-8333-333333333333"
)

var errUnexpected = errors.New("connection reset by peer")

// --- mock audit service ---

type auditEntry struct {
	UserID, Action, ResourceType, ResourceID string
}

type mockAuditService struct {
	entries []auditEntry
}

func (m *mockAuditService) Log(userID, action, resourceType, resourceID, _ string, _ map[string]interface{}) {
	m.entries = append(m.entries, auditEntry{userID, action, resourceType, resourceID})
}

func (m *mockAuditService) hasAction(action string) bool {
	for _, e := range m.entries {
		if e.Action == action {
			return true
		}
	}
	return false
}

// --- test helpers ---

func init() {
	gin.SetMode(gin.TestMode)
	validator.Register()
}

// newTestRouter returns an engine that renders handler errors the way the
// services do.
func newTestRouter() *gin.Engine {
	r := gin.New()
	r.Use(middleware.ErrorHandler())
	return r
}

func injectUserID(uid string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.UserIDKey, uid)
		c.Next()
	}
}

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

func assertErrorCode(t *testing.T, result map[string]interface{}, code string) {
	t.Helper()
	errObj, ok := result["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object in response, got: %v", result)
	}
	if errObj["code"] != code {
		t.Errorf("expected error code %q, got %q", code, errObj["code"])
	}
}

func assertStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
}

func TestRespondWithError(t *testing.T) {
	t.Run("renders app errors with their status", func(t *testing.T) {
		r := newTestRouter()
		r.GET("/", func(c *gin.Context) { respondWithError(c, apperrors.ErrCategoryInUse) })

		rec := doRequest(r, http.MethodGet, "/", "")

		assertStatus(t, rec, http.StatusConflict)
		assertErrorCode(t, parseJSON(t, rec), "CATEGORY_IN_USE")
	})

	t.Run("hides unexpected errors", func(t *testing.T) {
		r := newTestRouter()
		r.GET("/", func(c *gin.Context) { respondWithError(c, errUnexpected) })

		rec := doRequest(r, http.MethodGet, "/", "")

		assertStatus(t, rec, http.StatusInternalServerError)
		result := parseJSON(t, rec)
		assertErrorCode(t, result, "INTERNAL_ERROR")
		if strings.Contains(rec.Body.String(), errUnexpected.Error()) {
			t.Error("expected internal error text to be hidden")
		}
	})
}

func TestGetUserID(t *testing.T) {
	t.Run("missing user id is unauthorized", func(t *testing.T) {
		r := newTestRouter()
		r.GET("/", func(c *gin.Context) {
			if _, err := getUserID(c); err != nil {
				respondWithError(c, err)
				return
			}
			c.Status(http.StatusOK)
		})

		rec := doRequest(r, http.MethodGet, "/", "")

		assertStatus(t, rec, http.StatusUnauthorized)
		assertErrorCode(t, parseJSON(t, rec), "UNAUTHORIZED")
	})
}

func TestParseDateRange(t *testing.T) {
	handler := func(c *gin.Context) {
		start, end, err := parseDateRange(c)
		if err != nil {
			respondWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"start": start, "end": end})
	}
	r := newTestRouter()
	r.GET("/", handler)

	t.Run("date-only end covers the whole day", func(t *testing.T) {
		rec := doRequest(r, http.MethodGet, "/?start_date=2026-03-01&end_date=2026-03-31", "")

		assertStatus(t, rec, http.StatusOK)
		result := parseJSON(t, rec)
		if result["end"] != "2026-03-31T23:59:59.999999999Z" {
			t.Errorf("unexpected end %v", result["end"])
		}
	})

	t.Run("accepts RFC 3339", func(t *testing.T) {
		rec := doRequest(r, http.MethodGet, "/?start_date=2026-03-01T10:00:00Z&end_date=2026-03-02T10:00:00Z", "")

		assertStatus(t, rec, http.StatusOK)
		if parseJSON(t, rec)["end"] != "2026-03-02T10:00:00Z" {
			t.Error("expected timestamp end to be kept as given")
		}
	})

	t.Run("rejects a missing start", func(t *testing.T) {
		rec := doRequest(r, http.MethodGet, "/?end_date=2026-03-31", "")

		assertStatus(t, rec, http.StatusBadRequest)
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})
}

func TestHealth(t *testing.T) {
	r := newTestRouter()
	r.GET("/api/health", Health("account"))

	rec := doRequest(r, http.MethodGet, "/api/health", "")

	assertStatus(t, rec, http.StatusOK)
	if parseJSON(t, rec)["service"] != "account" {
		t.Error("expected service name in health response")
	}
}
