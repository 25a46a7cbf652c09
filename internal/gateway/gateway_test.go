package gateway

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/tobiasceruttigothe/MyFinances/internal/identity"
	"github.com/tobiasceruttigothe/MyFinances/internal/middleware"
)

const (
	testSecret = "gateway-test-secret"
	testUserID = "0192f3a4-5b6c-7d8e-9f00-112233445566"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// upstream records the last request it received.
type upstream struct {
	server *httptest.Server

	mu      sync.Mutex
	lastReq *http.Request
}

func newUpstream(t *testing.T, name string) *upstream {
	t.Helper()
	u := &upstream{}
	u.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u.mu.Lock()
		u.lastReq = r.Clone(r.Context())
		u.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"upstream": name, "path": r.URL.Path})
	}))
	t.Cleanup(u.server.Close)
	return u
}

func (u *upstream) last() *http.Request {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.lastReq
}

// response is what a client saw from the gateway.
type response struct {
	Code   int
	Header http.Header
	Body   *bytes.Buffer
}

type fixture struct {
	server     *httptest.Server
	account    *upstream
	investment *upstream
	user       *upstream
	issuer     *identity.TokenIssuer
}

func setup(t *testing.T, limiter *rate.Limiter) *fixture {
	t.Helper()
	f := &fixture{
		account:    newUpstream(t, "account"),
		investment: newUpstream(t, "investment"),
		user:       newUpstream(t, "user"),
		issuer:     identity.NewTokenIssuer([]byte(testSecret), time.Minute, time.Hour),
	}
	engine, err := NewEngine(Options{
		Verifier:   identity.NewHMACVerifier([]byte(testSecret)),
		Routes:     DefaultRoutes(f.account.server.URL, f.investment.server.URL, f.user.server.URL),
		ServiceKey: "internal-key",
		Limiter:    limiter,
	})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	f.server = httptest.NewServer(engine)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fixture) do(t *testing.T, method, path, token string, header map[string]string) *response {
	t.Helper()
	req, err := http.NewRequest(method, f.server.URL+path, nil)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}

	resp, err := f.server.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	body := &bytes.Buffer{}
	if _, err := io.Copy(body, resp.Body); err != nil {
		t.Fatalf("read body: %v", err)
	}
	return &response{Code: resp.StatusCode, Header: resp.Header, Body: body}
}

func (f *fixture) tokens(t *testing.T) *identity.TokenSet {
	t.Helper()
	ts, err := f.issuer.Issue(testUserID, "ana@example.com", "ana")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	return ts
}

func errorCode(t *testing.T, rec *response) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse body %q: %v", rec.Body.String(), err)
	}
	return body.Error.Code
}

func TestGateway_Authentication(t *testing.T) {
	t.Run("missing token is rejected", func(t *testing.T) {
		f := setup(t, nil)

		rec := f.do(t, http.MethodGet, "/api/v1/transactions", "", nil)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
		if f.account.last() != nil {
			t.Error("expected no upstream call")
		}
	})

	t.Run("malformed header is rejected", func(t *testing.T) {
		f := setup(t, nil)

		rec := f.do(t, http.MethodGet, "/api/v1/transactions", "", map[string]string{"Authorization": "Token abc"})

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("token signed with another secret is rejected", func(t *testing.T) {
		f := setup(t, nil)
		other := identity.NewTokenIssuer([]byte("other-secret"), time.Minute, time.Hour)
		ts, err := other.Issue(testUserID, "ana@example.com", "ana")
		if err != nil {
			t.Fatalf("Issue: %v", err)
		}

		rec := f.do(t, http.MethodGet, "/api/v1/transactions", ts.AccessToken, nil)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
		if code := errorCode(t, rec); code != "INVALID_TOKEN" {
			t.Errorf("expected INVALID_TOKEN, got %s", code)
		}
	})

	t.Run("refresh token is rejected", func(t *testing.T) {
		f := setup(t, nil)

		rec := f.do(t, http.MethodGet, "/api/v1/transactions", f.tokens(t).RefreshToken, nil)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("access token forwards the subject", func(t *testing.T) {
		f := setup(t, nil)

		rec := f.do(t, http.MethodGet, "/api/v1/transactions/recent", f.tokens(t).AccessToken,
			map[string]string{middleware.UserIDHeader: "99999999-9999-4999-8999-999999999999"})

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		got := f.account.last()
		if got == nil {
			t.Fatal("expected upstream call")
		}
		if got.Header.Get(middleware.UserIDHeader) != testUserID {
			t.Errorf("expected spoofed header replaced by %s, got %s", testUserID, got.Header.Get(middleware.UserIDHeader))
		}
		if got.Header.Get(middleware.ServiceKeyHeader) != "internal-key" {
			t.Error("expected service key on forwarded request")
		}
		if got.URL.Path != "/api/v1/transactions/recent" {
			t.Errorf("expected path preserved, got %s", got.URL.Path)
		}
	})

	t.Run("public routes skip authentication and drop identity headers", func(t *testing.T) {
		f := setup(t, nil)

		rec := f.do(t, http.MethodPost, "/api/v1/users/login", "",
			map[string]string{middleware.UserIDHeader: testUserID})

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		got := f.user.last()
		if got == nil {
			t.Fatal("expected user service call")
		}
		if got.Header.Get(middleware.UserIDHeader) != "" {
			t.Error("expected client identity header to be stripped")
		}
	})
}

func TestGateway_Routing(t *testing.T) {
	f := setup(t, nil)
	token := f.tokens(t).AccessToken

	cases := []struct {
		path string
		want string
	}{
		{"/api/v1/categories/root", "account"},
		{"/api/v1/reports/monthly", "account"},
		{"/api/v1/accounts/summary", "account"},
		{"/api/v1/investments/portfolio/summary", "investment"},
		{"/api/v1/users/profile", "user"},
	}
	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			rec := f.do(t, http.MethodGet, tc.path, token, nil)

			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", rec.Code)
			}
			var body map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("parse: %v", err)
			}
			if body["upstream"] != tc.want {
				t.Errorf("expected %s, got %s", tc.want, body["upstream"])
			}
		})
	}

	t.Run("unknown prefix is 404", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/api/v1/budgets", token, nil)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("prefix must match a whole segment", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/api/v1/usersx", token, nil)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})
}

func TestGateway_PeerOnlyRoutesAreHidden(t *testing.T) {
	f := setup(t, nil)
	token := f.tokens(t).AccessToken
	const otherUser = "0192f3a4-5b6c-7d8e-9f00-aabbccddeeff"

	cases := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/investments/user/" + otherUser},
		{http.MethodPost, "/api/v1/categories/initialize-for-user/" + otherUser},
		{http.MethodGet, "/api/v1/investments/./user/" + otherUser},
		{http.MethodGet, "/api/v1/investments/user"},
	}
	for _, tc := range cases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			rec := f.do(t, tc.method, tc.path, token, nil)

			if rec.Code != http.StatusNotFound {
				t.Fatalf("expected 404, got %d: %s", rec.Code, rec.Body.String())
			}
			if code := errorCode(t, rec); code != "NOT_FOUND" {
				t.Errorf("expected NOT_FOUND, got %s", code)
			}
		})
	}
	if f.account.last() != nil || f.investment.last() != nil {
		t.Error("expected peer-only routes never to reach a service")
	}

	t.Run("sibling routes still forward", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/api/v1/investments/type/Acciones", token, nil)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	})
}

func TestGateway_UpstreamDown(t *testing.T) {
	f := setup(t, nil)
	f.investment.server.Close()

	rec := f.do(t, http.MethodGet, "/api/v1/investments", f.tokens(t).AccessToken, nil)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
	if code := errorCode(t, rec); code != "UPSTREAM_UNAVAILABLE" {
		t.Errorf("expected UPSTREAM_UNAVAILABLE, got %s", code)
	}
}

func TestGateway_RateLimit(t *testing.T) {
	f := setup(t, rate.NewLimiter(rate.Every(time.Hour), 2))

	for i := 0; i < 2; i++ {
		if rec := f.do(t, http.MethodGet, "/api/health", "", nil); rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, rec.Code)
		}
	}

	rec := f.do(t, http.MethodGet, "/api/health", "", nil)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if code := errorCode(t, rec); code != "RATE_LIMITED" {
		t.Errorf("expected RATE_LIMITED, got %s", code)
	}
}

func TestNewProxy_InvalidUpstream(t *testing.T) {
	if _, err := NewProxy([]Route{{Prefix: "/api/v1/users", Upstream: "not a url"}}, "", nil); err == nil {
		t.Fatal("expected error for invalid upstream")
	}
}
