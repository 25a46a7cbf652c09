package gateway

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "github.com/tobiasceruttigothe/MyFinances/internal/errors"
	"github.com/tobiasceruttigothe/MyFinances/internal/logger"
	"github.com/tobiasceruttigothe/MyFinances/internal/middleware"
)

// Route maps a path prefix to the service that owns it.
type Route struct {
	Prefix   string
	Upstream string
}

// DefaultRoutes returns the route table for the three services.
func DefaultRoutes(accountURL, investmentURL, userURL string) []Route {
	return []Route{
		{Prefix: "/api/v1/categories", Upstream: accountURL},
		{Prefix: "/api/v1/transactions", Upstream: accountURL},
		{Prefix: "/api/v1/reports", Upstream: accountURL},
		{Prefix: "/api/v1/accounts", Upstream: accountURL},
		{Prefix: "/api/v1/investments", Upstream: investmentURL},
		{Prefix: "/api/v1/users", Upstream: userURL},
	}
}

type proxyRoute struct {
	prefix string
	proxy  *httputil.ReverseProxy
}

// Proxy forwards matched requests to their upstream.
type Proxy struct {
	routes     []proxyRoute
	serviceKey string
}

// NewProxy builds a Proxy for the given routes. The service key, when set,
// is attached to every forwarded request.
func NewProxy(routes []Route, serviceKey string, transport http.RoundTripper) (*Proxy, error) {
	p := &Proxy{serviceKey: serviceKey}
	for _, r := range routes {
		target, err := url.Parse(r.Upstream)
		if err != nil || target.Scheme == "" || target.Host == "" {
			return nil, fmt.Errorf("invalid upstream %q for %s", r.Upstream, r.Prefix)
		}
		rp := &httputil.ReverseProxy{
			Rewrite: func(pr *httputil.ProxyRequest) {
				pr.SetURL(target)
				pr.SetXForwarded()
			},
			Transport:    transport,
			ErrorHandler: upstreamError(r.Prefix),
		}
		p.routes = append(p.routes, proxyRoute{prefix: strings.TrimRight(r.Prefix, "/"), proxy: rp})
	}
	// Longest prefix first so nested prefixes win.
	sort.SliceStable(p.routes, func(i, j int) bool {
		return len(p.routes[i].prefix) > len(p.routes[j].prefix)
	})
	return p, nil
}

// Handle is the gin handler that forwards the request. It must run after
// Authenticate.
func (p *Proxy) Handle(c *gin.Context) {
	route, ok := p.match(c.Request.URL.Path)
	if !ok {
		c.JSON(apperrors.ErrNotFound.StatusCode, gin.H{
			"error": gin.H{"code": apperrors.ErrNotFound.Code, "message": "No route for " + c.Request.URL.Path},
		})
		return
	}

	req := c.Request
	req.Header.Del(middleware.UserIDHeader)
	if userID := c.GetString(middleware.UserIDKey); userID != "" {
		req.Header.Set(middleware.UserIDHeader, userID)
	}
	req.Header.Del(middleware.ServiceKeyHeader)
	if p.serviceKey != "" {
		req.Header.Set(middleware.ServiceKeyHeader, p.serviceKey)
	}
	if requestID := middleware.RequestID(c); requestID != "" {
		req.Header.Set(middleware.RequestIDHeader, requestID)
	}

	route.proxy.ServeHTTP(c.Writer, req)
}

func (p *Proxy) match(path string) (proxyRoute, bool) {
	for _, r := range p.routes {
		if path == r.prefix || strings.HasPrefix(path, r.prefix+"/") {
			return r, true
		}
	}
	return proxyRoute{}, false
}

func upstreamError(prefix string) func(http.ResponseWriter, *http.Request, error) {
	return func(w http.ResponseWriter, r *http.Request, err error) {
		logger.Named("gateway").Warnw("upstream request failed",
			"prefix", prefix,
			"path", r.URL.Path,
			"error", err.Error(),
		)
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(apperrors.ErrUpstream.StatusCode)
		_, _ = fmt.Fprintf(w, `{"error":{"code":%q,"message":%q}}`,
			apperrors.ErrUpstream.Code, apperrors.ErrUpstream.Message)
	}
}
