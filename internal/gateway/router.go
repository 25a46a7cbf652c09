package gateway

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/tobiasceruttigothe/MyFinances/internal/identity"
	"github.com/tobiasceruttigothe/MyFinances/internal/middleware"
)

// Options configures the gateway engine.
type Options struct {
	Verifier    *identity.TokenVerifier
	Routes      []Route
	ServiceKey  string
	PublicPaths []string
	// PeerOnlyPrefixes are answered with 404; nil means DefaultPeerOnlyPrefixes.
	PeerOnlyPrefixes []string
	Limiter          *rate.Limiter
	Transport        http.RoundTripper
}

// NewEngine assembles the gateway: logging, CORS, rate limiting,
// authentication and the proxy fallback.
func NewEngine(opts Options) (*gin.Engine, error) {
	proxy, err := NewProxy(opts.Routes, opts.ServiceKey, opts.Transport)
	if err != nil {
		return nil, err
	}
	publicPaths := opts.PublicPaths
	if publicPaths == nil {
		publicPaths = DefaultPublicPaths
	}
	peerOnly := opts.PeerOnlyPrefixes
	if peerOnly == nil {
		peerOnly = DefaultPeerOnlyPrefixes
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.CORS())
	if opts.Limiter != nil {
		router.Use(RateLimit(opts.Limiter))
	}

	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "gateway"})
	})

	router.NoRoute(BlockPeerOnly(peerOnly), Authenticate(opts.Verifier, publicPaths), proxy.Handle)
	return router, nil
}
