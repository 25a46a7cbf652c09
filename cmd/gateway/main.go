package main

import (
	"fmt"
	"os"

	"golang.org/x/time/rate"

	"github.com/tobiasceruttigothe/MyFinances/internal/config"
	"github.com/tobiasceruttigothe/MyFinances/internal/gateway"
	"github.com/tobiasceruttigothe/MyFinances/internal/identity"
	"github.com/tobiasceruttigothe/MyFinances/internal/logger"
	"github.com/tobiasceruttigothe/MyFinances/internal/server"
)

func main() {
	logger.Init(os.Getenv("ENV"), "gateway")
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	cfg, err := config.Load("gateway")
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	verifier, err := newVerifier(cfg)
	if err != nil {
		return err
	}

	engine, err := gateway.NewEngine(gateway.Options{
		Verifier:   verifier,
		Routes:     gateway.DefaultRoutes(cfg.AccountServiceURL, cfg.InvestmentServiceURL, cfg.UserServiceURL),
		ServiceKey: cfg.ServiceKey,
		Limiter:    rate.NewLimiter(rate.Limit(cfg.RateLimitPerSecond), cfg.RateLimitBurst),
	})
	if err != nil {
		return fmt.Errorf("failed to build gateway: %w", err)
	}

	log.Infof("Starting gateway on port %s", cfg.Port)
	return server.Run(engine, cfg.Port)
}

// newVerifier prefers the RSA public key when one is configured, so tokens
// issued by Keycloak verify; otherwise the shared HMAC secret is used.
func newVerifier(cfg *config.Config) (*identity.TokenVerifier, error) {
	if cfg.JWTPublicKeyFile == "" {
		return identity.NewHMACVerifier([]byte(cfg.JWTSecret)), nil
	}
	pem, err := os.ReadFile(cfg.JWTPublicKeyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read JWT public key: %w", err)
	}
	verifier, err := identity.NewRSAVerifier(pem)
	if err != nil {
		return nil, fmt.Errorf("failed to parse JWT public key: %w", err)
	}
	return verifier, nil
}
