package main

import (
	"fmt"
	"os"

	"gorm.io/gorm"

	"github.com/tobiasceruttigothe/MyFinances/internal/config"
	"github.com/tobiasceruttigothe/MyFinances/internal/identity"
	"github.com/tobiasceruttigothe/MyFinances/internal/logger"
	"github.com/tobiasceruttigothe/MyFinances/internal/server"
)

// @title           MyFinances User Service
// @version         1.0
// @description     Registration, login, token refresh and user profiles.

// @host      localhost:8084
// @BasePath  /api/v1

func main() {
	logger.Init(os.Getenv("ENV"), "user-service")
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	cfg, err := config.Load("user")
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	dbManager, err := server.OpenDatabase(cfg)
	if err != nil {
		return err
	}
	defer dbManager.Close()
	db := dbManager.DB()

	provider, err := newProvider(cfg, db)
	if err != nil {
		return err
	}
	log.Infow("Identity provider selected", "provider", cfg.IdentityProvider)

	router := server.NewUserEngine(cfg, db, provider)

	log.Infof("Starting user service on port %s", cfg.Port)
	return server.Run(router, cfg.Port)
}

func newProvider(cfg *config.Config, db *gorm.DB) (identity.Provider, error) {
	switch cfg.IdentityProvider {
	case "local":
		return identity.NewLocalProvider(db, []byte(cfg.JWTSecret), cfg.JWTAccessExpires, cfg.JWTRefreshExpires), nil
	case "keycloak":
		return identity.NewKeycloakProvider(identity.KeycloakConfig{
			BaseURL:       cfg.KeycloakURL,
			Realm:         cfg.KeycloakRealm,
			ClientID:      cfg.KeycloakClientID,
			ClientSecret:  cfg.KeycloakClientSecret,
			AdminUser:     cfg.KeycloakAdminUser,
			AdminPassword: cfg.KeycloakAdminPassword,
		}, server.HTTPClient(cfg)), nil
	default:
		return nil, fmt.Errorf("unknown IDENTITY_PROVIDER %q (use local or keycloak)", cfg.IdentityProvider)
	}
}
