// Package server holds the bootstrap shared by the MyFinances service
// binaries: database startup, the base gin engine and graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/tobiasceruttigothe/MyFinances/internal/client"
	"github.com/tobiasceruttigothe/MyFinances/internal/config"
	"github.com/tobiasceruttigothe/MyFinances/internal/database"
	"github.com/tobiasceruttigothe/MyFinances/internal/handlers"
	"github.com/tobiasceruttigothe/MyFinances/internal/logger"
	"github.com/tobiasceruttigothe/MyFinances/internal/middleware"
	"github.com/tobiasceruttigothe/MyFinances/internal/validator"

	_ "github.com/tobiasceruttigothe/MyFinances/internal/docs" // Import swagger docs
)

const shutdownTimeout = 10 * time.Second

// OpenDatabase connects to the service database and applies pending
// migrations.
func OpenDatabase(cfg *config.Config) (*database.Manager, error) {
	dbManager, err := database.NewManager(database.NewConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to create database manager: %w", err)
	}
	if err := dbManager.RunMigrations(); err != nil {
		_ = dbManager.Close()
		return nil, fmt.Errorf("failed to run database migrations: %w", err)
	}
	return dbManager, nil
}

// NewEngine returns a gin engine with the middleware every service shares,
// plus the health and swagger routes.
func NewEngine(service string) *gin.Engine {
	validator.Register()

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.CORS())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/api/health", handlers.Health(service))
	return router
}

// Internal returns the middleware guarding routes that only the gateway or a
// peer service may call.
func Internal(cfg *config.Config) []gin.HandlerFunc {
	if cfg.ServiceKey == "" {
		logger.Get().Warn("SERVICE_KEY is not set; trusting X-User-Id from any caller")
		return nil
	}
	return []gin.HandlerFunc{middleware.ServiceKeyAuth(cfg.ServiceKey)}
}

// Authenticated returns the middleware for routes acting on behalf of the
// user named in X-User-Id.
func Authenticated(cfg *config.Config) []gin.HandlerFunc {
	return append(Internal(cfg), middleware.UserIdentity())
}

// Breaker builds the breaker guarding calls to the named remote service.
func Breaker(cfg *config.Config, name string) *client.Breaker {
	return client.NewBreaker(name, client.BreakerSettings{
		MaxFailures: cfg.BreakerMaxFailures,
		OpenTimeout: cfg.BreakerOpenTimeout,
		CallTimeout: cfg.RemoteTimeout,
	})
}

// HTTPClient returns the client used for service-to-service calls.
func HTTPClient(cfg *config.Config) *http.Client {
	return &http.Client{Timeout: cfg.RemoteTimeout + time.Second}
}

// Run serves handler on port until SIGINT or SIGTERM, then drains in-flight
// requests.
func Run(handler http.Handler, port string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Get().Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
