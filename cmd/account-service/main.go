package main

import (
	"fmt"
	"os"

	"github.com/tobiasceruttigothe/MyFinances/internal/config"
	"github.com/tobiasceruttigothe/MyFinances/internal/logger"
	"github.com/tobiasceruttigothe/MyFinances/internal/server"
	"github.com/tobiasceruttigothe/MyFinances/internal/services"
)

// @title           MyFinances Account Service
// @version         1.0
// @description     Categories, transactions, reports and the net worth summary.

// @host      localhost:8081
// @BasePath  /api/v1

func main() {
	logger.Init(os.Getenv("ENV"), "account-service")
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	cfg, err := config.Load("account")
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	dbManager, err := server.OpenDatabase(cfg)
	if err != nil {
		return err
	}
	defer dbManager.Close()
	db := dbManager.DB()

	seeded, err := services.SeedSystemTemplates(db)
	if err != nil {
		return fmt.Errorf("failed to seed system categories: %w", err)
	}
	if seeded > 0 {
		log.Infow("Seeded system categories", "count", seeded)
	}

	router := server.NewAccountEngine(cfg, db)

	log.Infof("Starting account service on port %s", cfg.Port)
	log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", cfg.Port)
	return server.Run(router, cfg.Port)
}
