package main

import (
	"fmt"
	"os"

	"github.com/tobiasceruttigothe/MyFinances/internal/config"
	"github.com/tobiasceruttigothe/MyFinances/internal/logger"
	"github.com/tobiasceruttigothe/MyFinances/internal/server"
)

// @title           MyFinances Investment Service
// @version         1.0
// @description     Investments, the portfolio summary and the mirrored expenses.

// @host      localhost:8083
// @BasePath  /api/v1

func main() {
	logger.Init(os.Getenv("ENV"), "investment-service")
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	cfg, err := config.Load("investment")
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	dbManager, err := server.OpenDatabase(cfg)
	if err != nil {
		return err
	}
	defer dbManager.Close()

	router := server.NewInvestmentEngine(cfg, dbManager.DB())

	log.Infof("Starting investment service on port %s", cfg.Port)
	return server.Run(router, cfg.Port)
}
