package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	flag "github.com/spf13/pflag"

	"github.com/tobiasceruttigothe/MyFinances/internal/config"
	"github.com/tobiasceruttigothe/MyFinances/internal/database"
	"github.com/tobiasceruttigothe/MyFinances/internal/logger"
)

func main() {
	logger.Init(os.Getenv("ENV"), "migrate")
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Migration error: %v", err)
	}
}

func run() error {
	service := flag.StringP("service", "s", "account", "service whose database to migrate (account, investment, user)")
	path := flag.StringP("path", "p", "", "migrations directory (default migrations/<service>)")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: migrate [flags] <up|down|version|force> [N]\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		return fmt.Errorf("missing command")
	}

	switch *service {
	case "account", "investment", "user":
	default:
		return fmt.Errorf("unknown service: %s", *service)
	}

	cfg, err := config.Load(*service)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if *path != "" {
		cfg.MigrationsPath = *path
	}

	m, err := database.NewMigrator(database.NewConfig(cfg))
	if err != nil {
		return err
	}
	defer database.CloseMigrator(m)

	log := logger.Get().With("service", *service)

	switch command := flag.Arg(0); command {
	case "up":
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("migration up failed: %w", err)
		}
		log.Info("Migrations applied successfully")

	case "down":
		steps := 1
		if flag.NArg() > 1 {
			steps, err = strconv.Atoi(flag.Arg(1))
			if err != nil {
				return fmt.Errorf("invalid step count: %w", err)
			}
		}
		if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("migration down failed: %w", err)
		}
		log.Infof("Rolled back %d migration(s)", steps)

	case "version":
		version, dirty, err := m.Version()
		if err != nil {
			return fmt.Errorf("failed to get version: %w", err)
		}
		log.Infof("Version: %d, Dirty: %v", version, dirty)

	case "force":
		if flag.NArg() < 2 {
			return fmt.Errorf("force requires a version")
		}
		version, err := strconv.Atoi(flag.Arg(1))
		if err != nil {
			return fmt.Errorf("invalid version: %w", err)
		}
		if err := m.Force(version); err != nil {
			return fmt.Errorf("force failed: %w", err)
		}
		log.Infof("Forced version %d", version)

	default:
		return fmt.Errorf("unknown command: %s (use up, down, version, or force)", command)
	}

	return nil
}
