package database

import (
	"fmt"
	"net/url"

	"github.com/tobiasceruttigothe/MyFinances/internal/config"
)

// Config holds database configuration
type Config struct {
	Host           string
	Port           string
	User           string
	Password       string
	DBName         string
	SSLMode        string
	MigrationsPath string
}

// NewConfig derives the database configuration from the service configuration.
func NewConfig(cfg *config.Config) *Config {
	return &Config{
		Host:           cfg.DBHost,
		Port:           cfg.DBPort,
		User:           cfg.DBUser,
		Password:       cfg.DBPassword,
		DBName:         cfg.DBName,
		SSLMode:        cfg.DBSSLMode,
		MigrationsPath: cfg.MigrationsPath,
	}
}

// DSN returns the PostgreSQL connection string
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// MigrateURL returns the postgres:// URL golang-migrate expects.
func (c *Config) MigrateURL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     c.Host + ":" + c.Port,
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=" + url.QueryEscape(c.SSLMode),
	}
	return u.String()
}

// SourceURL returns the file:// source URL for the migrations directory.
func (c *Config) SourceURL() string {
	return "file://" + c.MigrationsPath
}
