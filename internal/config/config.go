package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the configuration shared by every MyFinances binary. Each
// service reads only the fields it needs.
type Config struct {
	Env string

	// Server
	Port string

	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// MigrationsPath is the directory holding this service's SQL migrations.
	MigrationsPath string

	// ServiceKey, when set, must be presented by callers in X-Service-Key.
	ServiceKey string

	// Upstream service base URLs
	AccountServiceURL    string
	InvestmentServiceURL string
	UserServiceURL       string

	// Remote call protection
	RemoteTimeout      time.Duration
	BreakerMaxFailures uint32
	BreakerOpenTimeout time.Duration
	SettingsCacheTTL   time.Duration
	InvestmentCategory string

	// JWT
	JWTSecret         string
	JWTPublicKeyFile  string
	JWTAccessExpires  time.Duration
	JWTRefreshExpires time.Duration

	// Identity provider: "local" or "keycloak"
	IdentityProvider      string
	KeycloakURL           string
	KeycloakRealm         string
	KeycloakClientID      string
	KeycloakClientSecret  string
	KeycloakAdminUser     string
	KeycloakAdminPassword string

	// Gateway
	RateLimitPerSecond float64
	RateLimitBurst     int
}

var appConfig *Config

// Load loads configuration from environment variables. The service name
// selects per-service defaults for the port, database and migrations.
func Load(service string) (*Config, error) {
	// Load .env file if not already loaded
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	defaults := serviceDefaults(service)

	config := &Config{
		Env: getEnv("ENV", "development"),

		// Server
		Port: getEnv("PORT", defaults.port),

		// Database
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "myfinances"),
		DBPassword: getEnv("DB_PASSWORD", "myfinances"),
		DBName:     getEnv("DB_NAME", defaults.dbName),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		MigrationsPath: getEnv("MIGRATIONS_PATH", "migrations/"+service),
		ServiceKey:     getEnv("SERVICE_KEY", ""),

		AccountServiceURL:    strings.TrimRight(getEnv("ACCOUNT_SERVICE_URL", "http://localhost:8081"), "/"),
		InvestmentServiceURL: strings.TrimRight(getEnv("INVESTMENT_SERVICE_URL", "http://localhost:8083"), "/"),
		UserServiceURL:       strings.TrimRight(getEnv("USER_SERVICE_URL", "http://localhost:8084"), "/"),

		RemoteTimeout:      getDuration("REMOTE_TIMEOUT", 3*time.Second),
		BreakerMaxFailures: uint32(getInt("BREAKER_MAX_FAILURES", 5)),
		BreakerOpenTimeout: getDuration("BREAKER_OPEN_TIMEOUT", 30*time.Second),
		SettingsCacheTTL:   getDuration("SETTINGS_CACHE_TTL", time.Minute),
		InvestmentCategory: getEnv("INVESTMENT_CATEGORY_NAME", "Inversiones"),

		// JWT
		JWTSecret:         getEnv("JWT_SECRET", "fallback-secret-key-for-dev-only"),
		JWTPublicKeyFile:  getEnv("JWT_PUBLIC_KEY_FILE", ""),
		JWTAccessExpires:  getDuration("JWT_EXPIRES_IN", 15*time.Minute),
		JWTRefreshExpires: getDuration("JWT_REFRESH_EXPIRES_IN", 7*24*time.Hour),

		IdentityProvider:      getEnv("IDENTITY_PROVIDER", "local"),
		KeycloakURL:           strings.TrimRight(getEnv("KEYCLOAK_URL", "http://localhost:8180"), "/"),
		KeycloakRealm:         getEnv("KEYCLOAK_REALM", "myfinances"),
		KeycloakClientID:      getEnv("KEYCLOAK_CLIENT_ID", "myfinances-app"),
		KeycloakClientSecret:  getEnv("KEYCLOAK_CLIENT_SECRET", ""),
		KeycloakAdminUser:     getEnv("KEYCLOAK_ADMIN_USER", "admin"),
		KeycloakAdminPassword: getEnv("KEYCLOAK_ADMIN_PASSWORD", "admin"),

		RateLimitPerSecond: getFloat("RATE_LIMIT_RPS", 10),
		RateLimitBurst:     getInt("RATE_LIMIT_BURST", 30),
	}

	appConfig = config
	return config, nil
}

// Get returns the application configuration
func Get() *Config {
	if appConfig == nil {
		var err error
		appConfig, err = Load("")
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	}
	return appConfig
}

type defaultsFor struct {
	port   string
	dbName string
}

func serviceDefaults(service string) defaultsFor {
	switch service {
	case "account":
		return defaultsFor{port: "8081", dbName: "myfinances_accounts"}
	case "investment":
		return defaultsFor{port: "8083", dbName: "myfinances_investments"}
	case "user":
		return defaultsFor{port: "8084", dbName: "myfinances_users"}
	default:
		return defaultsFor{port: "8080", dbName: "myfinances"}
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("Warning: invalid %s value '%s', falling back to %s\n", key, raw, defaultValue)
		return defaultValue
	}
	return d
}

func getInt(key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		log.Printf("Warning: invalid %s value '%s', falling back to %d\n", key, raw, defaultValue)
		return defaultValue
	}
	return n
}

func getFloat(key string, defaultValue float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f <= 0 {
		log.Printf("Warning: invalid %s value '%s', falling back to %g\n", key, raw, defaultValue)
		return defaultValue
	}
	return f
}
