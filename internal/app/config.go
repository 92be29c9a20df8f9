package app

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Driver string // Storage backend: "sqlite" (default) or "postgres"

	// sqlite
	DatabaseFile string // Path to the SQLite database file (default: ./taskorbit.db)
	TablePrefix  string // Optional table prefix isolating deployments sharing one file

	// postgres
	PGHost     string
	PGPort     int
	PGUser     string
	PGPassword string
	PGDatabase string
	PGSSLMode  string
	PGSchema   string // Optional schema isolating deployments sharing one server

	CookieSecret string        // Required: HMAC key for session cookies
	SessionTTL   time.Duration // Session lifetime (default: 24h)
	SecureCookie bool          // Set the Secure attribute (default: true outside dev)

	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
}

func LoadConfig() (Config, error) {
	cfg := Config{
		Driver:       getEnvOrDefault("TASKORBIT_DRIVER", "sqlite"),
		DatabaseFile: getEnvOrDefault("TASKORBIT_DATABASE_FILE", "taskorbit.db"),
		TablePrefix:  os.Getenv("TASKORBIT_TABLE_PREFIX"),

		PGHost:     getEnvOrDefault("TASKORBIT_PG_HOST", "localhost"),
		PGPort:     getEnvIntOrDefault("TASKORBIT_PG_PORT", 5432),
		PGUser:     os.Getenv("TASKORBIT_PG_USER"),
		PGPassword: os.Getenv("TASKORBIT_PG_PASSWORD"),
		PGDatabase: os.Getenv("TASKORBIT_PG_DATABASE"),
		PGSSLMode:  getEnvOrDefault("TASKORBIT_PG_SSLMODE", "disable"),
		PGSchema:   os.Getenv("TASKORBIT_PG_SCHEMA"),

		CookieSecret: os.Getenv("TASKORBIT_COOKIE_SECRET"),
		SessionTTL:   getEnvDurationOrDefault("TASKORBIT_SESSION_TTL", 24*time.Hour),

		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}

	cfg.SecureCookie = getEnvBoolOrDefault("TASKORBIT_SECURE_COOKIE", cfg.Env != "dev")

	if cfg.CookieSecret == "" {
		return Config{}, fmt.Errorf("TASKORBIT_COOKIE_SECRET is required")
	}
	switch cfg.Driver {
	case "sqlite":
	case "postgres":
		if cfg.PGDatabase == "" || cfg.PGUser == "" {
			return Config{}, fmt.Errorf("TASKORBIT_PG_DATABASE and TASKORBIT_PG_USER are required for the postgres driver")
		}
	default:
		return Config{}, fmt.Errorf("unknown driver %q (want sqlite or postgres)", cfg.Driver)
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
