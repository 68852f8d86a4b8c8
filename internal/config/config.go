package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"
)

type Config struct {
	// Environment
	Environment string

	// Database
	DatabaseURL      string
	PostgresDB       string
	PostgresUser     string
	PostgresPassword string
	PostgresHost     string
	PostgresPort     string

	// Redis
	RedisURL      string
	RedisPassword string

	// Server
	Port string

	// Authentication
	JWTSecret string

	// Game
	TurnTimeout   time.Duration
	TableCacheTTL time.Duration

	// Formance
	FormanceAPIURL     string
	FormanceAPIKey     string
	FormanceLedgerName string
	FormanceCurrency   string
	LedgerSyncInterval time.Duration
}

func Load() *Config {
	return &Config{
		// Environment
		Environment: getEnvOrDefault("ENVIRONMENT", "development"),

		// Database
		DatabaseURL:      getEnvOrDefault("DATABASE_URL", ""),
		PostgresDB:       getEnvOrDefault("POSTGRES_DB", "teenpatti"),
		PostgresUser:     getEnvOrDefault("POSTGRES_USER", "teenpatti"),
		PostgresPassword: getEnvOrDefault("POSTGRES_PASSWORD", "teenpatti"),
		PostgresHost:     getEnvOrDefault("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnvOrDefault("POSTGRES_PORT", "5432"),

		// Redis
		RedisURL:      getEnvOrDefault("REDIS_URL", ""),
		RedisPassword: getEnvOrDefault("REDIS_PASSWORD", ""),

		// Server
		Port: getEnvOrDefault("PORT", "8080"),

		// Authentication
		JWTSecret: getEnvOrDefault("JWT_SECRET", "teenpatti-secret-key-change-in-production"),

		// Game
		TurnTimeout:   getDurationOrDefault("TURN_TIMEOUT", 30*time.Second),
		TableCacheTTL: getDurationOrDefault("TABLE_CACHE_TTL", 10*time.Second),

		// Formance; an empty URL disables the ledger mirror
		FormanceAPIURL:     getEnvOrDefault("FORMANCE_API_URL", ""),
		FormanceAPIKey:     getEnvOrDefault("FORMANCE_API_KEY", ""),
		FormanceLedgerName: getEnvOrDefault("FORMANCE_LEDGER_NAME", "teenpatti"),
		FormanceCurrency:   getEnvOrDefault("FORMANCE_CURRENCY", "CHIP"),
		LedgerSyncInterval: getDurationOrDefault("LEDGER_SYNC_INTERVAL", 15*time.Second),
	}
}

func (c *Config) GetDatabaseURL() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.PostgresUser,
		c.PostgresPassword,
		c.PostgresHost,
		c.PostgresPort,
		c.PostgresDB,
	)
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		slog.Warn("Invalid duration in environment, using default", "key", key, "value", value, "default", defaultValue)
		return defaultValue
	}
	return d
}
