// Package config handles application configuration loading from environment
// variables. It provides a centralized Config struct used by the CLI.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration values loaded from the environment.
type Config struct {
	Env string // "development", "production", "testing"

	// PostgreSQL connection
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Valkey (Redis-compatible cache)
	ValkeyHost     string
	ValkeyPort     string
	ValkeyPassword string
	ValkeyDB       int

	// Category read cache
	CacheEnabled bool
	CacheTTL     time.Duration
}

// Load reads configuration from environment variables, applying defaults
// for development where appropriate. Returns an error if critical values
// are missing in production mode or a value cannot be parsed.
func Load() (*Config, error) {
	cfg := &Config{
		Env: envOrDefault("APP_ENV", "development"),

		DBHost:     envOrDefault("POSTGRES_HOST", "localhost"),
		DBPort:     envOrDefault("POSTGRES_PORT", "5432"),
		DBUser:     envOrDefault("POSTGRES_USER", "taxonomy"),
		DBPassword: envOrDefault("POSTGRES_PASSWORD", "changeme"),
		DBName:     envOrDefault("POSTGRES_DB", "taxonomy"),

		ValkeyHost:     envOrDefault("VALKEY_HOST", "localhost"),
		ValkeyPort:     envOrDefault("VALKEY_PORT", "6379"),
		ValkeyPassword: os.Getenv("VALKEY_PASSWORD"),
	}

	var err error
	if cfg.ValkeyDB, err = strconv.Atoi(envOrDefault("VALKEY_DB", "0")); err != nil {
		return nil, fmt.Errorf("parse VALKEY_DB: %w", err)
	}
	if cfg.CacheEnabled, err = strconv.ParseBool(envOrDefault("CATEGORY_CACHE_ENABLED", "false")); err != nil {
		return nil, fmt.Errorf("parse CATEGORY_CACHE_ENABLED: %w", err)
	}
	if cfg.CacheTTL, err = time.ParseDuration(envOrDefault("CATEGORY_CACHE_TTL", "5m")); err != nil {
		return nil, fmt.Errorf("parse CATEGORY_CACHE_TTL: %w", err)
	}
	if cfg.CacheTTL <= 0 {
		return nil, fmt.Errorf("CATEGORY_CACHE_TTL must be positive, got %s", cfg.CacheTTL)
	}

	if cfg.Env == "production" {
		if cfg.DBPassword == "changeme" {
			return nil, fmt.Errorf("POSTGRES_PASSWORD must be set in production")
		}
	}

	return cfg, nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName,
	)
}

// IsDev returns true if the application is running in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// envOrDefault reads an environment variable, returning a fallback if unset or empty.
func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
