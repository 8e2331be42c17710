// Package config loads application configuration from environment variables.
// All variables use the APS_ prefix. A .env file in the working directory is
// read first when present; variables already set in the environment win.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Catalog sources.
const (
	CatalogYAML     = "yaml"
	CatalogPostgres = "postgres"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Catalog   CatalogConfig
	Database  DatabaseConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
	Log       LogConfig
	MatchMode string
	CORS      CORSConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int
	Host string
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// CatalogConfig selects where institutions and courses are read from.
type CatalogConfig struct {
	Source string // "yaml" or "postgres"
	Path   string
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL      string
	MaxConns int
	MinConns int
}

// CacheConfig holds Dragonfly/Redis connection settings. An empty URL
// disables rate limiting.
type CacheConfig struct {
	URL string
}

// RateLimitConfig holds per-client request limits.
type RateLimitConfig struct {
	PerMinute int
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string
	Format string
}

// CORSConfig holds the origins browsers may call the API from.
type CORSConfig struct {
	Origins []string
}

// Load reads configuration from environment variables with APS_ prefix.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port: envInt("APS_SERVER_PORT", 8080),
			Host: envStr("APS_SERVER_HOST", "0.0.0.0"),
		},
		Catalog: CatalogConfig{
			Source: envStr("APS_CATALOG_SOURCE", CatalogYAML),
			Path:   envStr("APS_CATALOG_PATH", "./data/catalog"),
		},
		Database: DatabaseConfig{
			URL:      envStr("APS_DATABASE_URL", ""),
			MaxConns: envInt("APS_DATABASE_MAX_CONNS", 10),
			MinConns: envInt("APS_DATABASE_MIN_CONNS", 2),
		},
		Cache: CacheConfig{
			URL: envStr("APS_CACHE_URL", ""),
		},
		RateLimit: RateLimitConfig{
			PerMinute: envInt("APS_RATE_LIMIT_PER_MINUTE", 120),
		},
		Log: LogConfig{
			Level:  envStr("APS_LOG_LEVEL", "info"),
			Format: envStr("APS_LOG_FORMAT", "json"),
		},
		MatchMode: envStr("APS_MATCH_MODE", "containment"),
		CORS: CORSConfig{
			Origins: envList("APS_CORS_ORIGINS", []string{"*"}),
		},
	}

	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	switch c.Catalog.Source {
	case CatalogYAML:
		if c.Catalog.Path == "" {
			return fmt.Errorf("APS_CATALOG_PATH is required for the yaml catalog")
		}
	case CatalogPostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("APS_DATABASE_URL is required for the postgres catalog")
		}
	default:
		return fmt.Errorf("APS_CATALOG_SOURCE must be 'yaml' or 'postgres', got %q", c.Catalog.Source)
	}

	if c.MatchMode != "containment" && c.MatchMode != "alias" {
		return fmt.Errorf("APS_MATCH_MODE must be 'containment' or 'alias', got %q", c.MatchMode)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("APS_SERVER_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Database.MinConns > c.Database.MaxConns {
		return fmt.Errorf("APS_DATABASE_MIN_CONNS (%d) exceeds APS_DATABASE_MAX_CONNS (%d)",
			c.Database.MinConns, c.Database.MaxConns)
	}

	return nil
}

// RateLimitEnabled reports whether requests should be rate limited.
func (c *Config) RateLimitEnabled() bool {
	return c.Cache.URL != "" && c.RateLimit.PerMinute > 0
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
