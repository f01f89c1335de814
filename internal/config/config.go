package config

import (
	"log/slog"
	"os"
	"time"
)

type Config struct {
	Port           string
	Env            string
	CatalogBaseURL string
	DatabaseDSN    string
	AuthBaseURL    string
	JWTSecret      string
	SessionExpiry  time.Duration
	CacheTTL       time.Duration
}

func Load() Config {
	cfg := Config{
		Port:           getEnv("PORT", "8080"),
		Env:            getEnv("ENV", "development"),
		CatalogBaseURL: getEnv("CATALOG_BASE_URL", "https://dummyjson.com"),
		DatabaseDSN:    getEnv("DATABASE_DSN", "root:password@tcp(127.0.0.1:3306)/eventexplorer?parseTime=true"),
		AuthBaseURL:    getEnv("AUTH_BASE_URL", "http://127.0.0.1:9999/auth/v1"),
		JWTSecret:      getEnv("JWT_SECRET", "dev-secret-change-in-production"),
		SessionExpiry:  24 * time.Hour,
		CacheTTL:       getDuration("CACHE_TTL", 60*time.Second),
	}

	if cfg.Env == "production" && cfg.JWTSecret == "dev-secret-change-in-production" {
		slog.Error("JWT_SECRET must be set in production environment")
		os.Exit(1)
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		slog.Warn("invalid duration, using fallback", "key", key, "value", v)
	}
	return fallback
}
