package config

import (
	"log"
	"os"
	"strconv"
)

const (
	defaultAppEnv           = "dev"
	defaultDBPath           = "./dev.db"
	defaultPort             = "8080"
	defaultLogLevel         = "info"
	defaultCatalogCacheSize = 256
)

// Config holds application configuration sourced from environment variables.
type Config struct {
	AppEnv           string
	AdminEmail       string
	AdminPassword    string
	SessionSecret    string
	DBPath           string
	Port             string
	LogLevel         string
	CatalogCacheSize int
}

// IsDev reports whether the service runs in local development mode.
func (c Config) IsDev() bool {
	return c.AppEnv == defaultAppEnv
}

// Load reads environment variables and returns a populated Config.
func Load() Config {
	// Best-effort: production should use real env injection.
	if err := loadDotEnv(".env"); err != nil {
		log.Printf("warning: could not load .env: %v", err)
	}

	cfg := Config{
		AppEnv:           getEnv("APP_ENV", defaultAppEnv),
		AdminEmail:       os.Getenv("ADMIN_EMAIL"),
		AdminPassword:    os.Getenv("ADMIN_PASSWORD"),
		SessionSecret:    os.Getenv("SESSION_SECRET"),
		DBPath:           getEnv("DB_PATH", defaultDBPath),
		Port:             getEnv("PORT", defaultPort),
		LogLevel:         getEnv("LOG_LEVEL", defaultLogLevel),
		CatalogCacheSize: getEnvInt("CATALOG_CACHE_SIZE", defaultCatalogCacheSize),
	}

	if cfg.AdminEmail == "" {
		log.Print("warning: ADMIN_EMAIL is not set")
	}
	if cfg.AdminPassword == "" {
		log.Print("warning: ADMIN_PASSWORD is not set")
	}
	if cfg.SessionSecret == "" {
		log.Print("warning: SESSION_SECRET is not set")
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil && i > 0 {
			return i
		}
	}
	return fallback
}
