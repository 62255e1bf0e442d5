package config

import (
	"fmt"
	"os"
)

type Config struct {
	DatabasePath string
	BaseURL      string
	Port         string
	LogLevel     string

	SessionSecret string

	OIDCIssuer       string
	OIDCClientID     string
	OIDCClientSecret string
	OIDCRedirectURL  string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string

	SyncSchedule string
}

func Load() (Config, error) {
	config := Config{
		DatabasePath: envOrDefault("DATABASE_PATH", "./data/fam-app.db"),
		BaseURL:      envOrDefault("BASE_URL", "http://localhost:8080"),
		Port:         envOrDefault("PORT", "8080"),
		LogLevel:     envOrDefault("LOG_LEVEL", "info"),

		SessionSecret: os.Getenv("SESSION_SECRET"),

		OIDCIssuer:       os.Getenv("OIDC_ISSUER"),
		OIDCClientID:     os.Getenv("OIDC_CLIENT_ID"),
		OIDCClientSecret: os.Getenv("OIDC_CLIENT_SECRET"),
		OIDCRedirectURL:  os.Getenv("OIDC_REDIRECT_URL"),

		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		GoogleRedirectURL:  os.Getenv("GOOGLE_REDIRECT_URL"),

		SyncSchedule: envOrDefault("SYNC_SCHEDULE", "*/30 * * * *"),
	}

	if config.SessionSecret == "" {
		return Config{}, fmt.Errorf("SESSION_SECRET is required")
	}

	return config, nil
}

func (c Config) GoogleConfigured() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != "" && c.GoogleRedirectURL != ""
}

func envOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
