package config

import (
	"os"
	"time"
)

// Config holds runtime configuration parsed from environment variables.
type Config struct {
	Port         string
	DatabasePath string

	HostingURL    string
	HostingAPIKey string

	RegistrarURL    string
	RegistrarAPIKey string

	AccountingURL   string
	AccountingToken string

	ShutdownTimeout time.Duration
}

// FromEnv builds Config with defaults, overridden by environment variables.
func FromEnv() Config {
	return Config{
		Port:         envOrDefault("PORT", "8080"),
		DatabasePath: envOrDefault("DATABASE_PATH", "orderdesk.db"),

		HostingURL:    envOrDefault("HOSTING_API_URL", "https://panel.example.com"),
		HostingAPIKey: envOrDefault("HOSTING_API_KEY", ""),

		RegistrarURL:    envOrDefault("REGISTRAR_API_URL", "https://api.registrar.example.com"),
		RegistrarAPIKey: envOrDefault("REGISTRAR_API_KEY", ""),

		AccountingURL:   envOrDefault("ACCOUNTING_API_URL", "https://accounting.example.com/api/v2"),
		AccountingToken: envOrDefault("ACCOUNTING_API_TOKEN", ""),

		ShutdownTimeout: 10 * time.Second,
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
