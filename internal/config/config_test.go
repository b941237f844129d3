package config_test

import (
	"testing"
	"time"

	"github.com/hostfabriek/orderdesk/internal/config"
)

func TestFromEnv_Defaults(t *testing.T) {
	cfg := config.FromEnv()

	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.DatabasePath != "orderdesk.db" {
		t.Errorf("DatabasePath = %q, want orderdesk.db", cfg.DatabasePath)
	}
	if cfg.ShutdownTimeout != 10*time.Second {
		t.Errorf("ShutdownTimeout = %v, want 10s", cfg.ShutdownTimeout)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DATABASE_PATH", "/var/lib/orderdesk/orders.db")
	t.Setenv("HOSTING_API_KEY", "key-123")
	t.Setenv("ACCOUNTING_API_TOKEN", "tok-456")

	cfg := config.FromEnv()

	if cfg.Port != "9090" {
		t.Errorf("Port = %q, want 9090", cfg.Port)
	}
	if cfg.DatabasePath != "/var/lib/orderdesk/orders.db" {
		t.Errorf("DatabasePath = %q", cfg.DatabasePath)
	}
	if cfg.HostingAPIKey != "key-123" {
		t.Errorf("HostingAPIKey = %q", cfg.HostingAPIKey)
	}
	if cfg.AccountingToken != "tok-456" {
		t.Errorf("AccountingToken = %q", cfg.AccountingToken)
	}
}
