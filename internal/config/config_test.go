package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("Expected default server port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Database.MaxOpenConns != 25 {
		t.Errorf("Expected default max open conns 25, got %d", cfg.Database.MaxOpenConns)
	}
	if cfg.JWT.Expiration != 24*time.Hour {
		t.Errorf("Expected default JWT expiration 24h, got %v", cfg.JWT.Expiration)
	}
	if cfg.Log.Format != "json" {
		t.Errorf("Expected default log format json, got %s", cfg.Log.Format)
	}
	if !cfg.RateLimit.Enabled || cfg.RateLimit.Requests != 100 {
		t.Errorf("Unexpected rate limit defaults: enabled=%v requests=%d", cfg.RateLimit.Enabled, cfg.RateLimit.Requests)
	}
	if cfg.Vault.TransitMount != "transit" || cfg.Vault.KeyName != "application-remarks" {
		t.Errorf("Unexpected vault defaults: mount=%s key=%s", cfg.Vault.TransitMount, cfg.Vault.KeyName)
	}
	if cfg.Scheduler.DeadlineSweepInterval != 1*time.Hour {
		t.Errorf("Expected default deadline sweep interval 1h, got %v", cfg.Scheduler.DeadlineSweepInterval)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DB_MAX_OPEN_CONNS", "50")
	t.Setenv("RATE_LIMIT_ENABLED", "false")
	t.Setenv("JWT_EXPIRATION", "1h")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("Expected server port 9090, got %s", cfg.Server.Port)
	}
	if cfg.Database.MaxOpenConns != 50 {
		t.Errorf("Expected max open conns 50, got %d", cfg.Database.MaxOpenConns)
	}
	if cfg.RateLimit.Enabled {
		t.Error("Expected rate limiting disabled")
	}
	if cfg.JWT.Expiration != time.Hour {
		t.Errorf("Expected JWT expiration 1h, got %v", cfg.JWT.Expiration)
	}
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	if _, err := Load(); err == nil {
		t.Error("Expected error when JWT_SECRET is missing")
	}
}

func TestValidateProductionRules(t *testing.T) {
	cfg := &Config{}
	cfg.JWT.Secret = "secret"
	cfg.App.Env = "production"

	if err := cfg.Validate(); err == nil {
		t.Error("Expected error for missing DB password in production")
	}

	cfg.Database.Password = "password"
	cfg.Vault.Enabled = true
	if err := cfg.Validate(); err == nil {
		t.Error("Expected error for missing Vault token in production")
	}

	cfg.Vault.Token = "token"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected valid production config, got %v", err)
	}
}
