package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Port != 8080 {
		t.Errorf("port = %d, want 8080", cfg.Port)
	}
	if cfg.Store.Driver != "memory" {
		t.Errorf("driver = %q, want memory", cfg.Store.Driver)
	}
	if cfg.Auth.KeyPrefix != "lfk_" {
		t.Errorf("key prefix = %q, want lfk_", cfg.Auth.KeyPrefix)
	}
	if cfg.Auth.DefaultRateLimit != 1000 {
		t.Errorf("default rate limit = %d, want 1000", cfg.Auth.DefaultRateLimit)
	}
	if cfg.Demo.Username != "demo" {
		t.Errorf("demo username = %q, want demo", cfg.Demo.Username)
	}
	if cfg.Telemetry.Enabled {
		t.Error("telemetry should be disabled by default")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("LINKFORGE_PORT", "9090")
	t.Setenv("LINKFORGE_STORE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://example/db")
	t.Setenv("LINKFORGE_KEY_PREFIX", "test_")
	t.Setenv("OTEL_ENABLED", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.Port)
	}
	if cfg.Store.Driver != "postgres" {
		t.Errorf("driver = %q, want postgres", cfg.Store.Driver)
	}
	if cfg.Store.URL != "postgres://example/db" {
		t.Errorf("url = %q", cfg.Store.URL)
	}
	if cfg.Auth.KeyPrefix != "test_" {
		t.Errorf("key prefix = %q, want test_", cfg.Auth.KeyPrefix)
	}
	if !cfg.Telemetry.Enabled {
		t.Error("telemetry should be enabled")
	}
}

func TestLoad_InvalidIntFallsBack(t *testing.T) {
	t.Setenv("LINKFORGE_PORT", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != 8080 {
		t.Errorf("port = %d, want default 8080 on unparsable override", cfg.Port)
	}
}

func TestLoad_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gateway.yaml")
	data := []byte("port: 7070\nstore:\n  driver: postgres\n  cache_ttl_seconds: 5\nauth:\n  default_rate_limit: 50\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	t.Setenv("LINKFORGE_CONFIG_FILE", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Port != 7070 {
		t.Errorf("port = %d, want 7070", cfg.Port)
	}
	if cfg.Store.CacheTTLSeconds != 5 {
		t.Errorf("cache ttl = %d, want 5", cfg.Store.CacheTTLSeconds)
	}
	if cfg.Auth.DefaultRateLimit != 50 {
		t.Errorf("default rate limit = %d, want 50", cfg.Auth.DefaultRateLimit)
	}
	// Fields the file does not set keep their defaults.
	if cfg.Auth.KeyPrefix != "lfk_" {
		t.Errorf("key prefix = %q, want lfk_", cfg.Auth.KeyPrefix)
	}
}

func TestLoad_EnvWinsOverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gateway.yaml")
	if err := os.WriteFile(path, []byte("port: 7070\n"), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	t.Setenv("LINKFORGE_CONFIG_FILE", path)
	t.Setenv("LINKFORGE_PORT", "6060")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != 6060 {
		t.Errorf("port = %d, want env override 6060", cfg.Port)
	}
}

func TestLoad_MissingFileIsAnError(t *testing.T) {
	t.Setenv("LINKFORGE_CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))

	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
