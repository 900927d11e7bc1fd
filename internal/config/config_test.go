package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ADDR", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("LOCAL_DB_PATH", "")
	t.Setenv("SYNC_CONFIG", "")
	t.Setenv("SESSION_TOKEN", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":8080" {
		t.Errorf("addr = %q", cfg.Addr)
	}
	if cfg.LocalDBPath != "defter.db" {
		t.Errorf("local db path = %q", cfg.LocalDBPath)
	}
	if len(cfg.Sync.Endpoints) != 0 {
		t.Errorf("expected no sync endpoints, got %v", cfg.Sync.Endpoints)
	}
	if cfg.Sync.Timeout() != 10*time.Second {
		t.Errorf("timeout = %v, want default 10s", cfg.Sync.Timeout())
	}
}

func TestLoadSyncConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sync.yaml")
	raw := []byte("endpoints:\n  accounting: http://accounting.local\n  store: http://store.local\ntimeout_seconds: 3\n")
	if err := os.WriteFile(path, raw, 0644); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	t.Setenv("SYNC_CONFIG", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Sync.Endpoints["accounting"] != "http://accounting.local" {
		t.Errorf("endpoints = %v", cfg.Sync.Endpoints)
	}
	if cfg.Sync.Timeout() != 3*time.Second {
		t.Errorf("timeout = %v, want 3s", cfg.Sync.Timeout())
	}
}

func TestLoadRejectsBadSyncConfig(t *testing.T) {
	t.Setenv("SYNC_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing sync config file")
	}
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("ADDR=:9090\n"), 0644); err != nil {
		t.Fatalf("write env: %v", err)
	}
	t.Setenv("SYNC_CONFIG", "")
	t.Setenv("ADDR", "")
	os.Unsetenv("ADDR") // godotenv only sets variables that are absent

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":9090" {
		t.Errorf("addr = %q, want :9090", cfg.Addr)
	}
}
