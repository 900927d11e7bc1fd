// Package config loads application configuration from environment variables,
// an optional .env file, and an optional YAML file describing the remote sync
// endpoints.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Addr         string
	DatabaseURL  string
	LocalDBPath  string
	SessionToken string
	Sync         SyncConfig
}

// SyncConfig describes the remote endpoints mirrored changes are pushed to.
// Each mode maps to a base URL; an empty map disables synchronisation.
type SyncConfig struct {
	Endpoints      map[string]string `yaml:"endpoints"`
	TimeoutSeconds int               `yaml:"timeout_seconds"`
}

// Timeout returns the push deadline, defaulting to 10 seconds.
func (s SyncConfig) Timeout() time.Duration {
	if s.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present. When SYNC_CONFIG names a YAML file
// the sync endpoint map is read from it.
func Load(envPath ...string) (*Config, error) {
	if len(envPath) > 0 && envPath[0] != "" {
		if err := godotenv.Load(envPath[0]); err != nil {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
	} else {
		_ = godotenv.Load()
	}

	cfg := &Config{
		Addr:         getEnvOrDefault("ADDR", ":8080"),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		LocalDBPath:  getEnvOrDefault("LOCAL_DB_PATH", "defter.db"),
		SessionToken: os.Getenv("SESSION_TOKEN"),
	}

	if path := os.Getenv("SYNC_CONFIG"); path != "" {
		sync, err := loadSyncConfig(path)
		if err != nil {
			return nil, fmt.Errorf("invalid SYNC_CONFIG: %w", err)
		}
		cfg.Sync = sync
	}

	return cfg, nil
}

func loadSyncConfig(path string) (SyncConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return SyncConfig{}, err
	}
	var sync SyncConfig
	if err := yaml.Unmarshal(raw, &sync); err != nil {
		return SyncConfig{}, err
	}
	return sync, nil
}

// getEnvOrDefault returns the value of the environment variable or a default
// value if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
