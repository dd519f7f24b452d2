// Package config holds application configuration, loaded from GABI_*
// environment variables with flag overrides applied in main.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Storage backend names accepted by -storage.
const (
	StorageFile   = "file"
	StorageSQLite = "sqlite"
)

// Config holds application configuration.
type Config struct {
	Endpoint string `envconfig:"ENDPOINT" default:"http://localhost:7777"`

	// SessionID opens an existing session at startup instead of the
	// last active one.
	SessionID string `envconfig:"SESSION_ID"`
	Storage  string `envconfig:"STORAGE" default:"file"`
	DataDir  string `envconfig:"DATA_DIR"`
	LogDir   string `envconfig:"LOG_DIR"`
	Debug    bool   `envconfig:"DEBUG"`

	Timeout time.Duration `envconfig:"TIMEOUT" default:"5s"`

	// URLs of MCP tool servers (http:// or ws://)
	ToolServers []string `envconfig:"TOOL_SERVERS"`
}

// Load reads configuration from the environment and fills in derived
// defaults for the data and log directories.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("GABI", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}

	if cfg.Storage != StorageFile && cfg.Storage != StorageSQLite {
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage)
	}

	if cfg.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		cfg.DataDir = filepath.Join(home, ".gabi")
	}
	if cfg.LogDir == "" {
		cfg.LogDir = filepath.Join(cfg.DataDir, "logs")
	}

	return &cfg, nil
}
