// Package config handles loading and managing mailadm configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// ServerConfig holds connection settings for the mail-account backend.
type ServerConfig struct {
	URL            string `toml:"url"`             // Backend base URL (e.g., "https://mail.example.com")
	AllowInsecure  bool   `toml:"allow_insecure"`  // Permit plain http:// URLs
	TimeoutSeconds int    `toml:"timeout_seconds"` // Per-request timeout (default: 30)
}

// Config represents the mailadm configuration.
type Config struct {
	Server ServerConfig `toml:"server"`

	// Computed paths (not from config file)
	HomeDir string `toml:"-"`
}

// DefaultHome returns the default mailadm home directory.
// Respects MAILADM_HOME environment variable.
func DefaultHome() string {
	if h := os.Getenv("MAILADM_HOME"); h != "" {
		return h
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".mailadm"
	}
	return filepath.Join(home, ".mailadm")
}

// Load reads the configuration from the specified file.
// If path is empty, uses the default location (~/.mailadm/config.toml).
// If home is non-empty it overrides the home directory, like MAILADM_HOME.
func Load(path, home string) (*Config, error) {
	homeDir := home
	if homeDir == "" {
		homeDir = DefaultHome()
	}

	if path == "" {
		path = filepath.Join(homeDir, "config.toml")
	}

	cfg := &Config{
		HomeDir: homeDir,
		Server: ServerConfig{
			TimeoutSeconds: 30,
		},
	}

	// Config file is optional - use defaults if not present
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	cfg.HomeDir = expandPath(cfg.HomeDir)
	if cfg.Server.TimeoutSeconds <= 0 {
		cfg.Server.TimeoutSeconds = 30
	}

	return cfg, nil
}

// Timeout returns the per-request timeout as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Server.TimeoutSeconds) * time.Second
}

// EnsureHomeDir creates the home directory if it does not exist.
// Session state (credential, saved accounts) lives under it.
func (c *Config) EnsureHomeDir() error {
	return os.MkdirAll(c.HomeDir, 0o700)
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if path == "" {
		return path
	}
	if path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[1:])
	}
	return path
}
