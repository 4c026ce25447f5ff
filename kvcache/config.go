// ABOUTME: Configuration for the charm KV cache backend
// ABOUTME: Server host and auto-sync preferences stored next to the CRM config

package kvcache

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/caarlos0/env/v11"
)

const (
	// DefaultCharmHost is the self-hosted 2389 research server.
	DefaultCharmHost = "charm.2389.dev"

	// AppName names the charm KV database and the XDG data directory.
	AppName = "leadsync"

	// ConfigFileName is where we store local config.
	ConfigFileName = "charm-config.json"
)

// Config holds charm connection settings.
type Config struct {
	// Host is the charm server hostname (default: charm.2389.dev)
	Host string `json:"host,omitempty" env:"LEADSYNC_CHARM_HOST"`

	// AutoSync pushes to the server after every write.
	AutoSync bool `json:"auto_sync" env:"LEADSYNC_CHARM_AUTO_SYNC"`
}

func DefaultConfig() *Config {
	return &Config{
		Host:     DefaultCharmHost,
		AutoSync: true,
	}
}

func configPath() string {
	return filepath.Join(xdg.DataHome, AppName, ConfigFileName)
}

// LoadConfig loads config from disk, or returns defaults if not found. An
// unreadable file falls back to defaults; environment overrides apply last.
func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(configPath())
	switch {
	case err == nil:
		var onDisk Config
		if jsonErr := json.Unmarshal(data, &onDisk); jsonErr == nil {
			cfg = &onDisk
		}
	case !os.IsNotExist(err):
		return nil, err
	}

	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	if cfg.Host == "" {
		cfg.Host = DefaultCharmHost
	}

	return cfg, nil
}

// ConfigPath returns where Save writes the charm config.
func ConfigPath() string {
	return configPath()
}

// Save persists the config to disk.
func (c *Config) Save() error {
	path := configPath()
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}
