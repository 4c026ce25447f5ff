// ABOUTME: Remote CRM connection configuration stored at XDG paths
// ABOUTME: JSON file first, then .env and LEADSYNC_* environment overrides
package crm

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	DefaultBaseURL       = "https://api.pipedrive.com"
	DefaultTimeout       = 30 * time.Second
	DefaultWarmLeadLabel = "Warm Lead"

	// Cache backends for remote id lookups.
	CacheBackendLocal  = "local"
	CacheBackendCharm  = "charm"
	CacheBackendMemory = "memory"
)

// Config stores remote CRM credentials and sync settings.
type Config struct {
	BaseURL       string        `json:"base_url" env:"LEADSYNC_CRM_BASE_URL"`
	APIToken      string        `json:"api_token,omitempty" env:"LEADSYNC_CRM_API_TOKEN"`
	AccessToken   string        `json:"access_token,omitempty" env:"LEADSYNC_CRM_ACCESS_TOKEN"`
	Timeout       time.Duration `json:"timeout,omitempty" env:"LEADSYNC_CRM_TIMEOUT"`
	WarmLeadLabel string        `json:"warm_lead_label,omitempty" env:"LEADSYNC_WARM_LEAD_LABEL"`
	CacheBackend  string        `json:"cache_backend,omitempty" env:"LEADSYNC_CACHE_BACKEND"`
}

// DefaultConfig returns a config with every optional field filled.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:       DefaultBaseURL,
		Timeout:       DefaultTimeout,
		WarmLeadLabel: DefaultWarmLeadLabel,
		CacheBackend:  CacheBackendLocal,
	}
}

// ConfigDir returns the XDG data directory for leadsync.
func ConfigDir() string {
	return filepath.Join(xdg.DataHome, "leadsync")
}

// ConfigPath returns the path of the CRM config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "crm-config.json")
}

// LoadConfig reads the config file (missing file means defaults), loads a
// .env file from the working directory if present and applies environment
// overrides:
// - LEADSYNC_CRM_BASE_URL
// - LEADSYNC_CRM_API_TOKEN
// - LEADSYNC_CRM_ACCESS_TOKEN
// - LEADSYNC_CRM_TIMEOUT
// - LEADSYNC_WARM_LEAD_LABEL
// - LEADSYNC_CACHE_BACKEND.
func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()

	f, err := os.Open(ConfigPath())
	switch {
	case err == nil:
		defer func() { _ = f.Close() }()
		if err := json.NewDecoder(f).Decode(cfg); err != nil {
			return nil, fmt.Errorf("failed to decode crm config: %w", err)
		}
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("failed to open crm config file: %w", err)
	}

	// Missing .env is the common case.
	_ = godotenv.Load()

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse crm environment: %w", err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.WarmLeadLabel == "" {
		c.WarmLeadLabel = DefaultWarmLeadLabel
	}
	if c.CacheBackend == "" {
		c.CacheBackend = CacheBackendLocal
	}
}

// SaveConfig writes the config with owner-only permissions.
func SaveConfig(cfg *Config) error {
	path := ConfigPath()

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create crm config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create crm config file: %w", err)
	}
	defer func() { _ = f.Close() }()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode crm config: %w", err)
	}

	return nil
}

// IsConfigured reports whether there is enough to reach the remote CRM.
func (c *Config) IsConfigured() bool {
	return c.BaseURL != "" && (c.APIToken != "" || c.AccessToken != "")
}
