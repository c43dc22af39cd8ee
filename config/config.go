// ABOUTME: Environment-driven configuration loaded from .env and process env
// ABOUTME: Validates API credentials and resolves the default database path
package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config is the root application configuration.
type Config struct {
	Lemlist LemlistConfig `yaml:"lemlist"`
	HubSpot HubSpotConfig `yaml:"hubspot"`
	Sync    SyncConfig    `yaml:"sync"`
	Log     LogConfig     `yaml:"log"`

	// DBPath is the SQLite database file. Empty means the XDG data
	// directory default.
	DBPath string `yaml:"db_path" env:"LEMSYNC_DB_PATH"`
}

// LemlistConfig holds outreach-platform API settings.
type LemlistConfig struct {
	APIKey    string        `yaml:"api_key"    env:"LEMLIST_API_KEY"`
	BaseURL   string        `yaml:"base_url"   env:"LEMLIST_BASE_URL"    env-default:"https://api.lemlist.com/api"`
	PageLimit int           `yaml:"page_limit" env:"LEMLIST_PAGE_LIMIT"  env-default:"100"`
	PageDelay time.Duration `yaml:"page_delay" env:"LEMLIST_PAGE_DELAY"  env-default:"100ms"`
}

// HubSpotConfig holds CRM API settings.
type HubSpotConfig struct {
	APIToken   string        `yaml:"api_token"   env:"HUBSPOT_API_TOKEN"`
	BaseURL    string        `yaml:"base_url"    env:"HUBSPOT_BASE_URL"    env-default:"https://api.hubapi.com"`
	BatchSize  int           `yaml:"batch_size"  env:"HUBSPOT_BATCH_SIZE"  env-default:"50"`
	BatchDelay time.Duration `yaml:"batch_delay" env:"HUBSPOT_BATCH_DELAY" env-default:"250ms"`
}

// SyncConfig holds sync-engine tunables.
type SyncConfig struct {
	EnrichmentCap int `yaml:"enrichment_cap" env:"SYNC_ENRICHMENT_CAP" env-default:"50"`
	MaxRetries    int `yaml:"max_retries"    env:"SYNC_MAX_RETRIES"    env-default:"3"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"text"`
}

// Load reads configuration from a .env file (when present) and the
// process environment. Credentials are not validated here; commands
// that need a particular API check for its key themselves.
func Load() (*Config, error) {
	// A missing .env file is fine, the process env still applies.
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(xdg.DataHome, "lemsync", "lemsync.db")
	}
	return &cfg, nil
}

// RequireLemlist returns an error when the outreach API key is unset.
func (c *Config) RequireLemlist() error {
	if c.Lemlist.APIKey == "" {
		return fmt.Errorf("LEMLIST_API_KEY is not set")
	}
	return nil
}

// RequireHubSpot returns an error when the CRM API token is unset.
func (c *Config) RequireHubSpot() error {
	if c.HubSpot.APIToken == "" {
		return fmt.Errorf("HUBSPOT_API_TOKEN is not set")
	}
	return nil
}
