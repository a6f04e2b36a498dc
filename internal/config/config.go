package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App      AppConfig      `yaml:"app"`
	Logging  LoggingConfig  `yaml:"logging"`
	Database DatabaseConfig `yaml:"database"`
	Backup   BackupConfig   `yaml:"backup"`
	Redis    RedisConfig    `yaml:"redis"`
	Remote   RemoteConfig   `yaml:"remote"`
	Identity IdentityConfig `yaml:"identity"`
	Sync     SyncConfig     `yaml:"sync"`
	API      APIConfig      `yaml:"api"`
	Exports  ExportConfig   `yaml:"exports"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Schedule      string `yaml:"schedule"`
	RetentionDays int    `yaml:"retention_days"`
	StoragePath   string `yaml:"storage_path"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

// RemoteConfig selects and configures the remote task backend. An empty
// Backend means sync is deliberately off.
type RemoteConfig struct {
	Backend    string           `yaml:"backend"` // "sharepoint", "supabase" or ""
	SharePoint SharePointConfig `yaml:"sharepoint"`
	Supabase   SupabaseConfig   `yaml:"supabase"`
	RPS        float64          `yaml:"rps"`
	Burst      int              `yaml:"burst"`
	Timeout    time.Duration    `yaml:"timeout"`
}

type SharePointConfig struct {
	SiteID string `yaml:"site_id"`
	ListID string `yaml:"list_id"`
}

type SupabaseConfig struct {
	URL    string `yaml:"url"`
	APIKey string `yaml:"api_key"`
	Table  string `yaml:"table"`
}

// IdentityConfig holds the Microsoft Entra application used for SharePoint
// access. All fields empty means "not signed in", which downgrades sync to a
// skip rather than an error.
type IdentityConfig struct {
	TenantID     string   `yaml:"tenant_id"`
	ClientID     string   `yaml:"client_id"`
	ClientSecret string   `yaml:"client_secret"`
	Scopes       []string `yaml:"scopes"`
}

type SyncConfig struct {
	ProbeURL     string        `yaml:"probe_url"`
	PollInterval time.Duration `yaml:"poll_interval"`
	AutoSync     bool          `yaml:"auto_sync"`
}

type APIConfig struct {
	Enabled   bool               `yaml:"enabled"`
	Port      int                `yaml:"port"`
	Auth      APIAuthConfig      `yaml:"auth"`
	RateLimit APIRateLimitConfig `yaml:"rate_limit"`
}

type APIAuthConfig struct {
	Enabled      bool           `yaml:"enabled"`
	HeaderAPIKey string         `yaml:"header_api_key"`
	APIKeys      []APIClientKey `yaml:"api_keys"`
}

type APIClientKey struct {
	Key         string   `yaml:"key"`
	Name        string   `yaml:"name"`
	Permissions []string `yaml:"permissions"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type ExportConfig struct {
	Path string `yaml:"path"`
}

func Load(configPath string) (*Config, error) {
	// .env is optional; ignore a missing file
	_ = godotenv.Load(".env")

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	// Environment variables referenced in the YAML are expanded before parsing
	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return errors.New("database path is required")
	}

	switch c.Remote.Backend {
	case "", "sharepoint", "supabase":
	default:
		return fmt.Errorf("unknown remote backend: %s", c.Remote.Backend)
	}

	if c.API.Enabled && c.API.Auth.Enabled && len(c.API.Auth.APIKeys) == 0 {
		return errors.New("api auth is enabled but no api keys are configured")
	}

	for _, k := range c.API.Auth.APIKeys {
		if k.Key == "" {
			return fmt.Errorf("api key for client %q is empty", k.Name)
		}
	}

	return nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "vestry"
	}
	if c.API.Port == 0 {
		c.API.Port = 8080
	}
	// auth enabled by default when API is enabled
	if c.API.Enabled && !c.API.Auth.Enabled && len(c.API.Auth.APIKeys) > 0 {
		c.API.Auth.Enabled = true
	}
	if c.API.Auth.HeaderAPIKey == "" {
		c.API.Auth.HeaderAPIKey = "x-api-key"
	}
	if c.API.RateLimit.RPS == 0 {
		c.API.RateLimit.RPS = 10
	}
	if c.API.RateLimit.Burst == 0 {
		c.API.RateLimit.Burst = 20
	}

	if c.Remote.Timeout == 0 {
		c.Remote.Timeout = 15 * time.Second
	}
	if c.Remote.RPS == 0 {
		c.Remote.RPS = 5
	}
	if c.Remote.Burst == 0 {
		c.Remote.Burst = 10
	}

	if c.Sync.PollInterval == 0 {
		c.Sync.PollInterval = 30 * time.Second
	}
	if c.Sync.ProbeURL == "" {
		c.Sync.ProbeURL = "https://login.microsoftonline.com"
	}

	if c.Exports.Path == "" {
		c.Exports.Path = "exports"
	}
}
