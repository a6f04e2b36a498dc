package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
app:
  name: "vestry-test"
database:
  path: "test.db"
remote:
  backend: "supabase"
  supabase:
    url: "${VESTRY_TEST_SUPABASE_URL}"
    api_key: "anon"
    table: "tasks"
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	os.Setenv("VESTRY_TEST_SUPABASE_URL", "https://example.supabase.co")
	defer os.Unsetenv("VESTRY_TEST_SUPABASE_URL")

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.App.Name != "vestry-test" {
		t.Errorf("expected app name vestry-test, got %s", cfg.App.Name)
	}
	if cfg.Remote.Backend != "supabase" {
		t.Errorf("expected supabase backend, got %s", cfg.Remote.Backend)
	}
	if cfg.Remote.Supabase.URL != "https://example.supabase.co" {
		t.Errorf("env expansion failed, got %s", cfg.Remote.Supabase.URL)
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name: "valid config",
			cfg: Config{
				Database: DatabaseConfig{Path: "data/app.db"},
			},
			wantErr: false,
		},
		{
			name:    "missing database path",
			cfg:     Config{},
			wantErr: true,
		},
		{
			name: "unknown remote backend",
			cfg: Config{
				Database: DatabaseConfig{Path: "data/app.db"},
				Remote:   RemoteConfig{Backend: "dropbox"},
			},
			wantErr: true,
		},
		{
			name: "auth enabled without keys",
			cfg: Config{
				Database: DatabaseConfig{Path: "data/app.db"},
				API: APIConfig{
					Enabled: true,
					Auth:    APIAuthConfig{Enabled: true},
				},
			},
			wantErr: true,
		},
		{
			name: "empty api key",
			cfg: Config{
				Database: DatabaseConfig{Path: "data/app.db"},
				API: APIConfig{
					Enabled: true,
					Auth: APIAuthConfig{
						Enabled: true,
						APIKeys: []APIClientKey{{Name: "broken", Key: ""}},
					},
				},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults()

	if cfg.App.Name != "vestry" {
		t.Errorf("expected default app name vestry, got %s", cfg.App.Name)
	}
	if cfg.API.Port != 8080 {
		t.Errorf("expected default api port 8080, got %d", cfg.API.Port)
	}
	if cfg.API.Auth.HeaderAPIKey != "x-api-key" {
		t.Errorf("expected default api key header x-api-key, got %s", cfg.API.Auth.HeaderAPIKey)
	}
	if cfg.Remote.Timeout != 15*time.Second {
		t.Errorf("expected default remote timeout 15s, got %s", cfg.Remote.Timeout)
	}
	if cfg.Sync.PollInterval != 30*time.Second {
		t.Errorf("expected default poll interval 30s, got %s", cfg.Sync.PollInterval)
	}
	if cfg.Exports.Path != "exports" {
		t.Errorf("expected default exports path, got %s", cfg.Exports.Path)
	}

	// Configured keys flip auth on even when the flag was left unset.
	cfg = &Config{API: APIConfig{
		Enabled: true,
		Auth:    APIAuthConfig{APIKeys: []APIClientKey{{Name: "ops", Key: "k"}}},
	}}
	cfg.applyDefaults()
	if !cfg.API.Auth.Enabled {
		t.Error("expected auth to default on when keys are configured")
	}
}
