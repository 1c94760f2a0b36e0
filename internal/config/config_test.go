package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rickgao/rit-data/internal/auth"
)

func TestLoad(t *testing.T) {
	yaml := `
mode: dma
creds:
  username: trader1
  password: hunter2
  server_host: rit.example.edu
  dma_port: 10001
api:
  timeout: 30s
output:
  dir: /tmp/rit-out
poll:
  interval: 2s
books:
  tickers: CRZY,TAME
  delay: 250ms
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Mode != auth.ModeDMA {
		t.Errorf("Mode = %q, want %q", cfg.Mode, auth.ModeDMA)
	}
	if cfg.Creds.Username != "trader1" {
		t.Errorf("Creds.Username = %q, want %q", cfg.Creds.Username, "trader1")
	}
	if cfg.Creds.DMAPort != 10001 {
		t.Errorf("Creds.DMAPort = %d, want 10001", cfg.Creds.DMAPort)
	}
	if cfg.API.Timeout != 30*time.Second {
		t.Errorf("API.Timeout = %v, want 30s", cfg.API.Timeout)
	}
	if cfg.Output.Dir != "/tmp/rit-out" {
		t.Errorf("Output.Dir = %q, want %q", cfg.Output.Dir, "/tmp/rit-out")
	}
	if cfg.Poll.Interval != 2*time.Second {
		t.Errorf("Poll.Interval = %v, want 2s", cfg.Poll.Interval)
	}
	if cfg.Books.Tickers != "CRZY,TAME" {
		t.Errorf("Books.Tickers = %q", cfg.Books.Tickers)
	}
	if cfg.Books.Delay != 250*time.Millisecond {
		t.Errorf("Books.Delay = %v, want 250ms", cfg.Books.Delay)
	}
}

func TestLoadWithEnvSubstitution(t *testing.T) {
	t.Setenv("TEST_RIT_API_KEY", "secret123")

	yaml := `
mode: client
creds:
  api_key: ${TEST_RIT_API_KEY}
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Creds.APIKey != "secret123" {
		t.Errorf("Creds.APIKey = %q, want %q", cfg.Creds.APIKey, "secret123")
	}
}

func TestLoadWithDefaults(t *testing.T) {
	yaml := `
mode: client
creds:
  api_key: abc
`
	path := writeTempFile(t, yaml)

	cfg, err := LoadWithDefaults(path)
	if err != nil {
		t.Fatalf("LoadWithDefaults failed: %v", err)
	}

	// Check defaults were applied
	if cfg.API.Timeout != DefaultAPITimeout {
		t.Errorf("API.Timeout = %v, want default %v", cfg.API.Timeout, DefaultAPITimeout)
	}
	if cfg.API.MaxRetries != DefaultMaxRetries {
		t.Errorf("API.MaxRetries = %d, want default %d", cfg.API.MaxRetries, DefaultMaxRetries)
	}
	if cfg.API.RetryWait != DefaultRetryWait {
		t.Errorf("API.RetryWait = %v, want default %v", cfg.API.RetryWait, DefaultRetryWait)
	}
	if cfg.Output.Dir != DefaultOutputDir {
		t.Errorf("Output.Dir = %q, want default %q", cfg.Output.Dir, DefaultOutputDir)
	}
	if cfg.Poll.Interval != DefaultPollInterval {
		t.Errorf("Poll.Interval = %v, want default %v", cfg.Poll.Interval, DefaultPollInterval)
	}
	if cfg.Books.Limit != DefaultBookLimit {
		t.Errorf("Books.Limit = %d, want default %d", cfg.Books.Limit, DefaultBookLimit)
	}
	if cfg.News.Limit != DefaultNewsLimit {
		t.Errorf("News.Limit = %d, want default %d", cfg.News.Limit, DefaultNewsLimit)
	}
	if cfg.Metrics.Port != DefaultMetricsPort {
		t.Errorf("Metrics.Port = %d, want default %d", cfg.Metrics.Port, DefaultMetricsPort)
	}
}

func TestLoadWithDefaultsDatabase(t *testing.T) {
	yaml := `
database:
  enabled: true
  postgres:
    host: localhost
    name: rit
    user: rit
    password: pass
`
	path := writeTempFile(t, yaml)

	cfg, err := LoadWithDefaults(path)
	if err != nil {
		t.Fatalf("LoadWithDefaults failed: %v", err)
	}

	if cfg.Database.Postgres.Port != DefaultDBPort {
		t.Errorf("Database.Postgres.Port = %d, want default %d", cfg.Database.Postgres.Port, DefaultDBPort)
	}
	if cfg.Database.Postgres.SSLMode != DefaultDBSSLMode {
		t.Errorf("Database.Postgres.SSLMode = %q, want default %q", cfg.Database.Postgres.SSLMode, DefaultDBSSLMode)
	}
	if cfg.Database.Postgres.MaxConns != DefaultMaxConns {
		t.Errorf("Database.Postgres.MaxConns = %d, want default %d", cfg.Database.Postgres.MaxConns, DefaultMaxConns)
	}
}

func TestValidate(t *testing.T) {
	valid := func() ScraperConfig {
		return ScraperConfig{
			Poll:    PollConfig{Interval: time.Second},
			Books:   BooksConfig{Limit: 10},
			News:    NewsConfig{Limit: 20},
			Metrics: MetricsConfig{Port: 9090},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*ScraperConfig)
		wantErr string
	}{
		{
			name:    "valid config",
			mutate:  func(c *ScraperConfig) {},
			wantErr: "",
		},
		{
			name:    "bad mode",
			mutate:  func(c *ScraperConfig) { c.Mode = "admin" },
			wantErr: `mode must be "client" or "dma", got "admin"`,
		},
		{
			name:    "zero poll interval",
			mutate:  func(c *ScraperConfig) { c.Poll.Interval = 0 },
			wantErr: "poll.interval must be > 0",
		},
		{
			name:    "negative retries",
			mutate:  func(c *ScraperConfig) { c.API.MaxRetries = -1 },
			wantErr: "api.max_retries must be >= 0",
		},
		{
			name:    "zero book limit",
			mutate:  func(c *ScraperConfig) { c.Books.Limit = 0 },
			wantErr: "books.limit must be >= 1",
		},
		{
			name: "database enabled without host",
			mutate: func(c *ScraperConfig) {
				c.Database.Enabled = true
				c.Database.Postgres = DBConfig{Name: "db", User: "u", Password: "p", MaxConns: 5}
			},
			wantErr: "database.postgres.host is required",
		},
		{
			name: "min_conns exceeds max_conns",
			mutate: func(c *ScraperConfig) {
				c.Database.Enabled = true
				c.Database.Postgres = DBConfig{Host: "localhost", Name: "db", User: "u", Password: "p", MaxConns: 5, MinConns: 10}
			},
			wantErr: "database.postgres.min_conns (10) cannot exceed max_conns (5)",
		},
		{
			name:    "metrics port out of range",
			mutate:  func(c *ScraperConfig) { c.Metrics.Port = 70000 },
			wantErr: "metrics.port must be between 1 and 65535, got 70000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
			} else {
				if err == nil {
					t.Errorf("Validate() expected error containing %q, got nil", tt.wantErr)
				} else if err.Error() != tt.wantErr {
					t.Errorf("Validate() error = %q, want %q", err.Error(), tt.wantErr)
				}
			}
		})
	}
}

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}
