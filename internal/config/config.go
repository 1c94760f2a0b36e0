package config

import (
	"time"

	"github.com/rickgao/rit-data/internal/auth"
)

// ScraperConfig is the root configuration for a scraper instance.
type ScraperConfig struct {
	Mode     string           `yaml:"mode"` // "client", "dma", or empty for auto
	Creds    auth.Credentials `yaml:"creds"`
	API      APIConfig        `yaml:"api"`
	Output   OutputConfig     `yaml:"output"`
	Poll     PollConfig       `yaml:"poll"`
	Books    BooksConfig      `yaml:"books"`
	News     NewsConfig       `yaml:"news"`
	Tenders  EndpointConfig   `yaml:"tenders"`
	Leases   EndpointConfig   `yaml:"leases"`
	Database DatabaseConfig   `yaml:"database"`
	Metrics  MetricsConfig    `yaml:"metrics"`
}

// APIConfig holds RIT REST API settings.
type APIConfig struct {
	BaseURL    string        `yaml:"base_url"` // overrides URL resolution from creds
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"` // extra attempts after a 429
	RetryWait  time.Duration `yaml:"retry_wait"`  // fallback backoff when the server gives none
}

// OutputConfig holds the JSONL output location.
type OutputConfig struct {
	Dir string `yaml:"dir"`
}

// PollConfig holds poll loop settings.
type PollConfig struct {
	Interval time.Duration `yaml:"interval"`
	Once     bool          `yaml:"once"`
}

// BooksConfig holds order book polling settings.
type BooksConfig struct {
	Skip    bool          `yaml:"skip"`
	Limit   int           `yaml:"limit"`   // depth per side
	Tickers string        `yaml:"tickers"` // comma-separated subset; empty = all
	Max     int           `yaml:"max"`     // cap on tickers per cycle; 0 = unlimited
	Delay   time.Duration `yaml:"delay"`   // pacing between book requests
}

// NewsConfig holds news polling settings.
type NewsConfig struct {
	Skip  bool `yaml:"skip"`
	Limit int  `yaml:"limit"`
}

// EndpointConfig toggles an optional endpoint (tenders, leases).
type EndpointConfig struct {
	Skip bool `yaml:"skip"`
}

// DatabaseConfig holds the optional Postgres mirror of snapshots and case events.
type DatabaseConfig struct {
	Enabled  bool     `yaml:"enabled"`
	Postgres DBConfig `yaml:"postgres"`
}

// DBConfig holds a single database connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// MetricsConfig holds Prometheus metrics settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Port    int    `yaml:"port"`
	Path    string `yaml:"path"`
}
