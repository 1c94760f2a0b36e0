package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultAPITimeout   = 10 * time.Second
	DefaultMaxRetries   = 2
	DefaultRetryWait    = 500 * time.Millisecond
	DefaultOutputDir    = "out"
	DefaultPollInterval = 1 * time.Second
	DefaultBookLimit    = 10
	DefaultNewsLimit    = 20
	DefaultDBPort       = 5432
	DefaultDBSSLMode    = "prefer"
	DefaultMaxConns     = 10
	DefaultMinConns     = 2
	DefaultMetricsPort  = 9090
	DefaultMetricsPath  = "/metrics"
)

func (c *ScraperConfig) applyDefaults() {
	// API defaults
	if c.API.Timeout == 0 {
		c.API.Timeout = DefaultAPITimeout
	}
	if c.API.MaxRetries == 0 {
		c.API.MaxRetries = DefaultMaxRetries
	}
	if c.API.RetryWait == 0 {
		c.API.RetryWait = DefaultRetryWait
	}

	// Output defaults
	if c.Output.Dir == "" {
		c.Output.Dir = DefaultOutputDir
	}

	// Poll defaults
	if c.Poll.Interval == 0 {
		c.Poll.Interval = DefaultPollInterval
	}

	// Books defaults
	if c.Books.Limit == 0 {
		c.Books.Limit = DefaultBookLimit
	}

	// News defaults
	if c.News.Limit == 0 {
		c.News.Limit = DefaultNewsLimit
	}

	// Database defaults
	if c.Database.Enabled {
		applyDBDefaults(&c.Database.Postgres)
	}

	// Metrics defaults
	if c.Metrics.Port == 0 {
		c.Metrics.Port = DefaultMetricsPort
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}
