package config

import (
	"errors"
	"fmt"

	"github.com/rickgao/rit-data/internal/auth"
)

// Validate checks that all required fields are set and values are valid.
func (c *ScraperConfig) Validate() error {
	switch c.Mode {
	case "", auth.ModeClient, auth.ModeDMA:
	default:
		return fmt.Errorf("mode must be %q or %q, got %q", auth.ModeClient, auth.ModeDMA, c.Mode)
	}

	if c.Poll.Interval <= 0 {
		return errors.New("poll.interval must be > 0")
	}

	if c.API.MaxRetries < 0 {
		return errors.New("api.max_retries must be >= 0")
	}

	if c.Books.Limit < 1 {
		return errors.New("books.limit must be >= 1")
	}
	if c.Books.Max < 0 {
		return errors.New("books.max must be >= 0")
	}

	if c.News.Limit < 1 {
		return errors.New("news.limit must be >= 1")
	}

	if c.Database.Enabled {
		if err := c.Database.Postgres.validate("database.postgres"); err != nil {
			return err
		}
	}

	if c.Metrics.Port < 1 || c.Metrics.Port > 65535 {
		return fmt.Errorf("metrics.port must be between 1 and 65535, got %d", c.Metrics.Port)
	}

	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}
