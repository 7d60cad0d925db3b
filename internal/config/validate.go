package config

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/roach88/pickdb/internal/store"
)

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs *multierror.Error

	if _, err := store.DialectFor(c.Database.Driver); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("database.driver: %w", err))
	}
	if strings.TrimSpace(c.Database.DSN) == "" {
		errs = multierror.Append(errs, fmt.Errorf("database.dsn is required"))
	}
	if c.Resolve.MaxDepth < 1 {
		errs = multierror.Append(errs, fmt.Errorf("resolve.max_depth must be at least 1, got %d", c.Resolve.MaxDepth))
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = multierror.Append(errs, fmt.Errorf("log.level must be debug, info, warn or error, got %q", c.Log.Level))
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = multierror.Append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}
	if strings.TrimSpace(c.HTTP.Addr) == "" {
		errs = multierror.Append(errs, fmt.Errorf("http.addr is required"))
	}
	if c.HTTP.ReadTimeout < 0 || c.HTTP.ShutdownTimeout < 0 {
		errs = multierror.Append(errs, fmt.Errorf("http timeouts must not be negative"))
	}

	return errs.ErrorOrNil()
}
