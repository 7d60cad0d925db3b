// Package config loads pickdb settings.
//
// Settings come from built-in defaults, then an optional YAML file, then
// PICKDB_* environment variables. Command-line flags are applied by the CLI
// on top of the result. Load validates the final configuration so a bad
// setting fails at startup.
package config

import "time"

// Config holds all pickdb configuration.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Resolve  ResolveConfig  `yaml:"resolve"`
	Log      LogConfig      `yaml:"log"`
	HTTP     HTTPConfig     `yaml:"http"`
}

// DatabaseConfig selects the backend.
type DatabaseConfig struct {
	// Driver is sqlite3 or pgx (default: sqlite3).
	Driver string `yaml:"driver" env:"PICKDB_DB_DRIVER"`

	// DSN is a SQLite file path or a PostgreSQL connection string
	// (default: pickdb.db).
	DSN string `yaml:"dsn" env:"PICKDB_DB_DSN"`
}

// ResolveConfig tunes the field resolver.
type ResolveConfig struct {
	// MaxDepth bounds nested Translate lookups (default: 4).
	MaxDepth int `yaml:"max_depth" env:"PICKDB_MAX_DEPTH"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info).
	Level string `yaml:"level" env:"PICKDB_LOG_LEVEL"`

	// Format is text or json (default: text).
	Format string `yaml:"format" env:"PICKDB_LOG_FORMAT"`
}

// HTTPConfig holds the serve command settings.
type HTTPConfig struct {
	// Addr is the listen address (default: :8080).
	Addr string `yaml:"addr" env:"PICKDB_HTTP_ADDR"`

	// ReadTimeout bounds reading a request (default: 15s).
	ReadTimeout time.Duration `yaml:"read_timeout" env:"PICKDB_HTTP_READ_TIMEOUT"`

	// ShutdownTimeout bounds graceful shutdown (default: 10s).
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"PICKDB_HTTP_SHUTDOWN_TIMEOUT"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{Driver: "sqlite3", DSN: "pickdb.db"},
		Resolve:  ResolveConfig{MaxDepth: 4},
		Log:      LogConfig{Level: "info", Format: "text"},
		HTTP: HTTPConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
	}
}
