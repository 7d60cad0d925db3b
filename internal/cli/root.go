package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/pickdb/internal/config"
	"github.com/roach88/pickdb/internal/crud"
	"github.com/roach88/pickdb/internal/logging"
	"github.com/roach88/pickdb/internal/store"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string
	Driver     string
	DSN        string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the pickdb CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "pickdb",
		Short: "pickdb - multivalue records over SQL",
		Long: `pickdb stores Pick-style multivalue records in SQLite or PostgreSQL.

Each table carries a dictionary of Attribute, Translate and Computed fields
that are resolved every time a record is read.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to YAML config file")
	cmd.PersistentFlags().StringVar(&opts.Driver, "driver", "", "database driver (sqlite3|pgx), overrides config")
	cmd.PersistentFlags().StringVar(&opts.DSN, "db", "", "database path or DSN, overrides config")

	cmd.AddCommand(NewCompileCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewApplyCommand(opts))
	cmd.AddCommand(NewCreateTableCommand(opts))
	cmd.AddCommand(NewDropTableCommand(opts))
	cmd.AddCommand(NewDefineCommand(opts))
	cmd.AddCommand(NewUndefineCommand(opts))
	cmd.AddCommand(NewDictCommand(opts))
	cmd.AddCommand(NewInsertCommand(opts))
	cmd.AddCommand(NewGetCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewUpdateCommand(opts))
	cmd.AddCommand(NewDeleteCommand(opts))
	cmd.AddCommand(NewCountCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// loadConfig loads the config file and environment, then applies flag overrides.
func loadConfig(opts *RootOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	if opts.Driver != "" {
		cfg.Database.Driver = opts.Driver
	}
	if opts.DSN != "" {
		cfg.Database.DSN = opts.DSN
	}
	if opts.Verbose {
		cfg.Log.Level = "debug"
	}
	return cfg, nil
}

// newLogger builds the command logger. Logs always go to w (stderr) so they
// never mix with JSON output.
func newLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	return logging.Setup(cfg.Log.Level, cfg.Log.Format, w)
}

// session bundles what a database command needs.
type session struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *store.Store
	facade *crud.Facade
}

func (s *session) Close() {
	if err := s.store.Close(); err != nil {
		s.logger.Error("error closing database", "error", err)
	}
}

// openSession loads configuration and opens the configured database.
func openSession(opts *RootOptions, cmd *cobra.Command) (*session, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	logger := newLogger(cfg, cmd.ErrOrStderr())

	logger.Debug("opening database", "driver", cfg.Database.Driver, "dsn", cfg.Database.DSN)
	st, err := store.OpenDSN(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	f := crud.New(st,
		crud.WithMaxDepth(cfg.Resolve.MaxDepth),
		crud.WithDiagnostics(func(ctx context.Context, table string, err error) {
			logger.Warn("field resolution degraded", "table", table, "error", err)
		}),
	)
	return &session{cfg: cfg, logger: logger, store: st, facade: f}, nil
}

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}
