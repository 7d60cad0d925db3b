package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/pickdb/internal/compiler"
	"github.com/roach88/pickdb/internal/crud"
)

// NewApplyCommand creates the apply command.
func NewApplyCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apply <schema>",
		Short: "Create tables and define dictionaries from CUE schemas",
		Long: `Apply CUE table schemas to the configured database.

Missing tables are created; existing tables keep their columns. Every
dictionary entry in the schema is defined, replacing same-named entries.
The whole schema is applied in one transaction.

Examples:
  pickdb apply ./schemas
  pickdb apply shop.cue --db ./shop.db
  pickdb apply ./schemas --driver pgx --db postgres://localhost/shop`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runApply(opts *RootOptions, schemaPath string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	loadResult, loadErrors := LoadSchemas(schemaPath, LoadModeFailFast)
	if len(loadErrors) > 0 {
		var loadErr *LoadError
		if errors.As(loadErrors[0], &loadErr) {
			return outputCompileError(formatter, loadErr.Code, loadErr.Message, nil)
		}
		return outputCompileError(formatter, ErrCodeGeneric, loadErrors[0].Error(), nil)
	}

	if errs := compiler.Validate(loadResult.Schema); len(errs) > 0 {
		return outputValidationErrors(formatter, errs, nil)
	}
	for _, w := range compiler.AnalyzeCycles(loadResult.Schema) {
		formatter.VerboseLog("warning: %s", w.Message)
	}

	sess, err := openSession(opts, cmd)
	if err != nil {
		return err
	}
	defer sess.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var result *compiler.ApplyResult
	err = sess.facade.Batch(ctx, func(tx *crud.Facade) error {
		var applyErr error
		result, applyErr = compiler.Apply(ctx, tx, loadResult.Schema)
		return applyErr
	})
	if err != nil {
		return formatter.Fail("apply failed", err)
	}
	sess.logger.Info("schema applied",
		"created", len(result.Created), "existing", len(result.Existing), "defined", result.Defined)

	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "✓ Applied %d table(s), %d dictionary field(s)\n", len(loadResult.Schema.Tables), result.Defined)
	for _, name := range result.Created {
		fmt.Fprintf(w, "  + %s (created)\n", name)
	}
	for _, name := range result.Existing {
		fmt.Fprintf(w, "  = %s (existing)\n", name)
	}
	return nil
}
