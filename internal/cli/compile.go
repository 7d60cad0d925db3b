package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/pickdb/internal/compiler"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
}

// CompilationStats holds summary statistics.
type CompilationStats struct {
	TableCount  int
	ColumnCount int
	FieldCount  int
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <schema>",
		Short: "Compile CUE table schemas to JSON",
		Long: `Compile CUE table schemas to their JSON form.

<schema> is a .cue file or a directory of them. Every table under the
top-level "table" struct is compiled: its columns and its dictionary.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")

	return cmd
}

func runCompile(opts *CompileOptions, schemaPath string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	loadResult, loadErrors := LoadSchemas(schemaPath, LoadModeCollectAll)
	if loadResult == nil && len(loadErrors) > 0 {
		var loadErr *LoadError
		if errors.As(loadErrors[0], &loadErr) {
			return outputCompileError(formatter, loadErr.Code, loadErr.Message, nil)
		}
		return outputCompileError(formatter, ErrCodeGeneric, loadErrors[0].Error(), nil)
	}

	formatter.VerboseLog("Found %d CUE file(s) in %s", loadResult.FileCount, schemaPath)
	for _, t := range loadResult.Schema.Tables {
		formatter.VerboseLog("Compiled table: %s", t.Name)
	}

	if len(loadErrors) > 0 {
		return outputCompileErrors(formatter, loadErrors)
	}

	stats := calculateStats(loadResult.Schema)

	if opts.Output != "" {
		if err := writeSchemaToFile(loadResult.Schema, opts.Output); err != nil {
			return outputCompileError(formatter, ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err), nil)
		}
	}

	return outputCompileSuccess(formatter, loadResult.Schema, stats, opts.Output)
}

// calculateStats computes summary statistics for a compiled schema.
func calculateStats(s *compiler.Schema) CompilationStats {
	stats := CompilationStats{TableCount: len(s.Tables)}
	for _, t := range s.Tables {
		stats.ColumnCount += len(t.Columns)
		stats.FieldCount += len(t.Dictionary)
	}
	return stats
}

func outputCompileSuccess(formatter *OutputFormatter, s *compiler.Schema, stats CompilationStats, outputFile string) error {
	if formatter.Format == "json" {
		return formatter.Success(s)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "✓ Compiled %d table(s), %d column(s), %d dictionary field(s)\n\n",
		stats.TableCount, stats.ColumnCount, stats.FieldCount)

	fmt.Fprintln(w, "Tables:")
	for _, t := range s.Tables {
		fmt.Fprintf(w, "  %s: %d column(s), %d field(s)\n", t.Name, len(t.Columns), len(t.Dictionary))
	}
	fmt.Fprintln(w)

	if outputFile != "" {
		fmt.Fprintf(w, "Wrote compiled schema to %s\n", outputFile)
	}
	return nil
}

// outputCompileError outputs a single compilation error.
func outputCompileError(formatter *OutputFormatter, code, message string, details any) error {
	_ = formatter.Error(code, message, details)
	return WrapExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message), nil)
}

// outputCompileErrors outputs every compilation error.
func outputCompileErrors(formatter *OutputFormatter, errs []error) error {
	if formatter.Format == "json" {
		cliErrors := make([]CLIError, len(errs))
		for i, err := range errs {
			code, message := parseCompileError(err)
			cliErrors[i] = CLIError{Code: code, Message: message}
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(CLIResponse{
			Status: "error",
			Error:  &cliErrors[0],
			Data:   cliErrors,
		}); err != nil {
			return err
		}
		return NewExitError(ExitCommandError, fmt.Sprintf("compilation failed with %d error(s)", len(errs)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Compilation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		code, message := parseCompileError(err)
		var loadErr *LoadError
		if errors.As(err, &loadErr) && loadErr.Pos.IsValid() {
			fmt.Fprintf(formatter.Writer, "%s:%d:%d\n",
				loadErr.Pos.Filename(),
				loadErr.Pos.Line(),
				loadErr.Pos.Column())
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", code, message)
	}

	return NewExitError(ExitCommandError, fmt.Sprintf("compilation failed with %d error(s)", len(errs)))
}

// parseCompileError extracts error code and message from an error.
func parseCompileError(err error) (string, string) {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Code, loadErr.Message
	}
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return MapFieldToErrorCode(compileErr.Field), compileErr.Message
	}
	return ErrCodeGeneric, err.Error()
}

// writeSchemaToFile writes the compiled schema as indented JSON.
func writeSchemaToFile(s *compiler.Schema, filename string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling schema: %w", err)
	}
	if err := os.WriteFile(filename, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}
	return nil
}
