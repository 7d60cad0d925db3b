package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"cuelang.org/go/cue/token"
	"github.com/spf13/cobra"

	"github.com/roach88/pickdb/internal/compiler"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool                       `json:"valid"`
	Errors   []compiler.ValidationError `json:"errors,omitempty"`
	Warnings []compiler.CycleWarning    `json:"warnings,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <schema>",
		Short: "Validate table schemas without applying them",
		Long: `Validate CUE table schemas without touching a database.

Checks table and column names, column types, dictionary entries, Translate
targets and Computed expressions. Translate cycles between tables are
reported as warnings; they do not fail validation.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, schemaPath string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	loadResult, loadErrors := LoadSchemas(schemaPath, LoadModeCollectAll)
	if loadResult == nil && len(loadErrors) > 0 {
		var loadErr *LoadError
		if errors.As(loadErrors[0], &loadErr) {
			return outputValidateError(formatter, loadErr.Code, loadErr.Message, nil)
		}
		return outputValidateError(formatter, ErrCodeGeneric, loadErrors[0].Error(), nil)
	}

	formatter.VerboseLog("Found %d CUE file(s) in %s", loadResult.FileCount, schemaPath)

	var validationErrors []compiler.ValidationError
	for _, err := range loadErrors {
		var loadErr *LoadError
		if errors.As(err, &loadErr) {
			validationErrors = append(validationErrors, compiler.ValidationError{
				Field:   "load",
				Message: loadErr.Message,
				Code:    loadErr.Code,
				Line:    lineOf(loadErr.Pos),
			})
		}
	}

	for _, t := range loadResult.Schema.Tables {
		formatter.VerboseLog("Validating table: %s", t.Name)
	}
	validationErrors = append(validationErrors, compiler.Validate(loadResult.Schema)...)
	warnings := compiler.AnalyzeCycles(loadResult.Schema)

	if len(validationErrors) > 0 {
		return outputValidationErrors(formatter, validationErrors, warnings)
	}
	return outputValidateSuccess(formatter, warnings)
}

// lineOf extracts the line number from a CUE position, 0 when unknown.
func lineOf(pos token.Pos) int {
	if pos.IsValid() {
		return pos.Line()
	}
	return 0
}

func outputValidateSuccess(formatter *OutputFormatter, warnings []compiler.CycleWarning) error {
	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true, Warnings: warnings})
	}

	fmt.Fprintln(formatter.Writer, "✓ All tables valid")
	printWarnings(formatter, warnings)
	return nil
}

// outputValidateError outputs a single load error.
func outputValidateError(formatter *OutputFormatter, code, message string, details any) error {
	_ = formatter.Error(code, message, details)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputValidationErrors outputs every validation error. Invalid schemas are
// a validation failure (exit 1), not a command error.
func outputValidationErrors(formatter *OutputFormatter, errs []compiler.ValidationError, warnings []compiler.CycleWarning) error {
	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data: ValidationResult{
				Valid:    false,
				Errors:   errs,
				Warnings: warnings,
			},
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: fmt.Sprintf("validation failed with %d error(s)", len(errs)),
			},
		}
		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	fmt.Fprintf(formatter.Writer, "✗ Validation failed with %d error(s)\n\n", len(errs))
	for _, e := range errs {
		fmt.Fprintf(formatter.Writer, "  %s\n", e.Error())
	}
	printWarnings(formatter, warnings)
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}

func printWarnings(formatter *OutputFormatter, warnings []compiler.CycleWarning) {
	if len(warnings) == 0 {
		return
	}
	fmt.Fprintln(formatter.Writer)
	fmt.Fprintln(formatter.Writer, "Warnings:")
	for _, w := range warnings {
		fmt.Fprintf(formatter.Writer, "  ! %s\n", w.Message)
	}
}
