package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/pickdb/internal/dict"
	"github.com/roach88/pickdb/internal/expr"
	"github.com/roach88/pickdb/internal/store"
)

// CreateTableOptions holds flags for the create-table command.
type CreateTableOptions struct {
	*RootOptions
	Columns []string // name:TYPE[:not_null][:unique]
}

// NewCreateTableCommand creates the create-table command.
func NewCreateTableCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CreateTableOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "create-table <table>",
		Short: "Create a table and its dictionary",
		Long: `Create a table with an integer identifier, the given data columns, and a
dictionary holding one Attribute entry per data column.

Columns are written name:TYPE with optional not_null and unique flags.
Declaring an "id" TEXT column switches the table to text identifiers.

Example:
  pickdb create-table orders --column customer_id:INTEGER --column quantities:TEXT
  pickdb create-table tags --column id:TEXT --column label:TEXT:not_null:unique`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreateTable(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringArrayVarP(&opts.Columns, "column", "c", nil, "column definition name:TYPE[:not_null][:unique] (repeatable)")

	return cmd
}

func runCreateTable(opts *CreateTableOptions, table string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	cols := make([]store.ColumnDef, 0, len(opts.Columns))
	for _, spec := range opts.Columns {
		col, err := parseColumnFlag(spec)
		if err != nil {
			_ = formatter.Error(ErrCodeBadInput, err.Error(), nil)
			return WrapExitError(ExitCommandError, "invalid column", err)
		}
		cols = append(cols, col)
	}

	sess, err := openSession(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer sess.Close()

	if err := sess.facade.CreateTable(commandContext(cmd), table, cols); err != nil {
		return formatter.Fail("create table failed", err)
	}
	sess.logger.Debug("table created", "table", table, "columns", len(cols))

	if formatter.Format == "json" {
		return formatter.Success(map[string]any{"table": table, "columns": cols})
	}
	fmt.Fprintf(formatter.Writer, "✓ Created table %s\n", table)
	return nil
}

// parseColumnFlag parses name:TYPE[:not_null][:unique]. TYPE defaults to TEXT.
func parseColumnFlag(spec string) (store.ColumnDef, error) {
	parts := strings.Split(spec, ":")
	col := store.ColumnDef{Name: strings.TrimSpace(parts[0]), Type: "TEXT"}
	if col.Name == "" {
		return col, fmt.Errorf("column %q: name is required", spec)
	}
	if len(parts) > 1 && parts[1] != "" {
		col.Type = strings.ToUpper(parts[1])
	}
	for _, flag := range parts[min(len(parts), 2):] {
		switch strings.ToLower(flag) {
		case "not_null", "notnull":
			col.NotNull = true
		case "unique":
			col.Unique = true
		default:
			return col, fmt.Errorf("column %q: unknown flag %q", spec, flag)
		}
	}
	return col, nil
}

// NewDropTableCommand creates the drop-table command.
func NewDropTableCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "drop-table <table>",
		Short:         "Drop a table and its dictionary",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd)
			sess, err := openSession(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer sess.Close()

			if err := sess.facade.DropTable(commandContext(cmd), args[0]); err != nil {
				return formatter.Fail("drop table failed", err)
			}
			if formatter.Format == "json" {
				return formatter.Success(map[string]any{"table": args[0], "dropped": true})
			}
			fmt.Fprintf(formatter.Writer, "✓ Dropped table %s\n", args[0])
			return nil
		},
	}
}

// DefineOptions holds flags for the define command.
type DefineOptions struct {
	*RootOptions
	Kind        string
	Position    string
	Spec        string
	Description string
}

// NewDefineCommand creates the define command.
func NewDefineCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DefineOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "define <table> <field>",
		Short: "Add or replace a dictionary entry",
		Long: `Define a dictionary field on a table, replacing any entry with the same
name. Field names are stored upper-case.

Kinds:
  Attribute  copies the column chosen by --position
  Translate  looks up --spec "T<table>;<field>" using the --position value as key
  Computed   evaluates --spec: SUM:, MULTIPLY: directives or an expression

Expression functions: ` + strings.Join(expr.Builtins(), ", ") + `

Examples:
  pickdb define orders TOTAL --kind Computed --spec "SUM:QUANTITIES"
  pickdb define orders LABEL --spec 'upper(CODE) + "-" + str(round(PRICE, 2))'
  pickdb define orders CUSTOMER --kind Translate --position 1 --spec "Tcustomers;FULL_NAME"`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDefine(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Kind, "kind", "k", "Computed", "entry kind (Attribute|Translate|Computed)")
	cmd.Flags().StringVarP(&opts.Position, "position", "p", "", "source column ordinal or name")
	cmd.Flags().StringVarP(&opts.Spec, "spec", "s", "", "translate target or computed expression")
	cmd.Flags().StringVarP(&opts.Description, "description", "d", "", "human readable description")

	return cmd
}

func runDefine(opts *DefineOptions, table, field string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	kind, ok := dict.ParseKind(opts.Kind)
	if !ok {
		err := fmt.Errorf("unknown kind %q: must be Attribute, Translate or Computed", opts.Kind)
		_ = formatter.Error(ErrCodeBadInput, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid kind", err)
	}
	entry := dict.Entry{
		Name:        dict.FieldName(field),
		Kind:        kind,
		Position:    opts.Position,
		Spec:        opts.Spec,
		Description: opts.Description,
	}

	sess, err := openSession(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer sess.Close()

	if err := sess.facade.DefineField(commandContext(cmd), table, entry); err != nil {
		return formatter.Fail("define failed", err)
	}

	if formatter.Format == "json" {
		return formatter.Success(entry)
	}
	fmt.Fprintf(formatter.Writer, "✓ Defined %s.%s (%s)\n", table, entry.Name, entry.Kind)
	return nil
}

// NewUndefineCommand creates the undefine command.
func NewUndefineCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "undefine <table> <field>",
		Short:         "Remove a dictionary entry",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd)
			sess, err := openSession(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer sess.Close()

			table, field := args[0], dict.FieldName(args[1])
			deleted, err := sess.facade.DeleteField(commandContext(cmd), table, field)
			if err != nil {
				return formatter.Fail("undefine failed", err)
			}
			if !deleted {
				return notFound(formatter, fmt.Sprintf("field %s.%s not found", table, field))
			}
			if formatter.Format == "json" {
				return formatter.Success(map[string]any{"table": table, "field": field, "deleted": true})
			}
			fmt.Fprintf(formatter.Writer, "✓ Removed %s.%s\n", table, field)
			return nil
		},
	}
}

// NewDictCommand creates the dict command.
func NewDictCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "dict <table>",
		Short:         "List a table's dictionary",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd)
			sess, err := openSession(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer sess.Close()

			entries, err := sess.facade.Dictionary(commandContext(cmd), args[0])
			if err != nil {
				return formatter.Fail("dictionary failed", err)
			}
			if formatter.Format == "json" {
				return formatter.Success(entries)
			}
			printEntries(formatter, args[0], entries)
			return nil
		},
	}
}

func printEntries(formatter *OutputFormatter, table string, entries []dict.Entry) {
	w := formatter.Writer
	fmt.Fprintf(w, "Dictionary %s (%d field(s)):\n", table, len(entries))
	for _, e := range entries {
		line := fmt.Sprintf("  %-16s %-10s", e.Name, e.Kind)
		if e.Position != "" {
			line += " pos=" + e.Position
		}
		if e.Spec != "" {
			line += " spec=" + e.Spec
		}
		if e.Description != "" {
			line += "  # " + e.Description
		}
		fmt.Fprintln(w, strings.TrimRight(line, " "))
	}
}

// notFound reports a missing record or field. It is a failure, not a
// command error.
func notFound(formatter *OutputFormatter, message string) error {
	_ = formatter.Error(ErrCodeRecordNotFound, message, nil)
	return NewExitError(ExitFailure, message)
}

// commandContext returns the command's context, or Background when unset.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
