package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/pickdb/internal/mv"
)

// ValuesOptions holds the flags that supply column values.
type ValuesOptions struct {
	*RootOptions
	Set  []string // column=value, value in wire format (a]b]c)
	JSON string   // JSON object of column values; arrays become multivalues
}

func (o *ValuesOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringArrayVar(&o.Set, "set", nil, "column=value, multivalues joined with ] (repeatable)")
	cmd.Flags().StringVar(&o.JSON, "json", "", "JSON object of column values")
}

// values merges --json and --set, with --set winning.
func (o *ValuesOptions) values() (map[string]any, error) {
	out := map[string]any{}
	if o.JSON != "" {
		if err := json.Unmarshal([]byte(o.JSON), &out); err != nil {
			return nil, fmt.Errorf("invalid --json: %w", err)
		}
	}
	pairs, err := parsePairs(o.Set)
	if err != nil {
		return nil, err
	}
	for k, v := range pairs {
		out[k] = v
	}
	return out, nil
}

// parsePairs parses key=value arguments.
func parsePairs(args []string) (map[string]any, error) {
	out := make(map[string]any, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("expected key=value, got %q", arg)
		}
		out[strings.TrimSpace(key)] = value
	}
	return out, nil
}

func badInput(formatter *OutputFormatter, err error) error {
	_ = formatter.Error(ErrCodeBadInput, err.Error(), nil)
	return WrapExitError(ExitCommandError, "invalid input", err)
}

// NewInsertCommand creates the insert command.
func NewInsertCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValuesOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "insert <table>",
		Short: "Insert a record and print its identifier",
		Long: `Insert a record. Values come from --json and --set; --set wins.

Examples:
  pickdb insert products --set name=Widget --set "stock_levels=10]5]3"
  pickdb insert products --json '{"name": "Widget", "prices": [2.5, 4, 1]}'`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd)
			values, err := opts.values()
			if err != nil {
				return badInput(formatter, err)
			}

			sess, err := openSession(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer sess.Close()

			id, err := sess.facade.CreateRecord(commandContext(cmd), args[0], values)
			if err != nil {
				return formatter.Fail("insert failed", err)
			}
			if formatter.Format == "json" {
				return formatter.Success(map[string]any{"id": mv.Native(id)})
			}
			fmt.Fprintf(formatter.Writer, "✓ Inserted %s into %s\n", mv.String(id), args[0])
			return nil
		},
	}
	opts.bind(cmd)
	return cmd
}

// NewGetCommand creates the get command.
func NewGetCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "get <table> <id>",
		Short:         "Read one record with its dictionary fields resolved",
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

			table, id := args[0], args[1]
			rec, found, err := sess.facade.FindByID(commandContext(cmd), table, id)
			if err != nil {
				return formatter.Fail("get failed", err)
			}
			if !found {
				return notFound(formatter, fmt.Sprintf("record %s not found in %s", id, table))
			}
			if formatter.Format == "json" {
				return formatter.Success(rec.Native())
			}
			printRecord(formatter, rec)
			return nil
		},
	}
}

// ListOptions holds flags for the list command.
type ListOptions struct {
	*RootOptions
	Where string
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list <table> [column=value ...]",
		Short: "List records, optionally filtered",
		Long: `List records with their dictionary fields resolved.

column=value arguments match raw stored column values exactly. --where takes
a boolean filter over resolved fields instead.

Examples:
  pickdb list products
  pickdb list products name=Widget
  pickdb list products --where "LOW_STOCK == true"`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd)
			criteria, err := parsePairs(args[1:])
			if err != nil {
				return badInput(formatter, err)
			}

			sess, err := openSession(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer sess.Close()

			ctx := commandContext(cmd)
			var recs []mv.Record
			switch {
			case opts.Where != "":
				recs, err = sess.facade.FindWhere(ctx, args[0], opts.Where)
			case len(criteria) > 0:
				recs, err = sess.facade.FindByCriteria(ctx, args[0], criteria)
			default:
				recs, err = sess.facade.FindAll(ctx, args[0])
			}
			if err != nil {
				return formatter.Fail("list failed", err)
			}

			if formatter.Format == "json" {
				out := make([]map[string]any, len(recs))
				for i, rec := range recs {
					out[i] = rec.Native()
				}
				return formatter.Success(out)
			}
			fmt.Fprintf(formatter.Writer, "%d record(s)\n", len(recs))
			for _, rec := range recs {
				fmt.Fprintln(formatter.Writer)
				printRecord(formatter, rec)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.Where, "where", "w", "", "boolean filter over resolved fields")
	return cmd
}

// NewUpdateCommand creates the update command.
func NewUpdateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValuesOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "update <table> <id>",
		Short:         "Update columns of one record",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd)
			values, err := opts.values()
			if err != nil {
				return badInput(formatter, err)
			}

			sess, err := openSession(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer sess.Close()

			table, id := args[0], args[1]
			ok, err := sess.facade.UpdateRecord(commandContext(cmd), table, id, values)
			if err != nil {
				return formatter.Fail("update failed", err)
			}
			if !ok {
				return notFound(formatter, fmt.Sprintf("record %s not found in %s", id, table))
			}
			if formatter.Format == "json" {
				return formatter.Success(map[string]any{"id": id, "updated": true})
			}
			fmt.Fprintf(formatter.Writer, "✓ Updated %s in %s\n", id, table)
			return nil
		},
	}
	opts.bind(cmd)
	return cmd
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "delete <table> <id>",
		Short:         "Delete one record",
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

			table, id := args[0], args[1]
			ok, err := sess.facade.DeleteRecord(commandContext(cmd), table, id)
			if err != nil {
				return formatter.Fail("delete failed", err)
			}
			if !ok {
				return notFound(formatter, fmt.Sprintf("record %s not found in %s", id, table))
			}
			if formatter.Format == "json" {
				return formatter.Success(map[string]any{"id": id, "deleted": true})
			}
			fmt.Fprintf(formatter.Writer, "✓ Deleted %s from %s\n", id, table)
			return nil
		},
	}
}

// NewCountCommand creates the count command.
func NewCountCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "count <table> [column=value ...]",
		Short:         "Count records matching raw column values",
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd)
			criteria, err := parsePairs(args[1:])
			if err != nil {
				return badInput(formatter, err)
			}

			sess, err := openSession(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer sess.Close()

			n, err := sess.facade.Count(commandContext(cmd), args[0], criteria)
			if err != nil {
				return formatter.Fail("count failed", err)
			}
			if formatter.Format == "json" {
				return formatter.Success(map[string]any{"table": args[0], "count": n})
			}
			fmt.Fprintln(formatter.Writer, n)
			return nil
		},
	}
}

// printRecord writes one "KEY: value" line per field in key order.
// Multivalues are shown in wire form.
func printRecord(formatter *OutputFormatter, rec mv.Record) {
	for _, k := range rec.Keys() {
		fmt.Fprintf(formatter.Writer, "%s: %s\n", k, mv.String(rec[k]))
	}
}
