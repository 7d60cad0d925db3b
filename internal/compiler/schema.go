package compiler

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/pickdb/internal/dict"
	"github.com/roach88/pickdb/internal/store"
)

// TableSchema is one compiled table declaration: its physical columns and the
// dictionary entries defined on top of the default Attribute entries.
type TableSchema struct {
	Name       string            `json:"name"`
	Columns    []store.ColumnDef `json:"columns"`
	Dictionary []dict.Entry      `json:"dictionary,omitempty"`
}

// DataColumns returns the declared column names without the identifier, in
// declaration order. Numeric dictionary positions index into this list.
func (t TableSchema) DataColumns() []string {
	names := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		if strings.EqualFold(c.Name, store.IDColumn) {
			continue
		}
		names = append(names, c.Name)
	}
	return names
}

// Schema is a compiled schema file.
type Schema struct {
	Tables []TableSchema `json:"tables"`
}

// Table returns the named table.
func (s *Schema) Table(name string) (TableSchema, bool) {
	for _, t := range s.Tables {
		if t.Name == name {
			return t, true
		}
	}
	return TableSchema{}, false
}

// CompileSource compiles CUE source text holding a top-level table struct.
// filename is used for error positions only.
func CompileSource(filename string, src []byte) (*Schema, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(src, cue.Filename(filename))
	return CompileSchema(v)
}

// CompileSchema compiles every table under the value's "table" field:
//
//	table: customers: {
//		columns: [{name: "first_name", type: "TEXT", not_null: true}]
//		dictionary: [{name: "NAME", kind: "Computed", spec: "FIRST_NAME"}]
//	}
//
// Tables are returned in source order.
func CompileSchema(v cue.Value) (*Schema, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	schema := &Schema{}
	tablesVal := v.LookupPath(cue.ParsePath("table"))
	if !tablesVal.Exists() {
		return nil, &CompileError{
			Field:   "table",
			Message: "at least one table is required",
			Pos:     v.Pos(),
		}
	}

	iter, err := tablesVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		t, err := CompileTable(iter.Value())
		if err != nil {
			return nil, err
		}
		schema.Tables = append(schema.Tables, *t)
	}

	if len(schema.Tables) == 0 {
		return nil, &CompileError{
			Field:   "table",
			Message: "at least one table is required",
			Pos:     tablesVal.Pos(),
		}
	}
	return schema, nil
}

// CompileTable parses a single table struct. The table name is the struct label:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`table: orders: { ... }`)
//	t, err := CompileTable(v.LookupPath(cue.ParsePath("table.orders")))
func CompileTable(v cue.Value) (*TableSchema, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	t := &TableSchema{}
	labels := v.Path().Selectors()
	if len(labels) > 0 {
		t.Name = labels[len(labels)-1].String()
	}

	columnsVal := v.LookupPath(cue.ParsePath("columns"))
	if !columnsVal.Exists() {
		return nil, &CompileError{
			Field:   "columns",
			Message: "columns are required",
			Pos:     v.Pos(),
		}
	}

	var err error
	t.Columns, err = parseColumns(columnsVal)
	if err != nil {
		return nil, err
	}

	dictVal := v.LookupPath(cue.ParsePath("dictionary"))
	if dictVal.Exists() {
		t.Dictionary, err = parseDictionary(dictVal)
		if err != nil {
			return nil, err
		}
	}

	return t, nil
}

func parseColumns(v cue.Value) ([]store.ColumnDef, error) {
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var cols []store.ColumnDef
	for iter.Next() {
		colVal := iter.Value()

		name, err := requiredString(colVal, "columns", "name")
		if err != nil {
			return nil, err
		}
		typ, err := requiredString(colVal, "columns."+name, "type")
		if err != nil {
			return nil, err
		}
		notNull, err := optionalBool(colVal, "not_null")
		if err != nil {
			return nil, err
		}
		unique, err := optionalBool(colVal, "unique")
		if err != nil {
			return nil, err
		}

		cols = append(cols, store.ColumnDef{
			Name:    name,
			Type:    typ,
			NotNull: notNull,
			Unique:  unique,
		})
	}
	return cols, nil
}

func parseDictionary(v cue.Value) ([]dict.Entry, error) {
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var entries []dict.Entry
	for iter.Next() {
		entryVal := iter.Value()

		name, err := requiredString(entryVal, "dictionary", "name")
		if err != nil {
			return nil, err
		}
		field := "dictionary." + name
		kindStr, err := requiredString(entryVal, field, "kind")
		if err != nil {
			return nil, err
		}
		kind, ok := dict.ParseKind(kindStr)
		if !ok {
			return nil, &CompileError{
				Field:   field + ".kind",
				Message: fmt.Sprintf("unknown kind %q: must be Attribute, Translate or Computed", kindStr),
				Pos:     entryVal.LookupPath(cue.ParsePath("kind")).Pos(),
			}
		}

		e := dict.Entry{Name: name, Kind: kind}
		if e.Position, err = optionalPosition(entryVal); err != nil {
			return nil, err
		}
		if e.Spec, err = optionalString(entryVal, "spec"); err != nil {
			return nil, err
		}
		if e.Description, err = optionalString(entryVal, "description"); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func requiredString(v cue.Value, field, label string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(label))
	if !fv.Exists() {
		return "", &CompileError{
			Field:   field + "." + label,
			Message: label + " is required",
			Pos:     v.Pos(),
		}
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func optionalString(v cue.Value, label string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(label))
	if !fv.Exists() {
		return "", nil
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func optionalBool(v cue.Value, label string) (bool, error) {
	fv := v.LookupPath(cue.ParsePath(label))
	if !fv.Exists() {
		return false, nil
	}
	b, err := fv.Bool()
	if err != nil {
		return false, formatCUEError(err)
	}
	return b, nil
}

// optionalPosition accepts an ordinal (position: 2) or a name (position: "sku").
func optionalPosition(v cue.Value) (string, error) {
	fv := v.LookupPath(cue.ParsePath("position"))
	if !fv.Exists() {
		return "", nil
	}
	switch fv.IncompleteKind() {
	case cue.IntKind:
		n, err := fv.Int64()
		if err != nil {
			return "", formatCUEError(err)
		}
		return fmt.Sprint(n), nil
	case cue.StringKind:
		s, err := fv.String()
		if err != nil {
			return "", formatCUEError(err)
		}
		return s, nil
	default:
		return "", &CompileError{
			Field:   "position",
			Message: fmt.Sprintf("position must be an int or a string, got %v", fv.IncompleteKind()),
			Pos:     fv.Pos(),
		}
	}
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	// Report the first error that carries a position.
	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
