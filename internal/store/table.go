package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/roach88/pickdb/internal/queryir"
)

// IDColumn is the identifier column every entity table carries.
const IDColumn = "id"

// ErrInvalidSchema is returned by CreateTable for column definitions that
// cannot be rendered as DDL.
var ErrInvalidSchema = errors.New("invalid table schema")

// Column describes a physical column as reported by introspection.
type Column struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	NotNull    bool   `json:"not_null"`
	PrimaryKey bool   `json:"primary_key"`
}

// ColumnDef declares a column for CreateTable.
// Declaring a column named IDColumn replaces the generated integer identifier;
// it becomes the primary key with the declared type.
type ColumnDef struct {
	Name    string `json:"name" yaml:"name"`
	Type    string `json:"type" yaml:"type"`
	NotNull bool   `json:"not_null,omitempty" yaml:"not_null,omitempty"`
	Unique  bool   `json:"unique,omitempty" yaml:"unique,omitempty"`
}

// typePattern restricts declared types to plain SQL type names such as
// TEXT, REAL, NUMERIC(18,2) or DOUBLE PRECISION.
var typePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_ ]*(\([0-9]+(,\s*[0-9]+)?\))?$`)

// ValidColumnType reports whether t is accepted as a column type. Empty means TEXT.
func ValidColumnType(t string) bool {
	t = strings.TrimSpace(t)
	return t == "" || typePattern.MatchString(t)
}

// CreateTable creates a table with an identifier column plus cols.
// Uses CREATE TABLE IF NOT EXISTS, so an existing table is left untouched.
func (s *Store) CreateTable(ctx context.Context, name string, cols []ColumnDef) error {
	ddl, err := s.createTableSQL(name, cols)
	if err != nil {
		return fmt.Errorf("create table %s: %w", name, err)
	}
	if _, err := s.q.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create table %s: %w", name, err)
	}
	return nil
}

func (s *Store) createTableSQL(name string, cols []ColumnDef) (string, error) {
	if err := queryir.CheckIdentifier(name); err != nil {
		return "", err
	}

	idDef := fmt.Sprintf("%s %s", s.dialect.QuoteIdent(IDColumn), s.dialect.IdentityColumn())
	var defs []string
	seen := make(map[string]bool, len(cols))
	for _, col := range cols {
		if err := queryir.CheckIdentifier(col.Name); err != nil {
			return "", err
		}
		key := strings.ToLower(col.Name)
		if seen[key] {
			return "", fmt.Errorf("%w: duplicate column %q", ErrInvalidSchema, col.Name)
		}
		seen[key] = true

		colType := strings.TrimSpace(col.Type)
		if colType == "" {
			colType = "TEXT"
		}
		if !ValidColumnType(colType) {
			return "", fmt.Errorf("%w: invalid type %q for column %q", ErrInvalidSchema, col.Type, col.Name)
		}

		if key == IDColumn {
			idDef = fmt.Sprintf("%s %s PRIMARY KEY", s.dialect.QuoteIdent(IDColumn), strings.ToUpper(colType))
			continue
		}

		def := fmt.Sprintf("%s %s", s.dialect.QuoteIdent(col.Name), strings.ToUpper(colType))
		if col.NotNull {
			def += " NOT NULL"
		}
		if col.Unique {
			def += " UNIQUE"
		}
		defs = append(defs, def)
	}

	all := append([]string{idDef}, defs...)
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)",
		s.dialect.QuoteIdent(name), strings.Join(all, ", ")), nil
}

// DropTable drops a table if it exists.
func (s *Store) DropTable(ctx context.Context, name string) error {
	if err := queryir.CheckIdentifier(name); err != nil {
		return fmt.Errorf("drop table %s: %w", name, err)
	}
	if _, err := s.q.ExecContext(ctx, "DROP TABLE IF EXISTS "+s.dialect.QuoteIdent(name)); err != nil {
		return fmt.Errorf("drop table %s: %w", name, err)
	}
	return nil
}

// TableExists reports whether a table exists.
func (s *Store) TableExists(ctx context.Context, name string) (bool, error) {
	if err := queryir.CheckIdentifier(name); err != nil {
		return false, err
	}
	ok, err := s.dialect.tableExists(ctx, s.q, name)
	if err != nil {
		return false, fmt.Errorf("table exists %s: %w", name, err)
	}
	return ok, nil
}

// Columns returns the table's columns in declaration order.
// A missing table yields an empty slice.
func (s *Store) Columns(ctx context.Context, table string) ([]Column, error) {
	if err := queryir.CheckIdentifier(table); err != nil {
		return nil, err
	}
	cols, err := s.dialect.columns(ctx, s.q, table)
	if err != nil {
		return nil, fmt.Errorf("columns of %s: %w", table, err)
	}
	if cols == nil {
		cols = []Column{}
	}
	return cols, nil
}

// DataColumns returns the column names excluding IDColumn, in declaration order.
// These are the columns numeric dictionary positions refer to.
func DataColumns(cols []Column) []string {
	names := make([]string, 0, len(cols))
	for _, c := range cols {
		if strings.EqualFold(c.Name, IDColumn) {
			continue
		}
		names = append(names, c.Name)
	}
	return names
}
