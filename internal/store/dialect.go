package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Dialect describes the SQL differences between supported backends.
// Implementations live in this package: SQLite and Postgres.
type Dialect interface {
	// Name is the dialect name used in configuration ("sqlite3" or "pgx").
	Name() string

	// Placeholder returns the bind marker for the n-th parameter (1-based).
	Placeholder(n int) string

	// QuoteIdent quotes a validated identifier.
	QuoteIdent(name string) string

	// IdentityColumn is the DDL for an auto-generated integer identifier.
	IdentityColumn() string

	// ReturningID reports whether INSERT must use RETURNING to obtain the id.
	ReturningID() bool

	pragmas() []string
	tableExists(ctx context.Context, q querier, table string) (bool, error)
	columns(ctx context.Context, q querier, table string) ([]Column, error)
}

// SQLite is the dialect for github.com/mattn/go-sqlite3.
var SQLite Dialect = sqliteDialect{}

// Postgres is the dialect for github.com/jackc/pgx/v5/stdlib.
var Postgres Dialect = postgresDialect{}

// DialectFor returns the dialect registered under a driver name.
func DialectFor(driver string) (Dialect, error) {
	switch strings.ToLower(driver) {
	case "sqlite3", "sqlite", "":
		return SQLite, nil
	case "pgx", "postgres", "postgresql":
		return Postgres, nil
	default:
		return nil, fmt.Errorf("unsupported driver %q: must be sqlite3 or pgx", driver)
	}
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

type sqliteDialect struct{}

func (sqliteDialect) Name() string                  { return "sqlite3" }
func (sqliteDialect) Placeholder(int) string        { return "?" }
func (sqliteDialect) QuoteIdent(name string) string { return quoteIdent(name) }
func (sqliteDialect) IdentityColumn() string        { return "INTEGER PRIMARY KEY AUTOINCREMENT" }
func (sqliteDialect) ReturningID() bool             { return false }

func (sqliteDialect) pragmas() []string {
	return []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
}

// tableExists matches names case-insensitively, as SQLite resolves them.
func (sqliteDialect) tableExists(ctx context.Context, q querier, table string) (bool, error) {
	var count int
	err := q.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ? COLLATE NOCASE",
		table,
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// columns introspects with PRAGMA table_info, which returns
// (cid, name, type, notnull, dflt_value, pk) in declaration order.
func (sqliteDialect) columns(ctx context.Context, q querier, table string) ([]Column, error) {
	rows, err := q.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", quoteIdent(table)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []Column
	for rows.Next() {
		var (
			cid     int
			name    string
			ctype   string
			notNull int
			dflt    any
			pk      int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &dflt, &pk); err != nil {
			return nil, err
		}
		cols = append(cols, Column{
			Name:       name,
			Type:       strings.ToUpper(ctype),
			NotNull:    notNull != 0,
			PrimaryKey: pk > 0,
		})
	}
	return cols, rows.Err()
}

type postgresDialect struct{}

func (postgresDialect) Name() string                  { return "pgx" }
func (postgresDialect) Placeholder(n int) string      { return fmt.Sprintf("$%d", n) }
func (postgresDialect) QuoteIdent(name string) string { return quoteIdent(name) }
func (postgresDialect) IdentityColumn() string        { return "BIGSERIAL PRIMARY KEY" }
func (postgresDialect) ReturningID() bool             { return true }
func (postgresDialect) pragmas() []string             { return nil }

func (postgresDialect) tableExists(ctx context.Context, q querier, table string) (bool, error) {
	var count int
	err := q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM information_schema.tables
		WHERE table_schema = current_schema() AND table_name = $1
	`, table).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (postgresDialect) columns(ctx context.Context, q querier, table string) ([]Column, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT c.column_name, c.data_type, c.is_nullable,
		       EXISTS (
		           SELECT 1 FROM information_schema.table_constraints tc
		           JOIN information_schema.key_column_usage k
		             ON k.constraint_name = tc.constraint_name AND k.table_schema = tc.table_schema
		           WHERE tc.constraint_type = 'PRIMARY KEY'
		             AND tc.table_schema = c.table_schema
		             AND tc.table_name = c.table_name
		             AND k.column_name = c.column_name
		       )
		FROM information_schema.columns c
		WHERE c.table_schema = current_schema() AND c.table_name = $1
		ORDER BY c.ordinal_position
	`, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []Column
	for rows.Next() {
		var (
			name     string
			dataType string
			nullable string
			pk       bool
		)
		if err := rows.Scan(&name, &dataType, &nullable, &pk); err != nil {
			return nil, err
		}
		cols = append(cols, Column{
			Name:       name,
			Type:       strings.ToUpper(dataType),
			NotNull:    nullable == "NO",
			PrimaryKey: pk,
		})
	}
	return cols, rows.Err()
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
