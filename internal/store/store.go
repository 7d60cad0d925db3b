package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/pickdb/internal/querysql"
)

// ErrNotFound is returned when a row lookup by identifier matches nothing.
var ErrNotFound = errors.New("not found")

// Store issues SQL against one backend. A Store returned by WithTx is bound to
// the transaction; every other Store uses the connection pool.
type Store struct {
	db       *sql.DB
	q        querier
	dialect  Dialect
	compiler *querysql.SQLCompiler
	inTx     bool
}

// Open creates or opens a SQLite database at the given path.
// Applies the SQLite pragmas and limits the pool to a single connection.
//
// This function is idempotent - safe to call multiple times.
func Open(path string) (*Store, error) {
	return OpenDSN(SQLite.Name(), path)
}

// OpenDSN opens a database with the named driver ("sqlite3" or "pgx").
func OpenDSN(driver, dsn string) (*Store, error) {
	dialect, err := DialectFor(driver)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(dialect.Name(), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Verify connection works
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if dialect == SQLite {
		// SQLite only supports one writer at a time, so limit connections
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	if err := applyPragmas(db, dialect); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	return New(db, dialect), nil
}

// New wraps an already opened database. The caller keeps ownership of
// connection settings; Close still closes db.
func New(db *sql.DB, dialect Dialect) *Store {
	return &Store{
		db:       db,
		q:        db,
		dialect:  dialect,
		compiler: querysql.NewSQLCompiler(dialect),
	}
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil || s.inTx {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying sql.DB for direct queries.
// Use with caution - prefer using Store methods when available.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Dialect returns the backend dialect.
func (s *Store) Dialect() Dialect {
	return s.dialect
}

// InTx reports whether the store is bound to a transaction.
func (s *Store) InTx() bool {
	return s.inTx
}

// WithTx runs fn with a Store bound to a single transaction. The transaction
// commits when fn returns nil and rolls back otherwise. Nested calls reuse the
// outer transaction.
func (s *Store) WithTx(ctx context.Context, fn func(tx *Store) error) error {
	if s.inTx {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	txStore := &Store{
		db:       s.db,
		q:        tx,
		dialect:  s.dialect,
		compiler: s.compiler,
		inTx:     true,
	}
	if err := fn(txStore); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// applyPragmas sets required backend configuration.
func applyPragmas(db *sql.DB, dialect Dialect) error {
	for _, pragma := range dialect.pragmas() {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := s.db.QueryRow(query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
