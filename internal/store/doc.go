// Package store is the storage adapter between pickdb and a relational backend.
//
// It issues parameterized SQL through database/sql and returns rows as
// column-name → value maps. It knows nothing about dictionaries or multivalue
// semantics beyond encoding sequences on write.
//
// # Backends
//
//   - SQLite via github.com/mattn/go-sqlite3 (default; PRAGMA table_info introspection)
//   - PostgreSQL via github.com/jackc/pgx/v5/stdlib (information_schema introspection)
//
// The Dialect picks placeholders, identifier quoting, identity column DDL and how the
// generated identifier is reported (LastInsertId vs RETURNING).
//
// # Database Configuration (SQLite)
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//   - one open connection: SQLite allows a single writer
//
// Identifiers are validated with queryir.CheckIdentifier and always quoted; values
// are always bound as parameters.
package store
