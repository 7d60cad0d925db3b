// Package queryir provides a small, dialect-neutral query representation for
// pickdb's record reads.
//
// The facade never concatenates caller values into SQL. Reads are described as
// queryir values and compiled by internal/querysql into parameterized statements
// for the configured dialect:
//
//	[crud / dict] → [queryir] → [querysql] → SQLite | PostgreSQL
//
// Supported nodes:
//   - Select(from, columns, filter, order, limit)
//   - Count(from, filter)
//   - Predicates: Equals, And
//
// Table and column names are identifiers, not values, so they cannot be bound as
// parameters. Validate rejects anything that is not a plain identifier before a
// query reaches the compiler.
package queryir
