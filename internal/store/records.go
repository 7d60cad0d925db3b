package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/pickdb/internal/mv"
	"github.com/roach88/pickdb/internal/queryir"
)

// Row is a raw row keyed by column name. Text arrives as string, never []byte.
type Row map[string]any

// Insert inserts a row and returns its identifier: the value supplied for
// IDColumn when present, otherwise the backend-generated one.
//
// Values are encoded with mv.Encode, so sequences are stored delimiter-joined.
func (s *Store) Insert(ctx context.Context, table string, values map[string]any) (any, error) {
	if err := queryir.CheckIdentifier(table); err != nil {
		return nil, fmt.Errorf("insert into %s: %w", table, err)
	}
	cols, args, err := encodeValues(values)
	if err != nil {
		return nil, fmt.Errorf("insert into %s: %w", table, err)
	}

	var query string
	if len(cols) == 0 {
		query = fmt.Sprintf("INSERT INTO %s DEFAULT VALUES", s.dialect.QuoteIdent(table))
	} else {
		quoted := make([]string, len(cols))
		marks := make([]string, len(cols))
		for i, c := range cols {
			quoted[i] = s.dialect.QuoteIdent(c)
			marks[i] = s.dialect.Placeholder(i + 1)
		}
		query = fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
			s.dialect.QuoteIdent(table), strings.Join(quoted, ", "), strings.Join(marks, ", "))
	}

	if id, ok := lookupFold(values, IDColumn); ok {
		if _, err := s.q.ExecContext(ctx, query, args...); err != nil {
			return nil, fmt.Errorf("insert into %s: %w", table, err)
		}
		return id, nil
	}

	if s.dialect.ReturningID() {
		var id int64
		query += " RETURNING " + s.dialect.QuoteIdent(IDColumn)
		if err := s.q.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
			return nil, fmt.Errorf("insert into %s: %w", table, err)
		}
		return id, nil
	}

	result, err := s.q.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("insert into %s: %w", table, err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("insert into %s: last insert id: %w", table, err)
	}
	return id, nil
}

// Get returns the row whose identifier equals id.
// Returns ErrNotFound if no row matches.
func (s *Store) Get(ctx context.Context, table string, id any) (Row, error) {
	rows, err := s.Select(ctx, queryir.Select{
		From:   table,
		Filter: queryir.Equals{Field: IDColumn, Value: id},
		Limit:  1,
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return rows[0], nil
}

// Select runs a compiled select and returns all rows.
// Returns an empty slice (not nil) if nothing matches.
func (s *Store) Select(ctx context.Context, q queryir.Select) ([]Row, error) {
	query, args, err := s.compiler.Compile(q)
	if err != nil {
		return nil, fmt.Errorf("select from %s: %w", q.From, err)
	}

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select from %s: %w", q.From, err)
	}
	defer rows.Close()

	out, err := scanRows(rows)
	if err != nil {
		return nil, fmt.Errorf("select from %s: %w", q.From, err)
	}
	return out, nil
}

// Count returns the number of rows matching q.
func (s *Store) Count(ctx context.Context, q queryir.Count) (int64, error) {
	query, args, err := s.compiler.Compile(q)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", q.From, err)
	}
	var n int64
	if err := s.q.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", q.From, err)
	}
	return n, nil
}

// Update sets the given columns on the row matching id and returns the number
// of rows affected.
func (s *Store) Update(ctx context.Context, table string, id any, values map[string]any) (int64, error) {
	if err := queryir.CheckIdentifier(table); err != nil {
		return 0, fmt.Errorf("update %s: %w", table, err)
	}
	cols, args, err := encodeValues(values)
	if err != nil {
		return 0, fmt.Errorf("update %s: %w", table, err)
	}
	if len(cols) == 0 {
		return 0, fmt.Errorf("update %s: no columns to set", table)
	}

	sets := make([]string, len(cols))
	for i, c := range cols {
		sets[i] = fmt.Sprintf("%s = %s", s.dialect.QuoteIdent(c), s.dialect.Placeholder(i+1))
	}
	args = append(args, id)
	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = %s",
		s.dialect.QuoteIdent(table),
		strings.Join(sets, ", "),
		s.dialect.QuoteIdent(IDColumn),
		s.dialect.Placeholder(len(args)))

	result, err := s.q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("update %s: %w", table, err)
	}
	return rowsAffected(result, "update "+table)
}

// Delete removes the row matching id and returns the number of rows affected.
func (s *Store) Delete(ctx context.Context, table string, id any) (int64, error) {
	if err := queryir.CheckIdentifier(table); err != nil {
		return 0, fmt.Errorf("delete from %s: %w", table, err)
	}
	query := fmt.Sprintf("DELETE FROM %s WHERE %s = %s",
		s.dialect.QuoteIdent(table), s.dialect.QuoteIdent(IDColumn), s.dialect.Placeholder(1))

	result, err := s.q.ExecContext(ctx, query, id)
	if err != nil {
		return 0, fmt.Errorf("delete from %s: %w", table, err)
	}
	return rowsAffected(result, "delete from "+table)
}

// DeleteWhere removes every row matching the criteria.
func (s *Store) DeleteWhere(ctx context.Context, table string, criteria map[string]any) (int64, error) {
	if err := queryir.CheckIdentifier(table); err != nil {
		return 0, fmt.Errorf("delete from %s: %w", table, err)
	}
	cols, args, err := encodeValues(criteria)
	if err != nil {
		return 0, fmt.Errorf("delete from %s: %w", table, err)
	}
	if len(cols) == 0 {
		return 0, fmt.Errorf("delete from %s: no criteria", table)
	}
	conds := make([]string, len(cols))
	for i, c := range cols {
		conds[i] = fmt.Sprintf("%s = %s", s.dialect.QuoteIdent(c), s.dialect.Placeholder(i+1))
	}
	query := fmt.Sprintf("DELETE FROM %s WHERE %s", s.dialect.QuoteIdent(table), strings.Join(conds, " AND "))

	result, err := s.q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("delete from %s: %w", table, err)
	}
	return rowsAffected(result, "delete from "+table)
}

// Upsert inserts values or, when a row with the same conflict column value
// exists, updates the remaining columns in place. The existing row keeps its
// identifier, so insertion order is preserved.
//
// ON CONFLICT ... DO UPDATE is supported by SQLite (3.24+) and PostgreSQL.
func (s *Store) Upsert(ctx context.Context, table, conflict string, values map[string]any) error {
	if err := queryir.CheckIdentifier(table); err != nil {
		return fmt.Errorf("upsert into %s: %w", table, err)
	}
	if err := queryir.CheckIdentifier(conflict); err != nil {
		return fmt.Errorf("upsert into %s: %w", table, err)
	}
	if _, ok := values[conflict]; !ok {
		return fmt.Errorf("upsert into %s: missing conflict column %q", table, conflict)
	}
	cols, args, err := encodeValues(values)
	if err != nil {
		return fmt.Errorf("upsert into %s: %w", table, err)
	}

	quoted := make([]string, len(cols))
	marks := make([]string, len(cols))
	var updates []string
	for i, c := range cols {
		quoted[i] = s.dialect.QuoteIdent(c)
		marks[i] = s.dialect.Placeholder(i + 1)
		if c != conflict {
			updates = append(updates, fmt.Sprintf("%s = excluded.%s", quoted[i], quoted[i]))
		}
	}
	action := "DO NOTHING"
	if len(updates) > 0 {
		action = "DO UPDATE SET " + strings.Join(updates, ", ")
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) %s",
		s.dialect.QuoteIdent(table),
		strings.Join(quoted, ", "),
		strings.Join(marks, ", "),
		s.dialect.QuoteIdent(conflict),
		action)

	if _, err := s.q.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert into %s: %w", table, err)
	}
	return nil
}

// encodeValues validates column names and encodes values.
// Columns are returned sorted so generated SQL is stable.
func encodeValues(values map[string]any) ([]string, []any, error) {
	cols := make([]string, 0, len(values))
	for c := range values {
		if err := queryir.CheckIdentifier(c); err != nil {
			return nil, nil, err
		}
		cols = append(cols, c)
	}
	slices.Sort(cols)

	args := make([]any, len(cols))
	for i, c := range cols {
		arg, err := mv.Encode(values[c])
		if err != nil {
			return nil, nil, fmt.Errorf("column %s: %w", c, err)
		}
		args[i] = arg
	}
	return cols, args, nil
}

// scanRows reads every row into a column → value map.
func scanRows(rows *sql.Rows) ([]Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("columns: %w", err)
	}

	out := []Row{}
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}

		row := make(Row, len(cols))
		for i, c := range cols {
			if b, ok := vals[i].([]byte); ok {
				row[c] = string(b)
				continue
			}
			row[c] = vals[i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate: %w", err)
	}
	return out, nil
}

func rowsAffected(result sql.Result, op string) (int64, error) {
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: rows affected: %w", op, err)
	}
	return n, nil
}

func lookupFold(values map[string]any, key string) (any, bool) {
	for k, v := range values {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return nil, false
}

// IsNotFound reports whether err is ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
