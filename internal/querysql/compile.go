// Package querysql compiles queryir queries into parameterized SQL.
package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/pickdb/internal/mv"
	"github.com/roach88/pickdb/internal/queryir"
)

// Dialect supplies the syntax that differs between backends.
type Dialect interface {
	// Placeholder returns the bind marker for the n-th parameter (1-based).
	Placeholder(n int) string

	// QuoteIdent quotes a validated identifier.
	QuoteIdent(name string) string
}

// SQLCompiler compiles QueryIR to parameterized SQL.
//
// All values are parameterized, never interpolated. Every Select carries an
// ORDER BY so reads are deterministic.
type SQLCompiler struct {
	dialect Dialect
}

// NewSQLCompiler creates a compiler for the given dialect.
func NewSQLCompiler(d Dialect) *SQLCompiler {
	return &SQLCompiler{dialect: d}
}

// Compile converts a query to SQL. Returns (sql, params, error).
func (c *SQLCompiler) Compile(q queryir.Query) (string, []any, error) {
	if q == nil {
		return "", nil, fmt.Errorf("cannot compile nil query")
	}
	if err := queryir.Validate(q); err != nil {
		return "", nil, fmt.Errorf("validate query: %w", err)
	}

	switch query := q.(type) {
	case queryir.Select:
		return c.compileSelect(query)
	case *queryir.Select:
		return c.compileSelect(*query)
	case queryir.Count:
		return c.compileCount(query)
	case *queryir.Count:
		return c.compileCount(*query)
	default:
		return "", nil, fmt.Errorf("unsupported query type: %T", q)
	}
}

func (c *SQLCompiler) compileSelect(q queryir.Select) (string, []any, error) {
	b := &builder{dialect: c.dialect}

	columns := "*"
	if len(q.Columns) > 0 {
		quoted := make([]string, len(q.Columns))
		for i, col := range q.Columns {
			quoted[i] = c.dialect.QuoteIdent(col)
		}
		columns = strings.Join(quoted, ", ")
	}

	where, err := b.where(q.Filter)
	if err != nil {
		return "", nil, err
	}

	order := q.OrderBy
	if order == "" {
		order = queryir.DefaultOrderBy
	}

	sql := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY %s ASC",
		columns,
		c.dialect.QuoteIdent(q.From),
		where,
		c.dialect.QuoteIdent(order))

	if q.Limit > 0 {
		sql += fmt.Sprintf(" LIMIT %d", q.Limit)
	}

	return sql, b.params, nil
}

func (c *SQLCompiler) compileCount(q queryir.Count) (string, []any, error) {
	b := &builder{dialect: c.dialect}

	where, err := b.where(q.Filter)
	if err != nil {
		return "", nil, err
	}

	sql := fmt.Sprintf("SELECT COUNT(*) FROM %s%s", c.dialect.QuoteIdent(q.From), where)
	return sql, b.params, nil
}

// builder numbers placeholders across one statement.
type builder struct {
	dialect Dialect
	params  []any
}

func (b *builder) where(p queryir.Predicate) (string, error) {
	if p == nil {
		return "", nil
	}
	sql, err := b.predicate(p)
	if err != nil {
		return "", fmt.Errorf("compile filter: %w", err)
	}
	return " WHERE " + sql, nil
}

func (b *builder) predicate(p queryir.Predicate) (string, error) {
	switch pred := p.(type) {
	case queryir.Equals:
		return b.equals(pred)
	case *queryir.Equals:
		return b.equals(*pred)
	case queryir.And:
		return b.and(pred)
	case *queryir.And:
		return b.and(*pred)
	default:
		return "", fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func (b *builder) equals(eq queryir.Equals) (string, error) {
	param, err := mv.Encode(eq.Value)
	if err != nil {
		return "", fmt.Errorf("convert value for %s: %w", eq.Field, err)
	}
	if param == nil {
		return b.dialect.QuoteIdent(eq.Field) + " IS NULL", nil
	}
	b.params = append(b.params, param)
	return fmt.Sprintf("%s = %s", b.dialect.QuoteIdent(eq.Field), b.dialect.Placeholder(len(b.params))), nil
}

func (b *builder) and(and queryir.And) (string, error) {
	if len(and.Predicates) == 0 {
		return "1 = 1", nil
	}

	parts := make([]string, 0, len(and.Predicates))
	for _, pred := range and.Predicates {
		sql, err := b.predicate(pred)
		if err != nil {
			return "", err
		}
		parts = append(parts, sql)
	}
	if len(parts) == 1 {
		return parts[0], nil
	}
	return "(" + strings.Join(parts, " AND ") + ")", nil
}
