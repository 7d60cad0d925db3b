package resolve

import (
	"context"

	"github.com/roach88/pickdb/internal/dict"
	"github.com/roach88/pickdb/internal/expr"
	"github.com/roach88/pickdb/internal/mv"
)

// ComputedFunc derives a field from the record resolved so far. It receives a
// copy; mutations are discarded.
type ComputedFunc func(rec mv.Record) (mv.Value, error)

// Validator checks a write payload before it reaches storage.
type Validator func(values map[string]any) error

// ResolutionConfig is everything a pass needs to know about one table. It is
// built per table by the caller and not modified during a pass.
type ResolutionConfig struct {
	// Table names the entity table.
	Table string

	// Columns lists the data columns (identifier excluded) in declaration
	// order. Numeric positions index into it, 1-based.
	Columns []string

	// Entries is the dictionary in resolution order.
	Entries []dict.Entry

	// Computed replaces the spec of the named Computed entries. Keys match
	// entry names case-insensitively.
	Computed map[string]ComputedFunc

	// Functions are extra functions callable from expressions.
	Functions expr.Functions

	// Validators run against create and update payloads.
	Validators []Validator
}

// Finder reads a resolved record by identifier. Translate entries use it for
// foreign lookups; found is false when no row matches.
type Finder interface {
	FindByID(ctx context.Context, table string, id any) (rec mv.Record, found bool, err error)
}

// FinderFunc adapts a function to Finder.
type FinderFunc func(ctx context.Context, table string, id any) (mv.Record, bool, error)

// FindByID calls f.
func (f FinderFunc) FindByID(ctx context.Context, table string, id any) (mv.Record, bool, error) {
	return f(ctx, table, id)
}

type depthKey struct{}

// Depth returns how many Translate lookups deep ctx is.
func Depth(ctx context.Context) int {
	d, _ := ctx.Value(depthKey{}).(int)
	return d
}

func withDepth(ctx context.Context, depth int) context.Context {
	return context.WithValue(ctx, depthKey{}, depth)
}
