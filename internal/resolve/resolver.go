package resolve

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/roach88/pickdb/internal/dict"
	"github.com/roach88/pickdb/internal/expr"
	"github.com/roach88/pickdb/internal/mv"
)

// DefaultMaxDepth bounds nested Translate lookups.
const DefaultMaxDepth = 4

const (
	sumPrefix      = "SUM:"
	multiplyPrefix = "MULTIPLY:"
)

// Resolver applies dictionaries to rows.
type Resolver struct {
	finder   Finder
	maxDepth int
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithMaxDepth sets how many Translate lookups may nest. Past the bound the
// identifier is kept.
func WithMaxDepth(n int) Option {
	return func(r *Resolver) {
		r.maxDepth = n
	}
}

// New returns a Resolver that reads foreign records through finder.
// A nil finder makes every Translate entry fall back to its identifiers.
func New(finder Finder, opts ...Option) *Resolver {
	r := &Resolver{finder: finder, maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve runs one resolution pass over raw.
//
// The record is always returned. The error, when non-nil, is a
// *multierror.Error of *FieldError diagnostics.
func (r *Resolver) Resolve(ctx context.Context, cfg ResolutionConfig, raw map[string]any) (mv.Record, error) {
	acc := mv.ParseRow(raw)

	var diags *multierror.Error
	for _, e := range cfg.Entries {
		name := dict.FieldName(e.Name)
		v, ok, err := r.resolveEntry(ctx, cfg, acc, e)
		if err != nil {
			diags = multierror.Append(diags, &FieldError{Field: name, Err: err})
		}
		if ok {
			acc[name] = v
		}
	}
	return acc, diags.ErrorOrNil()
}

// resolveEntry returns the entry's value; ok is false when the field stays
// unset. A non-nil error with ok true is a diagnostic for a value that fell back.
func (r *Resolver) resolveEntry(ctx context.Context, cfg ResolutionConfig, acc mv.Record, e dict.Entry) (mv.Value, bool, error) {
	kind, known := dict.ParseKind(string(e.Kind))
	if !known {
		return nil, false, fmt.Errorf("%w: unknown kind %q", ErrMalformedEntry, e.Kind)
	}

	switch kind {
	case dict.KindAttribute:
		return r.attribute(cfg, acc, e)
	case dict.KindTranslate:
		return r.translate(ctx, cfg, acc, e)
	default:
		return r.computed(cfg, acc, e)
	}
}

func (r *Resolver) attribute(cfg ResolutionConfig, acc mv.Record, e dict.Entry) (mv.Value, bool, error) {
	source, err := sourceColumn(cfg, e.Position)
	if err != nil {
		return nil, false, err
	}
	v, ok := acc[source]
	if !ok {
		return nil, false, nil
	}
	return v, true, nil
}

func (r *Resolver) translate(ctx context.Context, cfg ResolutionConfig, acc mv.Record, e dict.Entry) (mv.Value, bool, error) {
	table, column, ok := dict.ParseTranslateSpec(e.Spec)
	if !ok {
		return nil, false, fmt.Errorf("%w: translate spec %q", ErrMalformedEntry, e.Spec)
	}
	source, err := sourceColumn(cfg, e.Position)
	if err != nil {
		return nil, false, err
	}

	value, found := lookupVariants(acc, source)
	if !found || mv.IsNull(value) {
		return nil, false, nil
	}

	ids := mv.Elements(value)
	results := make([]mv.Value, len(ids))
	var errs *multierror.Error
	for i, id := range ids {
		v, err := r.lookupOne(ctx, table, column, id)
		if err != nil {
			errs = multierror.Append(errs, err)
		}
		results[i] = v
	}
	return mv.Collapse(results), true, errs.ErrorOrNil()
}

// lookupOne translates one identifier, falling back to it on any failure.
func (r *Resolver) lookupOne(ctx context.Context, table, column string, id mv.Value) (mv.Value, error) {
	if r.finder == nil {
		return id, nil
	}
	depth := Depth(ctx)
	if depth >= r.maxDepth {
		return id, fmt.Errorf("%w: %s(%s)", ErrDepthExceeded, table, mv.String(id))
	}

	rec, found, err := r.finder.FindByID(withDepth(ctx, depth+1), table, identifier(id))
	if err != nil {
		return id, fmt.Errorf("lookup %s(%s): %w", table, mv.String(id), err)
	}
	if !found {
		return id, nil
	}
	v, ok := rec.Lookup(column)
	if !ok {
		return id, nil
	}
	return v, nil
}

func (r *Resolver) computed(cfg ResolutionConfig, acc mv.Record, e dict.Entry) (mv.Value, bool, error) {
	if fn, ok := computedFunc(cfg, e.Name); ok {
		v, err := fn(acc.Clone())
		if err != nil {
			return nil, false, err
		}
		return v, true, nil
	}

	spec := strings.TrimSpace(e.Spec)
	switch {
	case spec == "":
		return nil, false, fmt.Errorf("%w: empty computed spec", ErrMalformedEntry)
	case strings.HasPrefix(spec, sumPrefix):
		field := strings.TrimSpace(strings.TrimPrefix(spec, sumPrefix))
		if field == "" {
			return nil, false, fmt.Errorf("%w: %q names no field", ErrMalformedEntry, spec)
		}
		return Sum(fieldValue(acc, field)), true, nil
	case strings.HasPrefix(spec, multiplyPrefix):
		fields, err := splitFields(strings.TrimPrefix(spec, multiplyPrefix))
		if err != nil {
			return nil, false, fmt.Errorf("%w: %q: %v", ErrMalformedEntry, spec, err)
		}
		operands := make([]mv.Value, len(fields))
		for i, f := range fields {
			operands[i] = fieldValue(acc, f)
		}
		return Multiply(operands...), true, nil
	}

	prog, err := expr.Compile(spec, expr.WithFunctions(cfg.Functions))
	if err != nil {
		return nil, false, err
	}
	v, err := prog.Eval(acc)
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

// computedFunc finds the function registered for name, trying the name as
// stored, then its field spelling, then any key equal under case folding.
func computedFunc(cfg ResolutionConfig, name string) (ComputedFunc, bool) {
	if fn, ok := cfg.Computed[name]; ok {
		return fn, true
	}
	if fn, ok := cfg.Computed[dict.FieldName(name)]; ok {
		return fn, true
	}
	for key, fn := range cfg.Computed {
		if strings.EqualFold(key, name) {
			return fn, true
		}
	}
	return nil, false
}

// Sum adds the numeric reading of every element of v. Elements with no numeric
// reading count as 0; no elements sum to 0.
func Sum(v mv.Value) mv.Value {
	var total float64
	for _, f := range mv.Numbers(v) {
		total += f
	}
	return mv.Number(total)
}

// Multiply multiplies operands element-wise. Shorter operands are padded with
// 0; a one-element result collapses to a scalar.
func Multiply(operands ...mv.Value) mv.Value {
	vectors := make([][]float64, len(operands))
	width := 0
	for i, op := range operands {
		vectors[i] = mv.Numbers(op)
		width = max(width, len(vectors[i]))
	}

	out := make([]mv.Value, width)
	for i := range out {
		product := 1.0
		for _, vec := range vectors {
			if i < len(vec) {
				product *= vec[i]
			} else {
				product = 0
			}
		}
		out[i] = mv.Number(product)
	}
	return mv.Collapse(out)
}

// sourceColumn maps a position to a key: a 1-based ordinal into cfg.Columns,
// or a literal name.
func sourceColumn(cfg ResolutionConfig, position string) (string, error) {
	position = strings.TrimSpace(position)
	if position == "" {
		return "", fmt.Errorf("%w: empty position", ErrMalformedEntry)
	}
	n, err := strconv.Atoi(position)
	if err != nil {
		return position, nil
	}
	if n < 1 || n > len(cfg.Columns) {
		return "", fmt.Errorf("%w: position %d out of range 1..%d", ErrMalformedEntry, n, len(cfg.Columns))
	}
	return cfg.Columns[n-1], nil
}

// lookupVariants finds key as given, upper-cased, then lower-cased.
func lookupVariants(acc mv.Record, key string) (mv.Value, bool) {
	for _, k := range []string{key, strings.ToUpper(key), strings.ToLower(key)} {
		if v, ok := acc[k]; ok {
			return v, true
		}
	}
	return nil, false
}

func fieldValue(acc mv.Record, field string) mv.Value {
	v, ok := lookupVariants(acc, field)
	if !ok {
		return mv.Null{}
	}
	return v
}

func splitFields(list string) ([]string, error) {
	parts := strings.Split(list, ",")
	fields := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			return nil, errors.New("empty field name")
		}
		fields = append(fields, p)
	}
	return fields, nil
}

// identifier converts a translate source element to a lookup key: integral
// numbers become int64, everything else stays text.
func identifier(v mv.Value) any {
	if f, ok := mv.Coerce(v); ok && f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return int64(f)
	}
	return mv.String(v)
}
