package crud

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/pickdb/internal/dict"
	"github.com/roach88/pickdb/internal/expr"
	"github.com/roach88/pickdb/internal/resolve"
	"github.com/roach88/pickdb/internal/store"
)

// TableOptions carries the Go-side configuration of one table. It is merged
// with the stored dictionary into a resolve.ResolutionConfig on every read.
type TableOptions struct {
	Computed   map[string]resolve.ComputedFunc
	Functions  expr.Functions
	Validators []resolve.Validator
}

// DiagnosticsFunc receives the diagnostics of a resolution pass. The record
// was still returned to the caller.
type DiagnosticsFunc func(ctx context.Context, table string, err error)

// Facade is the record-level API over one store.
type Facade struct {
	store    *store.Store
	dict     *dict.Dictionary
	resolver *resolve.Resolver
	tables   map[string]TableOptions
	ids      IDGenerator
	diag     DiagnosticsFunc
	maxDepth int
}

// Option configures a Facade.
type Option func(*Facade)

// WithTable registers options for table. Table names match case-insensitively.
func WithTable(table string, opts TableOptions) Option {
	return func(f *Facade) {
		f.tables[strings.ToLower(table)] = opts
	}
}

// WithIDGenerator replaces the UUIDv7 generator used for text identifiers.
func WithIDGenerator(g IDGenerator) Option {
	return func(f *Facade) {
		f.ids = g
	}
}

// WithMaxDepth bounds nested Translate lookups.
func WithMaxDepth(n int) Option {
	return func(f *Facade) {
		f.maxDepth = n
	}
}

// WithDiagnostics installs a hook for resolver diagnostics.
func WithDiagnostics(fn DiagnosticsFunc) Option {
	return func(f *Facade) {
		f.diag = fn
	}
}

// New creates a Facade over s.
func New(s *store.Store, opts ...Option) *Facade {
	f := &Facade{
		tables:   make(map[string]TableOptions),
		ids:      UUIDv7Generator{},
		maxDepth: resolve.DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(f)
	}
	f.bind(s)
	return f
}

// bind points f at s. The resolver reads foreign records back through f.
func (f *Facade) bind(s *store.Store) {
	f.store = s
	f.dict = dict.New(s)
	f.resolver = resolve.New(f, resolve.WithMaxDepth(f.maxDepth))
}

// Store returns the underlying store.
func (f *Facade) Store() *store.Store {
	return f.store
}

// Batch runs fn inside one backend transaction. The Facade passed to fn
// issues every call on that transaction; it commits when fn returns nil.
func (f *Facade) Batch(ctx context.Context, fn func(tx *Facade) error) error {
	return f.store.WithTx(ctx, func(tx *store.Store) error {
		if tx == f.store {
			return fn(f)
		}
		clone := &Facade{
			tables:   f.tables,
			ids:      f.ids,
			diag:     f.diag,
			maxDepth: f.maxDepth,
		}
		clone.bind(tx)
		return fn(clone)
	})
}

// Config assembles the resolution config of table from its columns, its
// dictionary and the registered options.
func (f *Facade) Config(ctx context.Context, table string) (resolve.ResolutionConfig, error) {
	cols, err := f.store.Columns(ctx, table)
	if err != nil {
		return resolve.ResolutionConfig{}, classify("config "+table, err)
	}
	entries, err := f.dict.List(ctx, table)
	if err != nil {
		return resolve.ResolutionConfig{}, classify("config "+table, err)
	}
	opts := f.options(table)
	return resolve.ResolutionConfig{
		Table:      table,
		Columns:    store.DataColumns(cols),
		Entries:    entries,
		Computed:   opts.Computed,
		Functions:  opts.Functions,
		Validators: opts.Validators,
	}, nil
}

func (f *Facade) options(table string) TableOptions {
	return f.tables[strings.ToLower(table)]
}

func (f *Facade) report(ctx context.Context, table string, err error) {
	if err != nil && f.diag != nil {
		f.diag(ctx, table, err)
	}
}

// columnSet indexes columns by lower-cased name.
func columnSet(cols []store.Column) map[string]store.Column {
	set := make(map[string]store.Column, len(cols))
	for _, c := range cols {
		set[strings.ToLower(c.Name)] = c
	}
	return set
}

// textID reports whether the identifier column holds text.
func textID(cols []store.Column) bool {
	for _, c := range cols {
		if strings.EqualFold(c.Name, store.IDColumn) {
			t := strings.ToUpper(c.Type)
			return strings.Contains(t, "TEXT") || strings.Contains(t, "CHAR") || strings.Contains(t, "UUID")
		}
	}
	return false
}

// checkColumns rejects keys that are not columns of the table.
func checkColumns(op string, cols []store.Column, values map[string]any) error {
	set := columnSet(cols)
	for k := range values {
		if _, ok := set[strings.ToLower(k)]; !ok {
			return invalid(op, "unknown column %q", k)
		}
	}
	return nil
}

func (f *Facade) validate(op, table string, values map[string]any) error {
	for _, v := range f.options(table).Validators {
		if err := v(values); err != nil {
			return fmt.Errorf("%s: %w: %w", op, ErrValidation, err)
		}
	}
	return nil
}
