package crud

import (
	"context"
	"fmt"
	"maps"
	"strconv"
	"strings"

	"github.com/hashicorp/go-bexpr"

	"github.com/roach88/pickdb/internal/mv"
	"github.com/roach88/pickdb/internal/queryir"
	"github.com/roach88/pickdb/internal/store"
)

// CreateRecord validates and inserts values and returns the new identifier.
//
// Slices are stored delimiter-joined. When the table's identifier is text and
// values carry none, one is generated.
func (f *Facade) CreateRecord(ctx context.Context, table string, values map[string]any) (mv.Value, error) {
	op := "create record in " + table
	if values == nil {
		return nil, invalid(op, "record must be a mapping")
	}
	cols, err := f.existingColumns(ctx, op, table)
	if err != nil {
		return nil, err
	}
	if err := checkColumns(op, cols, values); err != nil {
		return nil, err
	}
	if err := f.validate(op, table, values); err != nil {
		return nil, err
	}

	row := maps.Clone(values)
	if _, ok := row[store.IDColumn]; !ok && textID(cols) {
		row[store.IDColumn] = f.ids.Generate()
	}

	id, err := f.store.Insert(ctx, table, row)
	if err != nil {
		return nil, classify(op, err)
	}
	return mv.Of(id), nil
}

// FindByID returns the resolved record with identifier id. found is false
// when the row or the table is missing.
func (f *Facade) FindByID(ctx context.Context, table string, id any) (mv.Record, bool, error) {
	op := "find " + table
	cols, err := f.store.Columns(ctx, table)
	if err != nil {
		return nil, false, classify(op, err)
	}
	if len(cols) == 0 {
		return nil, false, nil
	}

	row, err := f.store.Get(ctx, table, normalizeID(cols, id))
	if store.IsNotFound(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, classify(op, err)
	}

	recs, err := f.resolveRows(ctx, table, []store.Row{row})
	if err != nil {
		return nil, false, err
	}
	return recs[0], true, nil
}

// FindAll returns every record of table in identifier order.
func (f *Facade) FindAll(ctx context.Context, table string) ([]mv.Record, error) {
	return f.FindByCriteria(ctx, table, nil)
}

// FindByCriteria returns the records whose raw columns equal criteria. A nil
// criteria value matches NULL.
func (f *Facade) FindByCriteria(ctx context.Context, table string, criteria map[string]any) ([]mv.Record, error) {
	op := "find " + table
	cols, err := f.store.Columns(ctx, table)
	if err != nil {
		return nil, classify(op, err)
	}
	if len(cols) == 0 {
		return []mv.Record{}, nil
	}
	if err := checkColumns(op, cols, criteria); err != nil {
		return nil, err
	}
	if v, ok := criteria[store.IDColumn]; ok {
		criteria = maps.Clone(criteria)
		criteria[store.IDColumn] = normalizeID(cols, v)
	}

	rows, err := f.store.Select(ctx, queryir.Select{From: table, Filter: queryir.Where(criteria)})
	if err != nil {
		return nil, classify(op, err)
	}
	return f.resolveRows(ctx, table, rows)
}

// FindWhere returns the resolved records matching a boolean filter such as
//
//	NAME == "Widget" and STATUS != "closed"
//
// Selectors address resolved fields and raw columns. Records the filter
// cannot be evaluated against do not match.
func (f *Facade) FindWhere(ctx context.Context, table, filter string) ([]mv.Record, error) {
	eval, err := bexpr.CreateEvaluator(filter)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w: filter: %w", table, ErrValidation, err)
	}
	all, err := f.FindAll(ctx, table)
	if err != nil {
		return nil, err
	}

	out := make([]mv.Record, 0, len(all))
	for _, rec := range all {
		if ok, err := eval.Evaluate(rec.Native()); err == nil && ok {
			out = append(out, rec)
		}
	}
	return out, nil
}

// Count returns the number of rows whose raw columns equal criteria.
// A missing table counts 0.
func (f *Facade) Count(ctx context.Context, table string, criteria map[string]any) (int64, error) {
	op := "count " + table
	cols, err := f.store.Columns(ctx, table)
	if err != nil {
		return 0, classify(op, err)
	}
	if len(cols) == 0 {
		return 0, nil
	}
	if err := checkColumns(op, cols, criteria); err != nil {
		return 0, err
	}
	n, err := f.store.Count(ctx, queryir.Count{From: table, Filter: queryir.Where(criteria)})
	if err != nil {
		return 0, classify(op, err)
	}
	return n, nil
}

// UpdateRecord sets values on the record with identifier id. Reports whether
// a record matched.
func (f *Facade) UpdateRecord(ctx context.Context, table string, id any, values map[string]any) (bool, error) {
	op := "update " + table
	if len(values) == 0 {
		return false, invalid(op, "no fields to update")
	}
	if _, ok := lookupKey(values, store.IDColumn); ok {
		return false, invalid(op, "the identifier cannot be updated")
	}
	cols, err := f.existingColumns(ctx, op, table)
	if err != nil {
		return false, err
	}
	if err := checkColumns(op, cols, values); err != nil {
		return false, err
	}
	if err := f.validate(op, table, values); err != nil {
		return false, err
	}

	n, err := f.store.Update(ctx, table, normalizeID(cols, id), values)
	if err != nil {
		return false, classify(op, err)
	}
	return n > 0, nil
}

// DeleteRecord removes the record with identifier id. Reports whether a record
// was removed.
func (f *Facade) DeleteRecord(ctx context.Context, table string, id any) (bool, error) {
	op := "delete from " + table
	cols, err := f.existingColumns(ctx, op, table)
	if err != nil {
		return false, err
	}
	n, err := f.store.Delete(ctx, table, normalizeID(cols, id))
	if err != nil {
		return false, classify(op, err)
	}
	return n > 0, nil
}

// existingColumns introspects table, failing validation when it is missing.
func (f *Facade) existingColumns(ctx context.Context, op, table string) ([]store.Column, error) {
	cols, err := f.store.Columns(ctx, table)
	if err != nil {
		return nil, classify(op, err)
	}
	if len(cols) == 0 {
		return nil, invalid(op, "no such table")
	}
	return cols, nil
}

// resolveRows runs the dictionary over rows. Diagnostics go to the hook and
// never drop a record.
func (f *Facade) resolveRows(ctx context.Context, table string, rows []store.Row) ([]mv.Record, error) {
	cfg, err := f.Config(ctx, table)
	if err != nil {
		return nil, err
	}
	out := make([]mv.Record, 0, len(rows))
	for _, row := range rows {
		rec, diags := f.resolver.Resolve(ctx, cfg, row)
		f.report(ctx, table, diags)
		if rec == nil {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// normalizeID converts textual identifiers to integers for integer-keyed
// tables, so ids taken from URLs and flags match.
func normalizeID(cols []store.Column, id any) any {
	s, ok := id.(string)
	if !ok || textID(cols) {
		return id
	}
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return id
	}
	return n
}

func lookupKey(values map[string]any, key string) (any, bool) {
	for k, v := range values {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return nil, false
}
