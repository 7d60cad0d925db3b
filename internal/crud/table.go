package crud

import (
	"context"
	"strings"

	"github.com/roach88/pickdb/internal/dict"
	"github.com/roach88/pickdb/internal/queryir"
	"github.com/roach88/pickdb/internal/store"
)

// CreateTable creates table with cols plus its dictionary, holding one
// Attribute entry per data column. The identifier column gets no entry.
//
// Creating a table that already exists is a validation failure.
func (f *Facade) CreateTable(ctx context.Context, table string, cols []store.ColumnDef) error {
	op := "create table " + table
	if err := queryir.CheckIdentifier(table); err != nil {
		return classify(op, err)
	}
	if strings.HasSuffix(strings.ToUpper(table), "_DICT") {
		return invalid(op, "the _DICT suffix is reserved for dictionaries")
	}

	return f.Batch(ctx, func(tx *Facade) error {
		exists, err := tx.store.TableExists(ctx, table)
		if err != nil {
			return classify(op, err)
		}
		if exists {
			return invalid(op, "table already exists")
		}

		if err := tx.store.CreateTable(ctx, table, cols); err != nil {
			return classify(op, err)
		}
		if err := tx.dict.Create(ctx, table); err != nil {
			return classify(op, err)
		}

		created, err := tx.store.Columns(ctx, table)
		if err != nil {
			return classify(op, err)
		}
		for _, e := range dict.AttributeEntries(store.DataColumns(created)) {
			if err := tx.dict.Define(ctx, table, e); err != nil {
				return classify(op, err)
			}
		}
		return nil
	})
}

// DropTable drops table and its dictionary. Missing tables are ignored.
func (f *Facade) DropTable(ctx context.Context, table string) error {
	op := "drop table " + table
	return f.Batch(ctx, func(tx *Facade) error {
		if err := tx.store.DropTable(ctx, table); err != nil {
			return classify(op, err)
		}
		if err := tx.dict.Drop(ctx, table); err != nil {
			return classify(op, err)
		}
		return nil
	})
}

// TableExists reports whether table exists. Backend errors read as false.
func (f *Facade) TableExists(ctx context.Context, table string) bool {
	ok, err := f.store.TableExists(ctx, table)
	return err == nil && ok
}

// ColumnExists reports whether table has column, case-insensitively. Backend
// errors read as false.
func (f *Facade) ColumnExists(ctx context.Context, table, column string) bool {
	cols, err := f.store.Columns(ctx, table)
	if err != nil {
		return false
	}
	_, ok := columnSet(cols)[strings.ToLower(column)]
	return ok
}

// DefineField adds e to the dictionary of table, or replaces the entry of the
// same name in place. The dictionary is created if needed.
func (f *Facade) DefineField(ctx context.Context, table string, e dict.Entry) error {
	op := "define " + table + "." + e.Name
	if err := queryir.CheckIdentifier(table); err != nil {
		return classify(op, err)
	}
	if err := e.Validate(); err != nil {
		return classify(op, err)
	}
	return f.Batch(ctx, func(tx *Facade) error {
		if err := tx.dict.Create(ctx, table); err != nil {
			return classify(op, err)
		}
		if err := tx.dict.Define(ctx, table, e); err != nil {
			return classify(op, err)
		}
		return nil
	})
}

// DeleteField removes the entry named name. Reports whether one was removed.
func (f *Facade) DeleteField(ctx context.Context, table, name string) (bool, error) {
	if !f.TableExists(ctx, dict.TableName(table)) {
		return false, nil
	}
	removed, err := f.dict.Delete(ctx, table, name)
	if err != nil {
		return false, classify("delete field "+table+"."+name, err)
	}
	return removed, nil
}

// Dictionary returns the entries of table in resolution order. A table without
// a dictionary yields an empty slice.
func (f *Facade) Dictionary(ctx context.Context, table string) ([]dict.Entry, error) {
	entries, err := f.dict.List(ctx, table)
	if err != nil {
		return nil, classify("dictionary "+table, err)
	}
	return entries, nil
}

// Field returns one dictionary entry.
func (f *Facade) Field(ctx context.Context, table, name string) (dict.Entry, bool, error) {
	e, found, err := f.dict.Get(ctx, table, name)
	if err != nil {
		return dict.Entry{}, false, classify("field "+table+"."+name, err)
	}
	return e, found, nil
}
