package dict

import (
	"context"
	"fmt"

	"github.com/roach88/pickdb/internal/queryir"
	"github.com/roach88/pickdb/internal/store"
)

const (
	keyColumn        = "key"
	attributesColumn = "attributes"
)

// Dictionary reads and writes dictionary tables through a store.
type Dictionary struct {
	store *store.Store
}

// New creates a Dictionary over s.
func New(s *store.Store) *Dictionary {
	return &Dictionary{store: s}
}

// Create creates the dictionary table for table. Idempotent.
func (d *Dictionary) Create(ctx context.Context, table string) error {
	err := d.store.CreateTable(ctx, TableName(table), []store.ColumnDef{
		{Name: keyColumn, Type: "TEXT", NotNull: true, Unique: true},
		{Name: attributesColumn, Type: "TEXT", NotNull: true},
	})
	if err != nil {
		return fmt.Errorf("create dictionary: %w", err)
	}
	return nil
}

// Exists reports whether table has a dictionary.
func (d *Dictionary) Exists(ctx context.Context, table string) (bool, error) {
	return d.store.TableExists(ctx, TableName(table))
}

// Define inserts e or replaces the entry with the same name.
// A replaced entry keeps its place in the resolution order.
func (d *Dictionary) Define(ctx context.Context, table string, e Entry) error {
	if err := e.Validate(); err != nil {
		return err
	}
	err := d.store.Upsert(ctx, TableName(table), keyColumn, map[string]any{
		keyColumn:        e.Name,
		attributesColumn: EncodeAttributes(e),
	})
	if err != nil {
		return fmt.Errorf("define %s.%s: %w", table, e.Name, err)
	}
	return nil
}

// Get returns the entry named name. found is false when the entry or the whole
// dictionary is missing.
func (d *Dictionary) Get(ctx context.Context, table, name string) (e Entry, found bool, err error) {
	ok, err := d.Exists(ctx, table)
	if err != nil || !ok {
		return Entry{}, false, err
	}

	rows, err := d.store.Select(ctx, queryir.Select{
		From:    TableName(table),
		Columns: []string{keyColumn, attributesColumn},
		Filter:  queryir.Equals{Field: keyColumn, Value: name},
		Limit:   1,
	})
	if err != nil {
		return Entry{}, false, fmt.Errorf("get %s.%s: %w", table, name, err)
	}
	if len(rows) == 0 {
		return Entry{}, false, nil
	}
	return entryFromRow(rows[0]), true, nil
}

// List returns all entries in insertion order. A missing dictionary yields an
// empty slice.
func (d *Dictionary) List(ctx context.Context, table string) ([]Entry, error) {
	ok, err := d.Exists(ctx, table)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []Entry{}, nil
	}

	rows, err := d.store.Select(ctx, queryir.Select{
		From:    TableName(table),
		Columns: []string{keyColumn, attributesColumn},
	})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", TableName(table), err)
	}

	entries := make([]Entry, len(rows))
	for i, row := range rows {
		entries[i] = entryFromRow(row)
	}
	return entries, nil
}

// Delete removes the entry named name. Reports whether an entry was removed.
func (d *Dictionary) Delete(ctx context.Context, table, name string) (bool, error) {
	n, err := d.store.DeleteWhere(ctx, TableName(table), map[string]any{keyColumn: name})
	if err != nil {
		return false, fmt.Errorf("delete %s.%s: %w", table, name, err)
	}
	return n > 0, nil
}

// Drop drops the dictionary table.
func (d *Dictionary) Drop(ctx context.Context, table string) error {
	if err := d.store.DropTable(ctx, TableName(table)); err != nil {
		return fmt.Errorf("drop dictionary: %w", err)
	}
	return nil
}

func entryFromRow(row store.Row) Entry {
	attrs, _ := row[attributesColumn].(string)
	e := DecodeAttributes(attrs)
	e.Name, _ = row[keyColumn].(string)
	return e
}
