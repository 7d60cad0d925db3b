package compiler

import (
	"context"
	"fmt"

	"github.com/roach88/pickdb/internal/dict"
	"github.com/roach88/pickdb/internal/store"
)

// Applier is the subset of the CRUD facade that Apply drives.
type Applier interface {
	TableExists(ctx context.Context, table string) bool
	CreateTable(ctx context.Context, table string, cols []store.ColumnDef) error
	DefineField(ctx context.Context, table string, e dict.Entry) error
}

// ApplyResult reports what Apply changed.
type ApplyResult struct {
	Created  []string `json:"created"`
	Existing []string `json:"existing"`
	Defined  int      `json:"defined"`
}

// Apply creates every table in s that does not exist yet and defines its
// dictionary entries in order. Existing tables keep their columns; their
// entries are still defined, replacing same-named ones.
//
// Apply stops at the first failure. Callers wanting all-or-nothing run it
// inside a batch.
func Apply(ctx context.Context, a Applier, s *Schema) (*ApplyResult, error) {
	res := &ApplyResult{Created: []string{}, Existing: []string{}}
	for _, t := range s.Tables {
		if a.TableExists(ctx, t.Name) {
			res.Existing = append(res.Existing, t.Name)
		} else {
			if err := a.CreateTable(ctx, t.Name, t.Columns); err != nil {
				return res, fmt.Errorf("apply table %s: %w", t.Name, err)
			}
			res.Created = append(res.Created, t.Name)
		}

		for _, e := range t.Dictionary {
			e.Name = dict.FieldName(e.Name)
			if err := a.DefineField(ctx, t.Name, e); err != nil {
				return res, fmt.Errorf("apply field %s.%s: %w", t.Name, e.Name, err)
			}
			res.Defined++
		}
	}
	return res, nil
}
