package crud

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/pickdb/internal/mv"
	"github.com/roach88/pickdb/internal/store"
)

// createTestFacade creates a facade over a new file-backed store.
func createTestFacade(t *testing.T, opts ...Option) *Facade {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return New(s, opts...)
}

// createProducts creates products(name, price, stock_levels, tags).
func createProducts(t *testing.T, f *Facade) {
	t.Helper()
	err := f.CreateTable(context.Background(), "products", []store.ColumnDef{
		{Name: "name", Type: "TEXT", NotNull: true},
		{Name: "price", Type: "REAL"},
		{Name: "stock_levels", Type: "TEXT"},
		{Name: "tags", Type: "TEXT"},
	})
	require.NoError(t, err)
}

// mustCreate inserts a record and returns its id as int64 or string.
func mustCreate(t *testing.T, f *Facade, table string, values map[string]any) any {
	t.Helper()
	id, err := f.CreateRecord(context.Background(), table, values)
	require.NoError(t, err)
	if n, ok := id.(mv.Number); ok {
		return int64(n)
	}
	return mv.String(id)
}
