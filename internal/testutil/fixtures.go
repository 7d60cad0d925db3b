package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/pickdb/internal/crud"
	"github.com/roach88/pickdb/internal/dict"
	"github.com/roach88/pickdb/internal/store"
)

// NewFacade returns a facade over a fresh file-backed SQLite store in a
// temporary directory. The store is closed when the test ends.
func NewFacade(t testing.TB, opts ...crud.Option) *crud.Facade {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return crud.New(s, opts...)
}

// SeedProducts creates products(name, prices, stock_levels) with TOTAL_STOCK
// and LOW_STOCK computed fields, and inserts a Widget with stock [10 5 3] and
// a Gadget with stock [2].
func SeedProducts(t testing.TB, f *crud.Facade) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, f.CreateTable(ctx, "products", []store.ColumnDef{
		{Name: "name", Type: "TEXT", NotNull: true},
		{Name: "prices", Type: "TEXT"},
		{Name: "stock_levels", Type: "TEXT"},
	}))
	for _, e := range []dict.Entry{
		{Name: "TOTAL_STOCK", Kind: dict.KindComputed, Spec: "SUM:STOCK_LEVELS", Description: "Units on hand"},
		{Name: "LOW_STOCK", Kind: dict.KindComputed, Spec: "TOTAL_STOCK < 5"},
	} {
		require.NoError(t, f.DefineField(ctx, "products", e))
	}

	for _, values := range []map[string]any{
		{"name": "Widget", "prices": []float64{2.5, 4, 1}, "stock_levels": []int{10, 5, 3}},
		{"name": "Gadget", "prices": 7, "stock_levels": 2},
	} {
		_, err := f.CreateRecord(ctx, "products", values)
		require.NoError(t, err)
	}
}
