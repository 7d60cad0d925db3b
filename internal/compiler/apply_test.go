package compiler

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pickdb/internal/crud"
	"github.com/roach88/pickdb/internal/dict"
	"github.com/roach88/pickdb/internal/mv"
	"github.com/roach88/pickdb/internal/store"
)

func openFacade(t *testing.T) *crud.Facade {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return crud.New(s)
}

func TestApplyCreatesTablesAndFields(t *testing.T) {
	ctx := context.Background()
	f := openFacade(t)

	s, err := CompileSource("shop.cue", []byte(shopSchema))
	require.NoError(t, err)

	res, err := Apply(ctx, f, s)
	require.NoError(t, err)
	assert.Equal(t, []string{"customers", "orders"}, res.Created)
	assert.Empty(t, res.Existing)
	assert.Equal(t, 3, res.Defined)

	entries, err := f.Dictionary(ctx, "orders")
	require.NoError(t, err)
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	assert.Equal(t, []string{"CUSTOMER_ID", "QUANTITIES", "CODE", "CUSTOMER", "TOTAL_QTY"}, names)

	custID, err := f.CreateRecord(ctx, "customers", map[string]any{"first_name": "Ada", "last_name": "Lovelace"})
	require.NoError(t, err)
	orderID, err := f.CreateRecord(ctx, "orders", map[string]any{
		"customer_id": int64(custID.(mv.Number)),
		"quantities":  []any{2, 3, 5},
		"code":        "A-1",
	})
	require.NoError(t, err)

	rec, found, err := f.FindByID(ctx, "orders", int64(orderID.(mv.Number)))
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, mv.Text("Ada Lovelace"), rec["CUSTOMER"])
	assert.Equal(t, mv.Number(10), rec["TOTAL_QTY"])
}

func TestApplyIsRepeatable(t *testing.T) {
	ctx := context.Background()
	f := openFacade(t)

	s, err := CompileSource("shop.cue", []byte(shopSchema))
	require.NoError(t, err)

	_, err = Apply(ctx, f, s)
	require.NoError(t, err)

	res, err := Apply(ctx, f, s)
	require.NoError(t, err)
	assert.Empty(t, res.Created)
	assert.Equal(t, []string{"customers", "orders"}, res.Existing)

	entries, err := f.Dictionary(ctx, "customers")
	require.NoError(t, err)
	assert.Len(t, entries, 3, "redefined entries replace in place")
}

func TestApplyNormalizesFieldNames(t *testing.T) {
	ctx := context.Background()
	f := openFacade(t)

	s := &Schema{Tables: []TableSchema{{
		Name:    "items",
		Columns: []store.ColumnDef{{Name: "price", Type: "REAL"}},
		Dictionary: []dict.Entry{
			{Name: "price", Kind: dict.KindComputed, Spec: "num(price) * 2"},
		},
	}}}

	_, err := Apply(ctx, f, s)
	require.NoError(t, err)

	entries, err := f.Dictionary(ctx, "items")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "PRICE", entries[0].Name)
	assert.Equal(t, dict.KindComputed, entries[0].Kind)
}

func TestApplyStopsOnFailure(t *testing.T) {
	ctx := context.Background()
	f := openFacade(t)

	s := &Schema{Tables: []TableSchema{
		{Name: "good", Columns: []store.ColumnDef{{Name: "a", Type: "TEXT"}}},
		{Name: "bad", Columns: []store.ColumnDef{{Name: "a", Type: "NOT;A;TYPE"}}},
		{Name: "never", Columns: []store.ColumnDef{{Name: "a", Type: "TEXT"}}},
	}}

	res, err := Apply(ctx, f, s)
	require.Error(t, err)
	assert.ErrorIs(t, err, crud.ErrValidation)
	assert.Contains(t, err.Error(), "apply table bad")
	assert.Equal(t, []string{"good"}, res.Created)
	assert.False(t, f.TableExists(ctx, "never"))
}
