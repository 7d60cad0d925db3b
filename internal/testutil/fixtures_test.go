package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pickdb/internal/mv"
)

func TestSeedProducts(t *testing.T) {
	f := NewFacade(t)
	SeedProducts(t, f)
	ctx := context.Background()

	recs, err := f.FindAll(ctx, "products")
	require.NoError(t, err)
	require.Len(t, recs, 2)

	assert.Equal(t, mv.Text("Widget"), recs[0]["NAME"])
	assert.Equal(t, mv.Number(18), recs[0]["TOTAL_STOCK"])
	assert.Equal(t, mv.Bool(false), recs[0]["LOW_STOCK"])
	assert.Equal(t, mv.Number(2), recs[1]["TOTAL_STOCK"])
	assert.Equal(t, mv.Bool(true), recs[1]["LOW_STOCK"])
}

func TestNewFacade_Isolated(t *testing.T) {
	a := NewFacade(t)
	SeedProducts(t, a)

	b := NewFacade(t)
	assert.False(t, b.TableExists(context.Background(), "products"))
}
