package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pickdb/internal/queryir"
)

func TestCreateTable_IntrospectsColumns(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	createProducts(t, s)

	ok, err := s.TableExists(ctx, "products")
	require.NoError(t, err)
	assert.True(t, ok)

	cols, err := s.Columns(ctx, "products")
	require.NoError(t, err)
	require.Len(t, cols, 4)
	assert.Equal(t, Column{Name: "id", Type: "INTEGER", PrimaryKey: true}, cols[0])
	assert.Equal(t, Column{Name: "name", Type: "TEXT", NotNull: true}, cols[1])
	assert.Equal(t, []string{"name", "price", "stock"}, DataColumns(cols))
}

func TestCreateTable_ExplicitTextID(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	err := s.CreateTable(ctx, "notes", []ColumnDef{
		{Name: "id", Type: "text"},
		{Name: "body"},
	})
	require.NoError(t, err)

	cols, err := s.Columns(ctx, "notes")
	require.NoError(t, err)
	require.Len(t, cols, 2)
	assert.Equal(t, "TEXT", cols[0].Type)
	assert.True(t, cols[0].PrimaryKey)
}

func TestCreateTable_Rejects(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	err := s.CreateTable(ctx, "bad name", nil)
	assert.ErrorIs(t, err, queryir.ErrInvalidIdentifier)

	err = s.CreateTable(ctx, "t", []ColumnDef{{Name: "a"}, {Name: "A"}})
	assert.ErrorIs(t, err, ErrInvalidSchema)
	assert.ErrorContains(t, err, "duplicate column")

	err = s.CreateTable(ctx, "t", []ColumnDef{{Name: "a", Type: "TEXT); DROP TABLE x; --"}})
	assert.ErrorIs(t, err, ErrInvalidSchema)
	assert.ErrorContains(t, err, "invalid type")
}

func TestCreateTable_AcceptsParameterizedTypes(t *testing.T) {
	s := createTestStore(t)
	err := s.CreateTable(context.Background(), "money", []ColumnDef{
		{Name: "amount", Type: "NUMERIC(18,2)"},
		{Name: "ratio", Type: "double precision"},
	})
	assert.NoError(t, err)
}

func TestDropTable(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	createProducts(t, s)

	require.NoError(t, s.DropTable(ctx, "products"))
	ok, err := s.TableExists(ctx, "products")
	require.NoError(t, err)
	assert.False(t, ok)

	// Dropping a missing table is not an error
	assert.NoError(t, s.DropTable(ctx, "products"))
}

func TestTableExists_IgnoresCase(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	createProducts(t, s)

	for _, name := range []string{"PRODUCTS", "Products"} {
		ok, err := s.TableExists(ctx, name)
		require.NoError(t, err)
		assert.True(t, ok, name)

		cols, err := s.Columns(ctx, name)
		require.NoError(t, err)
		assert.Len(t, cols, 4, name)
	}
}

func TestColumns_MissingTable(t *testing.T) {
	s := createTestStore(t)
	cols, err := s.Columns(context.Background(), "nope")
	require.NoError(t, err)
	assert.Empty(t, cols)
}
