package compiler

import (
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pickdb/internal/dict"
	"github.com/roach88/pickdb/internal/store"
)

const shopSchema = `
table: customers: {
	columns: [
		{name: "first_name", type: "TEXT", not_null: true},
		{name: "last_name", type: "TEXT"},
	]
	dictionary: [{
		name:        "FULL_NAME"
		kind:        "Computed"
		spec:        "FIRST_NAME + ' ' + LAST_NAME"
		description: "Full name"
	}]
}

table: orders: {
	columns: [
		{name: "customer_id", type: "INTEGER"},
		{name: "quantities", type: "TEXT"},
		{name: "code", type: "TEXT", unique: true},
	]
	dictionary: [
		{name: "CUSTOMER", kind: "T", position: 1, spec: "Tcustomers;FULL_NAME"},
		{name: "TOTAL_QTY", kind: "Computed", spec: "SUM:QUANTITIES"},
	]
}
`

func TestCompileSchemaBasic(t *testing.T) {
	s, err := CompileSource("shop.cue", []byte(shopSchema))
	require.NoError(t, err)
	require.Len(t, s.Tables, 2)

	customers := s.Tables[0]
	assert.Equal(t, "customers", customers.Name)
	assert.Equal(t, []store.ColumnDef{
		{Name: "first_name", Type: "TEXT", NotNull: true},
		{Name: "last_name", Type: "TEXT"},
	}, customers.Columns)
	assert.Equal(t, []dict.Entry{{
		Name:        "FULL_NAME",
		Kind:        dict.KindComputed,
		Spec:        "FIRST_NAME + ' ' + LAST_NAME",
		Description: "Full name",
	}}, customers.Dictionary)

	orders := s.Tables[1]
	assert.Equal(t, "orders", orders.Name)
	assert.True(t, orders.Columns[2].Unique)
	require.Len(t, orders.Dictionary, 2)
	assert.Equal(t, dict.KindTranslate, orders.Dictionary[0].Kind, "one-letter kinds are accepted")
	assert.Equal(t, "1", orders.Dictionary[0].Position, "integer positions become ordinals")
	assert.Equal(t, "TOTAL_QTY", orders.Dictionary[1].Name)
}

func TestCompileSchemaTableLookup(t *testing.T) {
	s, err := CompileSource("shop.cue", []byte(shopSchema))
	require.NoError(t, err)

	orders, ok := s.Table("orders")
	require.True(t, ok)
	assert.Equal(t, []string{"customer_id", "quantities", "code"}, orders.DataColumns())

	_, ok = s.Table("missing")
	assert.False(t, ok)
}

func TestCompileTableFromPath(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(shopSchema)
	require.NoError(t, v.Err())

	tbl, err := CompileTable(v.LookupPath(cue.ParsePath("table.customers")))
	require.NoError(t, err)
	assert.Equal(t, "customers", tbl.Name)
	assert.Len(t, tbl.Columns, 2)
}

func TestCompileTableNamedPosition(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`
		table: items: {
			columns: [{name: "sku", type: "TEXT"}]
			dictionary: [{name: "CODE", kind: "Attribute", position: "sku"}]
		}
	`)
	tbl, err := CompileTable(v.LookupPath(cue.ParsePath("table.items")))
	require.NoError(t, err)
	assert.Equal(t, "sku", tbl.Dictionary[0].Position)
}

func TestCompileTableDeclaredIdentifier(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`
		table: notes: {
			columns: [
				{name: "id", type: "TEXT"},
				{name: "body", type: "TEXT"},
			]
		}
	`)
	tbl, err := CompileTable(v.LookupPath(cue.ParsePath("table.notes")))
	require.NoError(t, err)
	assert.Len(t, tbl.Columns, 2)
	assert.Equal(t, []string{"body"}, tbl.DataColumns())
	assert.Empty(t, tbl.Dictionary)
}

func TestCompileSchemaMissingTables(t *testing.T) {
	_, err := CompileSource("empty.cue", []byte(`other: 1`))
	require.Error(t, err)

	var compileErr *CompileError
	require.ErrorAs(t, err, &compileErr)
	assert.Equal(t, "table", compileErr.Field)
}

func TestCompileTableMissingColumns(t *testing.T) {
	_, err := CompileSource("bad.cue", []byte(`table: t: { dictionary: [] }`))
	require.Error(t, err)

	var compileErr *CompileError
	require.ErrorAs(t, err, &compileErr)
	assert.Equal(t, "columns", compileErr.Field)
	assert.Contains(t, compileErr.Message, "columns are required")
}

func TestCompileTableMissingColumnName(t *testing.T) {
	_, err := CompileSource("bad.cue", []byte(`table: t: { columns: [{type: "TEXT"}] }`))
	require.Error(t, err)

	var compileErr *CompileError
	require.ErrorAs(t, err, &compileErr)
	assert.Equal(t, "columns.name", compileErr.Field)
}

func TestCompileTableUnknownKind(t *testing.T) {
	_, err := CompileSource("bad.cue", []byte(`
		table: t: {
			columns: [{name: "a", type: "TEXT"}]
			dictionary: [{name: "X", kind: "Lookup"}]
		}
	`))
	require.Error(t, err)

	var compileErr *CompileError
	require.ErrorAs(t, err, &compileErr)
	assert.Equal(t, "dictionary.X.kind", compileErr.Field)
	assert.Contains(t, compileErr.Message, `unknown kind "Lookup"`)
}

func TestCompileTableWrongFieldType(t *testing.T) {
	_, err := CompileSource("bad.cue", []byte(`
		table: t: {
			columns: [{name: "a", type: "TEXT", not_null: "yes"}]
		}
	`))
	require.Error(t, err)
}

func TestCompileTableBadPositionKind(t *testing.T) {
	_, err := CompileSource("bad.cue", []byte(`
		table: t: {
			columns: [{name: "a", type: "TEXT"}]
			dictionary: [{name: "X", kind: "A", position: true}]
		}
	`))
	require.Error(t, err)

	var compileErr *CompileError
	require.ErrorAs(t, err, &compileErr)
	assert.Equal(t, "position", compileErr.Field)
}

func TestCompileSchemaInvalidCUESyntax(t *testing.T) {
	_, err := CompileSource("broken.cue", []byte(`table: t: { columns: [ `))
	require.Error(t, err)
}

func TestCompileSchemaErrorPosition(t *testing.T) {
	_, err := CompileSource("shop.cue", []byte(`
table: t: {
	columns: [{name: "a", type: "TEXT"}]
	dictionary: [{name: "X", kind: "Bogus"}]
}
`))
	require.Error(t, err)

	var compileErr *CompileError
	require.ErrorAs(t, err, &compileErr)
	require.True(t, compileErr.Pos.IsValid())
	assert.Equal(t, 4, compileErr.Pos.Line())
	assert.Contains(t, err.Error(), "shop.cue:4:")
}

func TestCompileErrorFormat(t *testing.T) {
	err := &CompileError{Field: "columns", Message: "columns are required"}
	assert.Equal(t, "columns: columns are required", err.Error())
}
