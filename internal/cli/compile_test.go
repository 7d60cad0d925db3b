package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pickdb/internal/compiler"
)

// writeCUE writes content to dir/name and returns dir.
func writeCUE(t *testing.T, dir, name, content string) string {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	return dir
}

const productsCUE = `
table: products: {
	columns: [
		{name: "name", type: "TEXT", not_null: true},
		{name: "stock_levels", type: "TEXT"},
	]
	dictionary: [
		{name: "TOTAL_STOCK", kind: "Computed", spec: "SUM:STOCK_LEVELS"},
		{name: "LOW_STOCK", kind: "C", spec: "TOTAL_STOCK < 5"},
	]
}
`

func TestCompileSchemaFile(t *testing.T) {
	out, err := execute(t, "compile", shopSchema)
	require.NoError(t, err)

	assert.Contains(t, out, "✓ Compiled 2 table(s), 5 column(s), 3 dictionary field(s)")
	assert.Contains(t, out, "customers: 2 column(s), 1 field(s)")
	assert.Contains(t, out, "orders: 3 column(s), 2 field(s)")
}

func TestCompileSchemaJSON(t *testing.T) {
	out, err := execute(t, "--format", "json", "compile", shopSchema)
	require.NoError(t, err)

	var resp struct {
		Status string          `json:"status"`
		Data   compiler.Schema `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, resp.Data.Tables, 2)
	assert.Equal(t, "customers", resp.Data.Tables[0].Name)

	orders, ok := resp.Data.Table("orders")
	require.True(t, ok)
	require.Len(t, orders.Dictionary, 2)
	assert.Equal(t, "1", orders.Dictionary[0].Position)
	assert.Equal(t, "Tcustomers;FULL_NAME", orders.Dictionary[0].Spec)
}

func TestCompileDirectory(t *testing.T) {
	dir := writeCUE(t, t.TempDir(), "products.cue", productsCUE)

	out, err := execute(t, "compile", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Compiled 1 table(s), 2 column(s), 2 dictionary field(s)")
}

func TestCompileOutputToFile(t *testing.T) {
	dir := writeCUE(t, t.TempDir(), "products.cue", productsCUE)
	outFile := filepath.Join(t.TempDir(), "schema.json")

	out, err := execute(t, "compile", dir, "-o", outFile)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote compiled schema to "+outFile)

	data, err := os.ReadFile(outFile)
	require.NoError(t, err)
	var schema compiler.Schema
	require.NoError(t, json.Unmarshal(data, &schema))
	require.Len(t, schema.Tables, 1)
	assert.Equal(t, "products", schema.Tables[0].Name)
	assert.Len(t, schema.Tables[0].Dictionary, 2)
}

func TestCompileNonExistentPath(t *testing.T) {
	out, err := execute(t, "compile", "/nonexistent/schemas")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E005]")
}

func TestCompileEmptyDirectory(t *testing.T) {
	out, err := execute(t, "compile", t.TempDir())
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "no CUE files found")
}

func TestCompileNonCUEFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0644))

	_, err := execute(t, "compile", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a CUE file")
}

func TestCompileNoTables(t *testing.T) {
	dir := writeCUE(t, t.TempDir(), "empty.cue", `other: 1`)

	out, err := execute(t, "compile", dir)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, ErrCodeNoTables)
}

func TestCompileCollectsAllTableErrors(t *testing.T) {
	dir := writeCUE(t, t.TempDir(), "bad.cue", `
table: a: {dictionary: []}
table: b: {columns: [{name: "x", type: "TEXT"}], dictionary: [{name: "Y", kind: "Lookup"}]}
table: c: {columns: [{name: "z", type: "TEXT"}]}
`)

	out, err := execute(t, "--format", "json", "compile", dir)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "compilation failed with 2 error(s)")

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, compiler.ErrInvalidColumn, resp.Error.Code)
	assert.Len(t, resp.Data, 2)
}

func TestCompileInvalidTableText(t *testing.T) {
	dir := writeCUE(t, t.TempDir(), "bad.cue", `table: b: {columns: [{name: "x", type: "TEXT"}], dictionary: [{name: "Y", kind: "Lookup"}]}`)

	out, err := execute(t, "compile", dir)
	require.Error(t, err)
	assert.Contains(t, out, "✗ Compilation failed")
	assert.Contains(t, out, `unknown kind "Lookup"`)
}

func TestCompileVerboseOutput(t *testing.T) {
	dir := writeCUE(t, t.TempDir(), "products.cue", productsCUE)

	cmd := NewRootCommand()
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs([]string{"-v", "compile", dir})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, errOut.String(), "Found 1 CUE file(s)")
	assert.Contains(t, errOut.String(), "Compiled table: products")
	assert.NotContains(t, out.String(), "Compiled table:")
}

func TestFindCUEFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested"), 0755))
	writeCUE(t, dir, "a.cue", "")
	writeCUE(t, filepath.Join(dir, "nested"), "b.cue", "")
	writeCUE(t, dir, "notes.txt", "")

	files, err := FindCUEFiles(dir)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		filepath.Join(dir, "a.cue"),
		filepath.Join(dir, "nested", "b.cue"),
	}, files)
}

func TestMapFieldToErrorCode(t *testing.T) {
	tests := []struct {
		field string
		want  string
	}{
		{"table", ErrCodeNoTables},
		{"columns", compiler.ErrInvalidColumn},
		{"columns.sku.type", compiler.ErrInvalidColumn},
		{"position", compiler.ErrInvalidPosition},
		{"dictionary.TOTAL.kind", compiler.ErrInvalidEntry},
		{"dictionary.name", compiler.ErrInvalidEntry},
		{"cue", ErrCodeBuildFailed},
		{"unknown", ErrCodeGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			assert.Equal(t, tt.want, MapFieldToErrorCode(tt.field))
		})
	}
}

func TestCalculateStats(t *testing.T) {
	loadResult, errs := LoadSchemas(shopSchema, LoadModeFailFast)
	require.Empty(t, errs)

	stats := calculateStats(loadResult.Schema)
	assert.Equal(t, CompilationStats{TableCount: 2, ColumnCount: 5, FieldCount: 3}, stats)
	assert.Equal(t, 1, loadResult.FileCount)
}
