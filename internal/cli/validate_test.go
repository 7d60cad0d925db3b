package cli

import (
	"encoding/json"
	"testing"

	"cuelang.org/go/cue/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pickdb/internal/compiler"
)

const employeesCUE = `
table: employees: {
	columns: [
		{name: "name", type: "TEXT"},
		{name: "manager_id", type: "INTEGER"},
	]
	dictionary: [{name: "MANAGER", kind: "Translate", position: 2, spec: "Temployees;name"}]
}
`

func TestValidateValidSchema(t *testing.T) {
	out, err := execute(t, "validate", shopSchema)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ All tables valid")
	assert.NotContains(t, out, "Warnings:")
}

func TestValidateValidSchemaJSON(t *testing.T) {
	out, err := execute(t, "--format", "json", "validate", shopSchema)
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Valid)
	assert.Empty(t, resp.Data.Errors)
}

func TestValidateReportsTranslateCycles(t *testing.T) {
	dir := writeCUE(t, t.TempDir(), "employees.cue", employeesCUE)

	out, err := execute(t, "validate", dir)
	require.NoError(t, err, "cycles are warnings, not errors")
	assert.Contains(t, out, "✓ All tables valid")
	assert.Contains(t, out, "Warnings:")
	assert.Contains(t, out, "translates into itself: employees → employees")
}

func TestValidateNonExistentPath(t *testing.T) {
	out, err := execute(t, "validate", "/nonexistent/schemas")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "schema path not found")
}

func TestValidateEmptyDirectory(t *testing.T) {
	_, err := execute(t, "validate", t.TempDir())
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), ErrCodeNoFiles)
}

func TestValidateInvalidSchema(t *testing.T) {
	dir := writeCUE(t, t.TempDir(), "bad.cue", `
table: orders: {
	columns: [
		{name: "qty", type: "TEXT; DROP"},
		{name: "qty", type: "TEXT"},
	]
	dictionary: [
		{name: "TOTAL", kind: "Computed", spec: "MISSING + 1"},
		{name: "CUSTOMER", kind: "Translate", position: 1, spec: "customers"},
	]
}
`)

	out, err := execute(t, "validate", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err), "invalid schemas are failures, not command errors")
	assert.Contains(t, out, "✗ Validation failed")
	assert.Contains(t, out, "["+compiler.ErrInvalidColumn+"]")
	assert.Contains(t, out, "["+compiler.ErrDuplicateColumn+"]")
	assert.Contains(t, out, "["+compiler.ErrUndefinedReference+"]")
	assert.Contains(t, out, "["+compiler.ErrInvalidTranslate+"]")
}

func TestValidateInvalidSchemaJSON(t *testing.T) {
	dir := writeCUE(t, t.TempDir(), "bad.cue", `table: orders_dict: columns: [{name: "a", type: "TEXT"}]`)

	out, err := execute(t, "--format", "json", "validate", dir)
	require.Error(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
		Error  *CLIError        `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.False(t, resp.Data.Valid)
	require.Len(t, resp.Data.Errors, 1)
	assert.Equal(t, compiler.ErrInvalidTableName, resp.Data.Errors[0].Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, compiler.ErrInvalidTableName, resp.Error.Code)
}

func TestValidateIncludesCompileErrors(t *testing.T) {
	dir := writeCUE(t, t.TempDir(), "bad.cue", `
table: a: {dictionary: []}
table: b: {columns: [{name: "x", type: "TEXT"}]}
`)

	out, err := execute(t, "validate", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "columns are required")
}

func TestLineOf(t *testing.T) {
	assert.Equal(t, 0, lineOf(token.NoPos))
}
