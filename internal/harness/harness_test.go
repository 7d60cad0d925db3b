package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pickdb/internal/dict"
	"github.com/roach88/pickdb/internal/store"
)

// ordersScenario builds an orders table with a TOTAL field and the given flow.
func ordersScenario(name string, flow ...FlowStep) *Scenario {
	return &Scenario{
		Name:        name,
		Description: "Orders with a computed total",
		Tables: []TableStep{{
			Name: "orders",
			Columns: []store.ColumnDef{
				{Name: "code", Type: "TEXT"},
				{Name: "quantities", Type: "TEXT"},
			},
		}},
		Fields: []FieldStep{{
			Table: "orders",
			Entry: dict.Entry{Name: "TOTAL", Kind: dict.KindComputed, Spec: "SUM:QUANTITIES"},
		}},
		Flow: flow,
	}
}

func insertOrder(ref, code string, quantities ...int) FlowStep {
	return FlowStep{
		Op:     OpInsert,
		Table:  "orders",
		Ref:    ref,
		Values: map[string]any{"code": code, "quantities": quantities},
	}
}

func TestRun_MinimalScenario(t *testing.T) {
	scenario := ordersScenario("minimal",
		insertOrder("first", "A-1", 2, 3),
		FlowStep{Op: OpGet, Table: "orders", ID: "$first", Fields: []string{"TOTAL"}},
	)

	result, err := Run(scenario)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.True(t, result.Pass)
	assert.Empty(t, result.Errors)

	require.Len(t, result.Trace, 2)
	assert.Equal(t, TraceEvent{Seq: 1, Op: OpInsert, Table: "orders", Outcome: OutcomeOK, Result: int64(1)}, result.Trace[0])
	assert.Equal(t, map[string]any{"TOTAL": float64(5)}, result.Trace[1].Result)
	assert.Equal(t, int64(1), result.Refs["first"])
}

func TestRun_ExpectClause(t *testing.T) {
	scenario := ordersScenario("expect",
		insertOrder("first", "A-1", 2, 3),
		FlowStep{
			Op: OpGet, Table: "orders", ID: "$first",
			Expect: &ExpectClause{Result: map[string]any{"TOTAL": 5, "code": "A-1"}},
		},
	)

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, result.Errors)
}

func TestRun_ExpectMismatchFails(t *testing.T) {
	scenario := ordersScenario("expect_mismatch",
		insertOrder("first", "A-1", 2, 3),
		FlowStep{
			Op: OpGet, Table: "orders", ID: "$first",
			Expect: &ExpectClause{Result: map[string]any{"TOTAL": 6}},
		},
		FlowStep{
			Op: OpGet, Table: "orders", ID: 42,
			Expect: &ExpectClause{},
		},
	)

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], "flow[1] get orders: expected result")
	assert.Contains(t, result.Errors[1], "expected outcome ok, got not_found")
}

func TestRun_ErrorOutcomes(t *testing.T) {
	scenario := ordersScenario("error_outcomes",
		FlowStep{
			Op: OpInsert, Table: "orders",
			Values: map[string]any{"colour": "red"},
			Expect: &ExpectClause{Outcome: OutcomeValidationError},
		},
		FlowStep{
			Op: OpInsert, Table: "orders",
			Values: map[string]any{"quantities": []any{"1]2"}},
			Expect: &ExpectClause{Outcome: OutcomeValidationError},
		},
		FlowStep{
			Op: OpWhere, Table: "orders", Filter: "TOTAL ==",
			Expect: &ExpectClause{Outcome: OutcomeValidationError},
		},
		FlowStep{
			Op: OpUpdate, Table: "orders", ID: 7,
			Values: map[string]any{"code": "X"},
			Expect: &ExpectClause{Outcome: OutcomeNotFound},
		},
		FlowStep{
			Op: OpDelete, Table: "orders", ID: 7,
			Expect: &ExpectClause{Outcome: OutcomeNotFound},
		},
	)

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, result.Errors)

	for _, event := range result.Trace {
		assert.Nil(t, event.Result, "failed steps carry no result")
	}
}

func TestRun_Deterministic(t *testing.T) {
	build := func() *Scenario {
		s := ordersScenario("deterministic",
			insertOrder("a", "A-1", 1),
			insertOrder("b", "A-2", 2, 2),
			FlowStep{Op: OpList, Table: "orders", Fields: []string{"code", "TOTAL"}},
			FlowStep{Op: OpCount, Table: "orders"},
		)
		return s
	}

	first, err := Run(build())
	require.NoError(t, err)
	second, err := Run(build())
	require.NoError(t, err)

	assert.Equal(t, first.Trace, second.Trace)
	assert.Equal(t, []any{
		map[string]any{"code": "A-1", "TOTAL": float64(1)},
		map[string]any{"code": "A-2", "TOTAL": float64(4)},
	}, first.Trace[2].Result)
	assert.Equal(t, int64(2), first.Trace[3].Result)
}

func TestRun_FreshDatabasePerRun(t *testing.T) {
	scenario := ordersScenario("fresh", insertOrder("a", "A-1", 1))

	for range 2 {
		result, err := Run(scenario)
		require.NoError(t, err)
		assert.Equal(t, int64(1), result.Trace[0].Result, "every run starts from an empty database")
	}
}

func TestRun_TextIdentifiers(t *testing.T) {
	scenario := &Scenario{
		Name:        "text_ids",
		Description: "Generated text identifiers",
		IDPrefix:    "cust",
		Tables: []TableStep{{
			Name:    "customers",
			Columns: []store.ColumnDef{{Name: "id", Type: "TEXT"}, {Name: "name", Type: "TEXT"}},
		}},
		Flow: []FlowStep{
			{Op: OpInsert, Table: "customers", Ref: "ada", Values: map[string]any{"name": "Ada"}},
			{Op: OpInsert, Table: "customers", Values: map[string]any{"name": "Grace"}},
			{Op: OpGet, Table: "customers", ID: "$ada", Fields: []string{"NAME"}},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.Equal(t, "cust-1", result.Trace[0].Result)
	assert.Equal(t, "cust-2", result.Trace[1].Result)
	assert.Equal(t, map[string]any{"NAME": "Ada"}, result.Trace[2].Result)
}

func TestRun_DictionaryOperations(t *testing.T) {
	scenario := ordersScenario("dictionary_ops",
		insertOrder("first", "A-1", 2, 3),
		FlowStep{
			Op: OpDefine, Table: "orders",
			Field: &dict.Entry{Name: "BIG", Kind: dict.KindComputed, Spec: "TOTAL > 4"},
		},
		FlowStep{Op: OpGet, Table: "orders", ID: "$first", Fields: []string{"BIG"}},
		FlowStep{Op: OpDropField, Table: "orders", Field: &dict.Entry{Name: "BIG"}},
		FlowStep{
			Op: OpDropField, Table: "orders", Field: &dict.Entry{Name: "BIG"},
			Expect: &ExpectClause{Outcome: OutcomeNotFound},
		},
		FlowStep{Op: OpDropTable, Table: "orders"},
		FlowStep{Op: OpCount, Table: "orders", Expect: &ExpectClause{Result: 0}},
	)
	scenario.Assertions = []Assertion{
		{Type: AssertTraceCount, Op: OpDropField, Count: 2},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, result.Errors)
	assert.Equal(t, map[string]any{"BIG": true}, result.Trace[2].Result)
}

func TestRun_Assertions(t *testing.T) {
	scenario := ordersScenario("assertions",
		insertOrder("first", "A-1", 2, 3),
		insertOrder("second", "A-2", 4),
	)
	scenario.Assertions = []Assertion{
		{Type: AssertTraceContains, Op: OpInsert, Table: "orders"},
		{Type: AssertRecord, Table: "orders", ID: "$first", Expect: map[string]any{"TOTAL": 5}, Absent: []string{"MISSING"}},
		{Type: AssertDictionary, Table: "orders", Entries: []string{"CODE", "QUANTITIES", "TOTAL"}},
		{Type: AssertCount, Table: "orders", Where: map[string]any{"code": "A-2"}, Count: 1},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, result.Errors)
}

func TestRun_AssertionFailures(t *testing.T) {
	scenario := ordersScenario("assertion_failures", insertOrder("first", "A-1", 2, 3))
	scenario.Assertions = []Assertion{
		{Type: AssertTraceContains, Op: OpDelete},
		{Type: AssertRecord, Table: "orders", ID: "$first", Expect: map[string]any{"TOTAL": 9}},
		{Type: AssertRecord, Table: "orders", ID: 99, Expect: map[string]any{"TOTAL": 5}},
		{Type: AssertCount, Table: "orders", Count: 3},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 4)
	assert.Contains(t, result.Errors[0], "not found in trace")
	assert.Contains(t, result.Errors[1], "TOTAL = 5")
	assert.Contains(t, result.Errors[2], "not found")
	assert.Contains(t, result.Errors[3], "1 records")
}

func TestRun_SchemaFiles(t *testing.T) {
	dir := t.TempDir()
	schema := `
table: notes: {
	columns: [{name: "body", type: "TEXT"}]
	dictionary: [{name: "SHOUTED", kind: "Computed", spec: "BODY + '!'"}]
}
`
	path := filepath.Join(dir, "notes.cue")
	require.NoError(t, os.WriteFile(path, []byte(schema), 0644))

	scenario := &Scenario{
		Name:        "schema_files",
		Description: "Tables from a schema file",
		Schemas:     []string{path},
		Flow: []FlowStep{
			{Op: OpInsert, Table: "notes", Values: map[string]any{"body": "hi"}},
			{Op: OpGet, Table: "notes", ID: 1, Fields: []string{"SHOUTED"}},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"SHOUTED": "hi!"}, result.Trace[1].Result)
}

func TestRun_SetupFailure(t *testing.T) {
	tests := []struct {
		name     string
		scenario *Scenario
		errMsg   string
	}{
		{
			name: "bad table",
			scenario: &Scenario{
				Name:   "bad_table",
				Tables: []TableStep{{Name: "bad name", Columns: []store.ColumnDef{{Name: "a"}}}},
			},
			errMsg: "tables[0]",
		},
		{
			name: "bad field",
			scenario: &Scenario{
				Name:   "bad_field",
				Tables: []TableStep{{Name: "t", Columns: []store.ColumnDef{{Name: "a"}}}},
				Fields: []FieldStep{{Table: "t", Entry: dict.Entry{Name: "X", Kind: "Q"}}},
			},
			errMsg: "fields[0]",
		},
		{
			name: "missing schema",
			scenario: &Scenario{
				Name:    "missing_schema",
				Schemas: []string{"/nonexistent/schema.cue"},
			},
			errMsg: "read schema",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Run(tt.scenario)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "failed to execute setup")
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestResult_AddError(t *testing.T) {
	r := NewResult()
	assert.True(t, r.Pass)

	r.AddError("boom")
	assert.False(t, r.Pass)
	assert.Equal(t, []string{"boom"}, r.Errors)
}

func TestResult_AddTrace(t *testing.T) {
	r := NewResult()
	r.AddTrace(1, OpCount, "orders", OutcomeOK, int64(3))

	require.Len(t, r.Trace, 1)
	assert.Equal(t, TraceEvent{Seq: 1, Op: OpCount, Table: "orders", Outcome: OutcomeOK, Result: int64(3)}, r.Trace[0])
}
