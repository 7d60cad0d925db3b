package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pickdb/internal/dict"
	"github.com/roach88/pickdb/internal/store"
)

// translating builds a table whose Translate entries read each target's NAME.
func translating(name string, targets ...string) TableSchema {
	t := TableSchema{
		Name:    name,
		Columns: []store.ColumnDef{{Name: "name", Type: "TEXT"}},
	}
	for _, target := range targets {
		col := target + "_id"
		t.Columns = append(t.Columns, store.ColumnDef{Name: col, Type: "INTEGER"})
		t.Dictionary = append(t.Dictionary, dict.Entry{
			Name:     dict.FieldName(target),
			Kind:     dict.KindTranslate,
			Position: col,
			Spec:     dict.TranslateSpec(target, "NAME"),
		})
	}
	return t
}

func TestAnalyzeCycles_Empty(t *testing.T) {
	assert.Empty(t, AnalyzeCycles(nil))
	assert.Empty(t, AnalyzeCycles(&Schema{}))
}

func TestAnalyzeCycles_DAG(t *testing.T) {
	s := &Schema{Tables: []TableSchema{
		translating("orders", "customers", "products"),
		translating("customers", "regions"),
		translating("products"),
		translating("regions"),
	}}

	warnings := AnalyzeCycles(s)
	assert.Empty(t, warnings, "DAG should produce no cycle warnings")
}

func TestAnalyzeCycles_SelfLoop(t *testing.T) {
	s := &Schema{Tables: []TableSchema{translating("employees", "employees")}}

	warnings := AnalyzeCycles(s)
	require.Len(t, warnings, 1)
	assert.Equal(t, []string{"employees", "employees"}, warnings[0].Path)
	assert.Equal(t, "info", warnings[0].Level)
	assert.Contains(t, warnings[0].Message, "translates into itself")
}

func TestAnalyzeCycles_TwoTableCycle(t *testing.T) {
	s := &Schema{Tables: []TableSchema{
		translating("orders", "customers"),
		translating("customers", "orders"),
	}}

	warnings := AnalyzeCycles(s)
	require.Len(t, warnings, 1)

	w := warnings[0]
	assert.Equal(t, "warning", w.Level)
	require.Len(t, w.Path, 3)
	assert.Equal(t, w.Path[0], w.Path[2])
	assert.ElementsMatch(t, []string{"orders", "customers"}, w.Path[:2])
	assert.Contains(t, w.Message, "Translate cycle between tables")
	assert.Contains(t, w.Message, " → ")
}

func TestAnalyzeCycles_ThreeTableCycle(t *testing.T) {
	s := &Schema{Tables: []TableSchema{
		translating("a", "b"),
		translating("b", "c"),
		translating("c", "a"),
	}}

	warnings := AnalyzeCycles(s)
	require.Len(t, warnings, 1)
	assert.Len(t, warnings[0].Path, 4)
	assert.Equal(t, warnings[0].Path[0], warnings[0].Path[3])
}

func TestAnalyzeCycles_MultipleIndependentCycles(t *testing.T) {
	s := &Schema{Tables: []TableSchema{
		translating("a", "b"),
		translating("b", "a"),
		translating("c", "d"),
		translating("d", "c"),
		translating("e", "e"),
		translating("f", "a"),
	}}

	warnings := AnalyzeCycles(s)
	assert.Len(t, warnings, 3)
}

func TestAnalyzeCycles_SkipsUnparseableSpecs(t *testing.T) {
	tbl := translating("orders")
	tbl.Dictionary = append(tbl.Dictionary, dict.Entry{
		Name:     "BROKEN",
		Kind:     dict.KindTranslate,
		Position: "name",
		Spec:     "orders;NAME",
	})

	warnings := AnalyzeCycles(&Schema{Tables: []TableSchema{tbl}})
	assert.Empty(t, warnings)
}

func TestAnalyzeCycles_Deterministic(t *testing.T) {
	s := &Schema{Tables: []TableSchema{
		translating("x", "y"),
		translating("y", "x"),
		translating("m", "n"),
		translating("n", "m"),
	}}

	first := AnalyzeCycles(s)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, AnalyzeCycles(s))
	}
}

func TestBuildDependencyGraph_Basic(t *testing.T) {
	graph := buildDependencyGraph([]TableSchema{
		translating("orders", "customers", "customers"),
		translating("customers"),
	})

	assert.Equal(t, []string{"customers"}, graph["orders"], "duplicate targets collapse to one edge")
	assert.Empty(t, graph["customers"])
}

func TestBuildDependencyGraph_ExternalTarget(t *testing.T) {
	graph := buildDependencyGraph([]TableSchema{translating("orders", "legacy")})

	assert.Contains(t, graph["orders"], "legacy")
	_, ok := graph["legacy"]
	assert.True(t, ok, "targets outside the schema become nodes")
}

func TestHasSelfLoop(t *testing.T) {
	graph := dependencyGraph{
		"self-loop": {"self-loop"},
		"no-loop":   {"other"},
		"no-edges":  {},
	}

	assert.True(t, hasSelfLoop("self-loop", graph))
	assert.False(t, hasSelfLoop("no-loop", graph))
	assert.False(t, hasSelfLoop("no-edges", graph))
}

func TestTarjanSCC_SingleNode(t *testing.T) {
	sccs := tarjanSCC(dependencyGraph{"a": {}})
	require.Len(t, sccs, 1)
	assert.Equal(t, []string{"a"}, sccs[0])
}

func TestTarjanSCC_TwoNodeCycle(t *testing.T) {
	sccs := tarjanSCC(dependencyGraph{"a": {"b"}, "b": {"a"}})
	require.Len(t, sccs, 1)
	assert.Len(t, sccs[0], 2)
}

func TestTarjanSCC_DAG(t *testing.T) {
	sccs := tarjanSCC(dependencyGraph{
		"a": {"b", "c"},
		"b": {"c"},
		"c": {},
	})

	assert.Len(t, sccs, 3)
	for _, scc := range sccs {
		assert.Len(t, scc, 1)
	}
}

func TestReconstructCyclePath(t *testing.T) {
	assert.Empty(t, reconstructCyclePath([]string{}, dependencyGraph{}))

	path := reconstructCyclePath([]string{"a", "b"}, dependencyGraph{"a": {"b"}, "b": {"a"}})
	assert.Equal(t, []string{"a", "b", "a"}, path)
}
