package compiler

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/pickdb/internal/dict"
)

// CycleWarning represents tables whose Translate entries lead back to
// themselves.
//
// Cycles are warnings, not errors: self-references such as an employee's
// manager are common, and the resolver stops nesting at its depth bound.
type CycleWarning struct {
	Path    []string `json:"path"`    // Cycle path: ["orders", "customers", "orders"]
	Message string   `json:"message"` // Human-readable description
	Level   string   `json:"level"`   // "warning" or "info"
}

// AnalyzeCycles builds the table graph formed by Translate entries and reports
// each strongly connected component with more than one table, or a table that
// translates into itself.
//
// Translate entries whose spec does not parse are skipped; Validate reports them.
// A DAG (no cycles) returns an empty warning list.
func AnalyzeCycles(s *Schema) []CycleWarning {
	if s == nil || len(s.Tables) == 0 {
		return []CycleWarning{}
	}

	graph := buildDependencyGraph(s.Tables)
	sccs := tarjanSCC(graph)

	warnings := []CycleWarning{}
	for _, scc := range sccs {
		if len(scc) > 1 || (len(scc) == 1 && hasSelfLoop(scc[0], graph)) {
			warnings = append(warnings, cycleSCCToWarning(scc, graph))
		}
	}

	return warnings
}

// dependencyGraph maps table → tables its Translate entries read.
type dependencyGraph map[string][]string

// buildDependencyGraph adds one edge per distinct Translate target. Targets
// outside the schema become nodes without edges.
func buildDependencyGraph(tables []TableSchema) dependencyGraph {
	graph := make(dependencyGraph)

	for _, t := range tables {
		if graph[t.Name] == nil {
			graph[t.Name] = []string{}
		}
		seen := make(map[string]bool)
		for _, e := range t.Dictionary {
			kind, ok := dict.ParseKind(string(e.Kind))
			if !ok || kind != dict.KindTranslate {
				continue
			}
			target, _, ok := dict.ParseTranslateSpec(e.Spec)
			if !ok || seen[target] {
				continue
			}
			seen[target] = true
			graph[t.Name] = append(graph[t.Name], target)
			if graph[target] == nil {
				graph[target] = []string{}
			}
		}
	}

	return graph
}

// hasSelfLoop checks if a node has an edge to itself.
func hasSelfLoop(node string, graph dependencyGraph) bool {
	for _, neighbor := range graph[node] {
		if neighbor == node {
			return true
		}
	}
	return false
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
//
// Returns a list of SCCs, where each SCC is a list of table names.
// Single-node SCCs without self-loops are NOT cycles.
func tarjanSCC(graph dependencyGraph) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		// Set the depth index for v
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		// Consider successors of v
		for _, w := range graph[v] {
			if _, visited := indices[w]; !visited {
				// Successor w has not yet been visited; recurse on it
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				// Successor w is on stack and hence in the current SCC
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		// If v is a root node, pop the stack and create an SCC
		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	// Visit nodes in name order so warnings are stable.
	nodes := make([]string, 0, len(graph))
	for node := range graph {
		nodes = append(nodes, node)
	}
	sort.Strings(nodes)
	for _, node := range nodes {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}

	return sccs
}

// cycleSCCToWarning converts an SCC to a CycleWarning.
//
// The path shows the cycle sequence by reconstructing a path through the SCC.
// For self-loops, the path is [table, table].
// For multi-node cycles, the path shows a cycle traversal.
func cycleSCCToWarning(scc []string, graph dependencyGraph) CycleWarning {
	if len(scc) == 1 {
		table := scc[0]
		return CycleWarning{
			Path:    []string{table, table},
			Message: fmt.Sprintf("Table translates into itself: %s → %s", table, table),
			Level:   "info",
		}
	}

	// Multi-node cycle - reconstruct a cycle path
	path := reconstructCyclePath(scc, graph)

	pathStr := strings.Join(path, " → ")
	return CycleWarning{
		Path:    path,
		Message: fmt.Sprintf("Translate cycle between tables: %s", pathStr),
		Level:   "warning",
	}
}

// reconstructCyclePath builds a cycle path from an SCC.
//
// Strategy: Start at first node in SCC, follow edges to other SCC members,
// continue until we return to start node.
func reconstructCyclePath(scc []string, graph dependencyGraph) []string {
	if len(scc) == 0 {
		return []string{}
	}

	// Build set of SCC members for fast lookup
	sccSet := make(map[string]bool)
	for _, node := range scc {
		sccSet[node] = true
	}

	// Start at first node
	start := scc[0]
	current := start
	path := []string{current}
	visited := make(map[string]bool)

	// Follow edges within SCC until we return to start
	for {
		visited[current] = true

		// Find next SCC member reachable from current
		var next string
		for _, neighbor := range graph[current] {
			if sccSet[neighbor] && (!visited[neighbor] || neighbor == start) {
				next = neighbor
				break
			}
		}

		if next == "" {
			// No more unvisited neighbors in SCC
			break
		}

		path = append(path, next)

		if next == start {
			// Completed the cycle
			break
		}

		current = next
	}

	return path
}
