package harness

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/roach88/pickdb/internal/crud"
	"github.com/roach88/pickdb/internal/mv"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s %s -> %s\n", event.Seq, event.Op, event.Table, event.Outcome)
		}
	}

	return buf.String()
}

// assertTraceContains checks that the trace has a step with the given op,
// on the given table when one is named.
func assertTraceContains(trace []TraceEvent, assertion Assertion) error {
	for _, event := range trace {
		if event.Op == assertion.Op && (assertion.Table == "" || event.Table == assertion.Table) {
			return nil
		}
	}

	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: fmt.Sprintf("op %s on %q", assertion.Op, assertion.Table),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceCount checks that op appears exactly Count times.
func assertTraceCount(trace []TraceEvent, assertion Assertion) error {
	count := 0
	for _, event := range trace {
		if event.Op == assertion.Op && (assertion.Table == "" || event.Table == assertion.Table) {
			count++
		}
	}

	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d occurrences of %s", assertion.Count, assertion.Op),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}
	return nil
}

// assertRecord resolves the record and checks Expect (subset) and Absent.
func assertRecord(actx *AssertionContext, assertion Assertion) error {
	id := assertion.ID
	if s, ok := id.(string); ok && strings.HasPrefix(s, "$") {
		if v, found := actx.Refs[strings.TrimPrefix(s, "$")]; found {
			id = v
		}
	}

	rec, found, err := actx.Facade.FindByID(actx.Ctx, assertion.Table, id)
	if err != nil {
		return fmt.Errorf("record assertion: %w", err)
	}
	if !found {
		return &AssertionError{
			Type:     AssertRecord,
			Expected: fmt.Sprintf("record %v in %s", assertion.ID, assertion.Table),
			Actual:   "not found",
		}
	}

	actual := rec.Native()
	for key, want := range assertion.Expect {
		got, ok := actual[key]
		if !ok {
			return &AssertionError{
				Type:     AssertRecord,
				Expected: fmt.Sprintf("%s = %v", key, want),
				Actual:   fmt.Sprintf("%s is not set", key),
			}
		}
		if !valuesEqual(got, want) {
			return &AssertionError{
				Type:     AssertRecord,
				Expected: fmt.Sprintf("%s = %v", key, want),
				Actual:   fmt.Sprintf("%s = %v", key, got),
			}
		}
	}
	for _, key := range assertion.Absent {
		if v, ok := rec[key]; ok {
			return &AssertionError{
				Type:     AssertRecord,
				Expected: fmt.Sprintf("%s is not set", key),
				Actual:   fmt.Sprintf("%s = %v", key, mv.Native(v)),
			}
		}
	}
	return nil
}

// assertDictionary checks the entry names and their order.
func assertDictionary(actx *AssertionContext, assertion Assertion) error {
	entries, err := actx.Facade.Dictionary(actx.Ctx, assertion.Table)
	if err != nil {
		return fmt.Errorf("dictionary assertion: %w", err)
	}
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	if !reflect.DeepEqual(names, assertion.Entries) {
		return &AssertionError{
			Type:     AssertDictionary,
			Expected: fmt.Sprintf("entries %v", assertion.Entries),
			Actual:   fmt.Sprintf("entries %v", names),
		}
	}
	return nil
}

// assertCount checks the number of records matching Where.
func assertCount(actx *AssertionContext, assertion Assertion) error {
	n, err := actx.Facade.Count(actx.Ctx, assertion.Table, assertion.Where)
	if err != nil {
		return fmt.Errorf("count assertion: %w", err)
	}
	if n != int64(assertion.Count) {
		return &AssertionError{
			Type:     AssertCount,
			Expected: fmt.Sprintf("%d records in %s matching %v", assertion.Count, assertion.Table, assertion.Where),
			Actual:   fmt.Sprintf("%d records", n),
		}
	}
	return nil
}

// resultMatches compares a traced result with an expected one. Maps are
// matched as subsets, lists element by element, scalars by value.
func resultMatches(actual, expected any) bool {
	switch exp := expected.(type) {
	case map[string]any:
		act, ok := actual.(map[string]any)
		if !ok {
			return false
		}
		for k, v := range exp {
			got, exists := act[k]
			if !exists || !resultMatches(got, v) {
				return false
			}
		}
		return true
	case []any:
		act, ok := actual.([]any)
		if !ok || len(act) != len(exp) {
			return false
		}
		for i := range exp {
			if !resultMatches(act[i], exp[i]) {
				return false
			}
		}
		return true
	default:
		return valuesEqual(actual, expected)
	}
}

// valuesEqual compares two plain values. Numbers compare by value whatever
// their Go type, since YAML yields int where records hold float64.
func valuesEqual(actual, expected any) bool {
	if actual == nil || expected == nil {
		return actual == nil && expected == nil
	}
	if a, ok := toFloat(actual); ok {
		if e, ok := toFloat(expected); ok {
			return a == e
		}
		return false
	}
	return reflect.DeepEqual(normalize(actual), normalize(expected))
}

func normalize(v any) any {
	switch val := v.(type) {
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = normalize(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, e := range val {
			out[k] = normalize(e)
		}
		return out
	}
	if f, ok := toFloat(v); ok {
		return f
	}
	return v
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

// AssertionContext provides context for evaluating assertions.
type AssertionContext struct {
	Facade *crud.Facade
	Ctx    context.Context
	Refs   map[string]any
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
// The actx parameter provides database access for record, dictionary and
// count assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, assertion)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, assertion)
		case AssertRecord, AssertDictionary, AssertCount:
			if actx == nil || actx.Facade == nil {
				err = fmt.Errorf("assertion[%d]: %s requires database context", i, assertion.Type)
				break
			}
			switch assertion.Type {
			case AssertRecord:
				err = assertRecord(actx, assertion)
			case AssertDictionary:
				err = assertDictionary(actx, assertion)
			default:
				err = assertCount(actx, assertion)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
