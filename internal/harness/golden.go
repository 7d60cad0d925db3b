package harness

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
	"golang.org/x/text/unicode/norm"
)

// TraceSnapshot captures the complete trace for a scenario execution.
type TraceSnapshot struct {
	ScenarioName string       `json:"scenario_name"`
	Trace        []TraceEvent `json:"trace"`
}

// MarshalSnapshot renders a snapshot for golden comparison: two-space
// indented JSON, object keys sorted, strings NFC-normalized, no HTML
// escaping, trailing newline.
func MarshalSnapshot(s TraceSnapshot) ([]byte, error) {
	trace := make([]TraceEvent, len(s.Trace))
	for i, event := range s.Trace {
		event.Result = normalizeStrings(event.Result)
		trace[i] = event
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(TraceSnapshot{ScenarioName: s.ScenarioName, Trace: trace}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// normalizeStrings NFC-normalizes every string in v, including map keys.
func normalizeStrings(v any) any {
	switch val := v.(type) {
	case string:
		return norm.NFC.String(val)
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = normalizeStrings(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, e := range val {
			out[norm.NFC.String(k)] = normalizeStrings(e)
		}
		return out
	default:
		return v
	}
}

// RunWithGolden executes a scenario, fails t on unmet expectations, and
// compares the trace against testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	for _, msg := range result.Errors {
		t.Errorf("%s: %s", scenario.Name, msg)
	}

	return result, AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares the given result's trace against a golden file
// without re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := MarshalSnapshot(TraceSnapshot{
		ScenarioName: scenarioName,
		Trace:        result.Trace,
	})
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)

	return nil
}
