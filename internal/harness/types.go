package harness

// TraceEvent records one flow step and what it produced.
type TraceEvent struct {
	Seq     int64  `json:"seq"`
	Op      string `json:"op"`
	Table   string `json:"table"`
	Outcome string `json:"outcome"`

	// Result is the returned id, record, record list, count or changed flag,
	// in plain JSON types.
	Result any `json:"result,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall success: every expect clause and assertion held.
	Pass bool `json:"pass"`

	// Trace contains the flow steps in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains expectation and assertion failures.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Refs maps insert refs to the identifiers they produced.
	Refs map[string]any `json:"refs,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
		Refs:   make(map[string]any),
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends a step to the trace.
func (r *Result) AddTrace(seq int64, op, table, outcome string, result any) {
	r.Trace = append(r.Trace, TraceEvent{
		Seq:     seq,
		Op:      op,
		Table:   table,
		Outcome: outcome,
		Result:  result,
	})
}
