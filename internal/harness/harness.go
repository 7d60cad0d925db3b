package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/roach88/pickdb/internal/compiler"
	"github.com/roach88/pickdb/internal/crud"
	"github.com/roach88/pickdb/internal/mv"
	"github.com/roach88/pickdb/internal/store"
	"github.com/roach88/pickdb/internal/testutil"
)

// Harness is the scenario execution engine.
// It runs scenarios against a private in-memory database with a
// deterministic step clock and identifier generator.
type Harness struct {
	facade *crud.Facade
	clock  *testutil.StepClock
	logger *slog.Logger
	refs   map[string]any
}

// Run executes a scenario with logging discarded.
func Run(scenario *Scenario) (*Result, error) {
	return RunWithLogger(context.Background(), scenario, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// RunWithLogger executes a scenario and returns the result.
//
// Execution flow:
//  1. Create a fresh in-memory database
//  2. Apply schema files, create tables and define fields
//  3. Execute flow steps, checking expect clauses
//  4. Evaluate assertions
//
// Setup failures abort the run with an error. Step failures are recorded as
// outcomes in the trace; only unmet expectations fail the result.
func RunWithLogger(ctx context.Context, scenario *Scenario, logger *slog.Logger) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	prefix := scenario.IDPrefix
	if prefix == "" {
		prefix = "rec"
	}
	opts := []crud.Option{
		crud.WithIDGenerator(crud.NewSequenceGenerator(prefix)),
		crud.WithDiagnostics(func(ctx context.Context, table string, err error) {
			logger.Debug("resolve diagnostics", "table", table, "error", err)
		}),
	}
	if scenario.MaxDepth > 0 {
		opts = append(opts, crud.WithMaxDepth(scenario.MaxDepth))
	}

	h := &Harness{
		facade: crud.New(st, opts...),
		clock:  testutil.NewStepClock(),
		logger: logger,
		refs:   make(map[string]any),
	}

	if err := h.executeSetup(ctx, scenario); err != nil {
		return nil, fmt.Errorf("failed to execute setup: %w", err)
	}

	result := NewResult()
	h.executeFlow(ctx, scenario.Flow, result)

	actx := &AssertionContext{
		Facade: h.facade,
		Ctx:    ctx,
		Refs:   h.refs,
	}
	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(errMsg)
	}

	for k, v := range h.refs {
		result.Refs[k] = v
	}
	return result, nil
}

// executeSetup applies schema files, then tables, then fields.
func (h *Harness) executeSetup(ctx context.Context, scenario *Scenario) error {
	for _, path := range scenario.Schemas {
		src, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read schema %s: %w", path, err)
		}
		schema, err := compiler.CompileSource(path, src)
		if err != nil {
			return err
		}
		if errs := compiler.Validate(schema); len(errs) > 0 {
			return fmt.Errorf("schema %s: %w", path, errs[0])
		}
		res, err := compiler.Apply(ctx, h.facade, schema)
		if err != nil {
			return err
		}
		h.logger.Info("schema applied", "path", path, "created", res.Created, "defined", res.Defined)
	}

	for i, tbl := range scenario.Tables {
		if err := h.facade.CreateTable(ctx, tbl.Name, tbl.Columns); err != nil {
			return fmt.Errorf("tables[%d]: %w", i, err)
		}
		h.logger.Info("table created", "table", tbl.Name)
	}

	for i, f := range scenario.Fields {
		if err := h.facade.DefineField(ctx, f.Table, f.Entry); err != nil {
			return fmt.Errorf("fields[%d]: %w", i, err)
		}
		h.logger.Info("field defined", "table", f.Table, "field", f.Name)
	}
	return nil
}

// executeFlow runs all flow steps and checks expect clauses.
func (h *Harness) executeFlow(ctx context.Context, flow []FlowStep, result *Result) {
	for i, step := range flow {
		seq := h.clock.Next()
		outcome, value, err := h.executeStep(ctx, step)
		if err != nil {
			h.logger.Info("flow step failed", "step", i, "op", step.Op, "table", step.Table, "error", err)
		}
		result.AddTrace(seq, step.Op, step.Table, outcome, value)

		if step.Expect != nil {
			want := step.Expect.Outcome
			if want == "" {
				want = OutcomeOK
			}
			if outcome != want {
				msg := fmt.Sprintf("flow[%d] %s %s: expected outcome %s, got %s", i, step.Op, step.Table, want, outcome)
				if err != nil {
					msg += ": " + err.Error()
				}
				result.AddError(msg)
			} else if step.Expect.Result != nil && !resultMatches(value, step.Expect.Result) {
				result.AddError(fmt.Sprintf("flow[%d] %s %s: expected result %v, got %v", i, step.Op, step.Table, step.Expect.Result, value))
			}
		}

		h.logger.Info("flow step completed", "step", i, "op", step.Op, "table", step.Table, "outcome", outcome)
	}
}

// executeStep performs one operation. The returned value is already in plain
// JSON types.
func (h *Harness) executeStep(ctx context.Context, step FlowStep) (string, any, error) {
	f := h.facade
	switch step.Op {
	case OpInsert:
		id, err := f.CreateRecord(ctx, step.Table, h.resolveValues(step.Values))
		if err != nil {
			return failure(err)
		}
		plain := plainID(id)
		if step.Ref != "" {
			h.refs[step.Ref] = plain
		}
		return OutcomeOK, plain, nil

	case OpGet:
		rec, found, err := f.FindByID(ctx, step.Table, h.resolveID(step.ID))
		if err != nil {
			return failure(err)
		}
		if !found {
			return OutcomeNotFound, nil, nil
		}
		return OutcomeOK, project(rec, step.Fields), nil

	case OpList:
		recs, err := f.FindAll(ctx, step.Table)
		return records(recs, step.Fields, err)

	case OpFind:
		recs, err := f.FindByCriteria(ctx, step.Table, h.resolveValues(step.Criteria))
		return records(recs, step.Fields, err)

	case OpWhere:
		recs, err := f.FindWhere(ctx, step.Table, step.Filter)
		return records(recs, step.Fields, err)

	case OpCount:
		n, err := f.Count(ctx, step.Table, h.resolveValues(step.Criteria))
		if err != nil {
			return failure(err)
		}
		return OutcomeOK, n, nil

	case OpUpdate:
		ok, err := f.UpdateRecord(ctx, step.Table, h.resolveID(step.ID), h.resolveValues(step.Values))
		return changed(ok, err)

	case OpDelete:
		ok, err := f.DeleteRecord(ctx, step.Table, h.resolveID(step.ID))
		return changed(ok, err)

	case OpDefine:
		if err := f.DefineField(ctx, step.Table, *step.Field); err != nil {
			return failure(err)
		}
		return OutcomeOK, nil, nil

	case OpDropField:
		ok, err := f.DeleteField(ctx, step.Table, step.Field.Name)
		return changed(ok, err)

	case OpDropTable:
		if err := f.DropTable(ctx, step.Table); err != nil {
			return failure(err)
		}
		return OutcomeOK, nil, nil

	default:
		return OutcomeValidationError, nil, fmt.Errorf("unknown op %q", step.Op)
	}
}

// resolveID replaces "$name" with the id recorded for that insert ref.
func (h *Harness) resolveID(id any) any {
	s, ok := id.(string)
	if !ok || !strings.HasPrefix(s, "$") {
		return id
	}
	if v, found := h.refs[strings.TrimPrefix(s, "$")]; found {
		return v
	}
	return id
}

func (h *Harness) resolveValues(values map[string]any) map[string]any {
	if values == nil {
		return nil
	}
	out := make(map[string]any, len(values))
	for k, v := range values {
		out[k] = h.resolveID(v)
	}
	return out
}

func failure(err error) (string, any, error) {
	if errors.Is(err, crud.ErrValidation) {
		return OutcomeValidationError, nil, err
	}
	return OutcomeBackendError, nil, err
}

func changed(ok bool, err error) (string, any, error) {
	if err != nil {
		return failure(err)
	}
	if !ok {
		return OutcomeNotFound, nil, nil
	}
	return OutcomeOK, nil, nil
}

func records(recs []mv.Record, fields []string, err error) (string, any, error) {
	if err != nil {
		return failure(err)
	}
	out := make([]any, len(recs))
	for i, rec := range recs {
		out[i] = project(rec, fields)
	}
	return OutcomeOK, out, nil
}

// plainID converts a generated id into int64 or string.
func plainID(id mv.Value) any {
	switch v := id.(type) {
	case mv.Number:
		return int64(v)
	default:
		return mv.String(v)
	}
}

// project converts rec to plain values, keeping only fields when given.
// Requested fields that are unset are omitted.
func project(rec mv.Record, fields []string) map[string]any {
	if len(fields) == 0 {
		return rec.Native()
	}
	out := make(map[string]any, len(fields))
	for _, f := range fields {
		if v, ok := rec[f]; ok {
			out[f] = mv.Native(v)
		}
	}
	return out
}
