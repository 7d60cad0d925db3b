package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/pickdb/internal/dict"
	"github.com/roach88/pickdb/internal/store"
)

// Scenario defines a dictionary behaviour scenario.
// Scenarios build tables and dictionaries, run a flow of record operations,
// and assert on the resulting trace and final records.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Schemas lists CUE schema files applied before the flow.
	// Paths are relative to the scenario file location.
	Schemas []string `yaml:"schemas,omitempty"`

	// Tables are created before the flow, after Schemas are applied.
	Tables []TableStep `yaml:"tables,omitempty"`

	// Fields are dictionary entries defined after Tables are created.
	Fields []FieldStep `yaml:"fields,omitempty"`

	// Flow contains the record operations, each optionally checked against an
	// expect clause.
	Flow []FlowStep `yaml:"flow"`

	// Assertions validate the final trace and records.
	// Supported types: trace_contains, trace_count, record, dictionary, count
	Assertions []Assertion `yaml:"assertions,omitempty"`

	// IDPrefix seeds the deterministic generator used for text identifiers.
	// Defaults to "rec", giving rec-1, rec-2, ...
	IDPrefix string `yaml:"id_prefix,omitempty"`

	// MaxDepth overrides the Translate nesting bound when positive.
	MaxDepth int `yaml:"max_depth,omitempty"`
}

// TableStep creates one table.
type TableStep struct {
	Name    string            `yaml:"name"`
	Columns []store.ColumnDef `yaml:"columns"`
}

// FieldStep defines one dictionary entry on a table.
type FieldStep struct {
	Table      string `yaml:"table"`
	dict.Entry `yaml:",inline"`
}

// FlowStep is a single record operation.
type FlowStep struct {
	// Op is one of insert, get, list, find, where, count, update, delete,
	// define, drop_field and drop_table.
	Op string `yaml:"op"`

	// Table is the table the operation targets.
	Table string `yaml:"table"`

	// Ref names the id returned by an insert so later steps can use "$ref".
	Ref string `yaml:"ref,omitempty"`

	// ID selects a record for get, update and delete. "$name" reads a ref.
	ID any `yaml:"id,omitempty"`

	// Values is the payload of insert and update.
	Values map[string]any `yaml:"values,omitempty"`

	// Criteria is the equality filter of find and count.
	Criteria map[string]any `yaml:"criteria,omitempty"`

	// Filter is the boolean expression of where.
	Filter string `yaml:"filter,omitempty"`

	// Field is the entry of define, or the entry name of drop_field.
	Field *dict.Entry `yaml:"field,omitempty"`

	// Fields limits the record keys written to the trace. Empty keeps all keys.
	Fields []string `yaml:"fields,omitempty"`

	// Expect specifies the expected outcome.
	// If nil, no validation is performed.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies expected step behavior.
type ExpectClause struct {
	// Outcome is ok, not_found, validation_error or backend_error.
	// Empty means ok.
	Outcome string `yaml:"outcome,omitempty"`

	// Result is compared against the traced result: a subset match for
	// records, element-wise for lists, exact for scalars.
	Result any `yaml:"result,omitempty"`
}

// Assertion validates trace or final records.
type Assertion struct {
	// Type specifies the assertion type:
	// - "trace_contains": an operation on a table appears in the trace
	// - "trace_count": an operation appears exactly Count times
	// - "record": the record with ID resolves to a superset of Expect
	// - "dictionary": the table's entries are named Entries, in order
	// - "count": Count records match Where
	Type string `yaml:"type"`

	// Op is the operation (used by trace_contains, trace_count).
	Op string `yaml:"op,omitempty"`

	// Table is the target table.
	Table string `yaml:"table,omitempty"`

	// ID selects the record (used by record). "$name" reads a ref.
	ID any `yaml:"id,omitempty"`

	// Where is an equality filter (used by count).
	Where map[string]any `yaml:"where,omitempty"`

	// Expect contains expected field values (used by record).
	// Subset match - only specified fields are validated.
	Expect map[string]any `yaml:"expect,omitempty"`

	// Absent lists fields that must not be set (used by record).
	Absent []string `yaml:"absent,omitempty"`

	// Entries is the expected dictionary order (used by dictionary).
	Entries []string `yaml:"entries,omitempty"`

	// Count is the expected number (used by trace_count, count).
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceCount    = "trace_count"
	AssertRecord        = "record"
	AssertDictionary    = "dictionary"
	AssertCount         = "count"
)

// Flow operations.
const (
	OpInsert    = "insert"
	OpGet       = "get"
	OpList      = "list"
	OpFind      = "find"
	OpWhere     = "where"
	OpCount     = "count"
	OpUpdate    = "update"
	OpDelete    = "delete"
	OpDefine    = "define"
	OpDropField = "drop_field"
	OpDropTable = "drop_table"
)

// Step outcomes.
const (
	OutcomeOK              = "ok"
	OutcomeNotFound        = "not_found"
	OutcomeValidationError = "validation_error"
	OutcomeBackendError    = "backend_error"
)

// LoadScenario reads and parses a scenario YAML file. Schema paths are
// resolved relative to the scenario file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving schema paths relative to the provided base path.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict decoding catches typos like "assertion:" vs "assertions:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	for i, schemaPath := range scenario.Schemas {
		if !filepath.IsAbs(schemaPath) && basePath != "" {
			scenario.Schemas[i] = filepath.Join(basePath, schemaPath)
		}
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Schemas) == 0 && len(s.Tables) == 0 {
		return fmt.Errorf("schemas or tables are required")
	}

	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}

	for _, schemaPath := range s.Schemas {
		if _, err := os.Stat(schemaPath); os.IsNotExist(err) {
			return fmt.Errorf("schema file not found: %s", schemaPath)
		}
	}

	for i, tbl := range s.Tables {
		if tbl.Name == "" {
			return fmt.Errorf("tables[%d]: name is required", i)
		}
	}

	for i, f := range s.Fields {
		if f.Table == "" || f.Name == "" {
			return fmt.Errorf("fields[%d]: table and name are required", i)
		}
	}

	for i, step := range s.Flow {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

func validateStep(index int, step *FlowStep) error {
	if step.Table == "" {
		return fmt.Errorf("flow[%d]: table is required", index)
	}

	switch step.Op {
	case OpInsert:
		if step.Values == nil {
			return fmt.Errorf("flow[%d]: values are required for insert (use {} for none)", index)
		}
	case OpGet, OpDelete:
		if step.ID == nil {
			return fmt.Errorf("flow[%d]: id is required for %s", index, step.Op)
		}
	case OpUpdate:
		if step.ID == nil || step.Values == nil {
			return fmt.Errorf("flow[%d]: id and values are required for update", index)
		}
	case OpWhere:
		if step.Filter == "" {
			return fmt.Errorf("flow[%d]: filter is required for where", index)
		}
	case OpDefine, OpDropField:
		if step.Field == nil || step.Field.Name == "" {
			return fmt.Errorf("flow[%d]: field with a name is required for %s", index, step.Op)
		}
	case OpList, OpFind, OpCount, OpDropTable:
	case "":
		return fmt.Errorf("flow[%d]: op is required", index)
	default:
		return fmt.Errorf("flow[%d]: unknown op %q", index, step.Op)
	}

	if step.Expect != nil {
		switch step.Expect.Outcome {
		case "", OutcomeOK, OutcomeNotFound, OutcomeValidationError, OutcomeBackendError:
		default:
			return fmt.Errorf("flow[%d].expect: unknown outcome %q", index, step.Expect.Outcome)
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTraceContains:
		if a.Op == "" {
			return fmt.Errorf("assertions[%d]: op is required for trace_contains", index)
		}
	case AssertTraceCount:
		if a.Op == "" {
			return fmt.Errorf("assertions[%d]: op is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertRecord:
		if a.Table == "" || a.ID == nil {
			return fmt.Errorf("assertions[%d]: table and id are required for record", index)
		}
		if len(a.Expect) == 0 && len(a.Absent) == 0 {
			return fmt.Errorf("assertions[%d]: expect or absent is required for record", index)
		}
	case AssertDictionary:
		if a.Table == "" || len(a.Entries) == 0 {
			return fmt.Errorf("assertions[%d]: table and entries are required for dictionary", index)
		}
	case AssertCount:
		if a.Table == "" {
			return fmt.Errorf("assertions[%d]: table is required for count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
