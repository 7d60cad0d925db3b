package compiler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/pickdb/internal/dict"
	"github.com/roach88/pickdb/internal/expr"
	"github.com/roach88/pickdb/internal/queryir"
	"github.com/roach88/pickdb/internal/resolve"
	"github.com/roach88/pickdb/internal/store"
)

// Validation error codes (E100-E199)
const (
	// General validation errors (E100)
	ErrUnsupportedSchemaType = "E100" // unsupported value passed to Validate

	// Table errors (E101-E109)
	ErrInvalidTableName = "E101" // table name is not an identifier or is reserved
	ErrDuplicateTable   = "E102" // table declared twice
	ErrNoColumns        = "E103" // table declares no data columns
	ErrInvalidColumn    = "E104" // column name or type rejected
	ErrDuplicateColumn  = "E105" // column declared twice

	// Dictionary errors (E110-E119)
	ErrInvalidEntry       = "E110" // entry cannot be stored
	ErrDuplicateField     = "E111" // field declared twice in one dictionary
	ErrInvalidPosition    = "E112" // position does not select a column
	ErrInvalidTranslate   = "E113" // translate spec is not T<table>;<column>
	ErrInvalidExpression  = "E114" // computed spec does not compile
	ErrForwardReference   = "E115" // field read before it is resolved
	ErrUndefinedReference = "E116" // field or column does not exist
)

// ValidationError represents a schema validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a compiled schema or table before it is applied.
// Returns all errors found (does not fail-fast).
func Validate(v any) []ValidationError {
	switch s := v.(type) {
	case *Schema:
		return validateSchema(s)
	case Schema:
		return validateSchema(&s)
	case *TableSchema:
		return validateTable(*s, nil)
	case TableSchema:
		return validateTable(s, nil)
	default:
		return []ValidationError{{
			Field:   "schema",
			Message: fmt.Sprintf("unsupported type for validation: %T", v),
			Code:    ErrUnsupportedSchemaType,
		}}
	}
}

func validateSchema(s *Schema) []ValidationError {
	var errs []ValidationError
	seen := make(map[string]bool)
	for _, t := range s.Tables {
		if seen[t.Name] {
			errs = append(errs, ValidationError{
				Field:   "table." + t.Name,
				Message: "table is declared more than once",
				Code:    ErrDuplicateTable,
			})
			continue
		}
		seen[t.Name] = true
		errs = append(errs, validateTable(t, s)...)
	}
	return errs
}

// validateTable checks t in isolation. When s is non-nil, Translate targets
// declared in s are checked as well; targets outside s are assumed to exist.
func validateTable(t TableSchema, s *Schema) []ValidationError {
	var errs []ValidationError
	prefix := "table." + t.Name

	if !queryir.ValidIdentifier(t.Name) {
		errs = append(errs, ValidationError{
			Field:   prefix,
			Message: fmt.Sprintf("table name %q must be an identifier", t.Name),
			Code:    ErrInvalidTableName,
		})
	} else if strings.HasSuffix(strings.ToUpper(t.Name), "_DICT") {
		errs = append(errs, ValidationError{
			Field:   prefix,
			Message: "the _DICT suffix is reserved for dictionaries",
			Code:    ErrInvalidTableName,
		})
	}

	if len(t.DataColumns()) == 0 {
		errs = append(errs, ValidationError{
			Field:   prefix + ".columns",
			Message: "at least one data column is required",
			Code:    ErrNoColumns,
		})
	}

	seenCols := make(map[string]bool)
	for _, col := range t.Columns {
		field := prefix + ".columns." + col.Name
		if !queryir.ValidIdentifier(col.Name) {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("column name %q must be an identifier", col.Name),
				Code:    ErrInvalidColumn,
			})
		}
		if !store.ValidColumnType(col.Type) {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("invalid type %q", col.Type),
				Code:    ErrInvalidColumn,
			})
		}
		key := strings.ToLower(col.Name)
		if seenCols[key] {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: "column is declared more than once",
				Code:    ErrDuplicateColumn,
			})
		}
		seenCols[key] = true
	}

	errs = append(errs, validateDictionary(t, s)...)
	return errs
}

func validateDictionary(t TableSchema, s *Schema) []ValidationError {
	var errs []ValidationError
	prefix := "table." + t.Name + ".dictionary."

	seen := make(map[string]bool)
	for _, e := range t.Dictionary {
		name := dict.FieldName(e.Name)
		if seen[name] {
			errs = append(errs, ValidationError{
				Field:   prefix + e.Name,
				Message: "field is declared more than once",
				Code:    ErrDuplicateField,
			})
		}
		seen[name] = true
		if err := e.Validate(); err != nil {
			errs = append(errs, ValidationError{
				Field:   prefix + e.Name,
				Message: err.Error(),
				Code:    ErrInvalidEntry,
			})
		}
	}

	cfg := resolve.ResolutionConfig{Table: t.Name, Columns: t.DataColumns()}
	order := ResolutionOrder(t)

	// Keys present in the accumulator when each entry runs: the raw row first,
	// then every field resolved so far.
	available := map[string]bool{store.IDColumn: true}
	for _, col := range t.Columns {
		available[col.Name] = true
	}
	pending := make(map[string]bool, len(order))
	for _, e := range order {
		pending[dict.FieldName(e.Name)] = true
	}

	for _, e := range order {
		name := dict.FieldName(e.Name)
		field := prefix + e.Name
		delete(pending, name)

		kind, ok := dict.ParseKind(string(e.Kind))
		if !ok {
			continue
		}

		if kind == dict.KindTranslate {
			errs = append(errs, validateTranslate(field, e, s)...)
		}

		refs, err := resolve.References(cfg, e)
		if err != nil {
			errs = append(errs, referenceError(field, kind, err))
		}
		for _, ref := range refs {
			if isAvailable(available, ref, kind == dict.KindTranslate) {
				continue
			}
			if pending[dict.FieldName(ref)] || dict.FieldName(ref) == name {
				errs = append(errs, ValidationError{
					Field:   field,
					Message: fmt.Sprintf("%s is read before it is resolved", ref),
					Code:    ErrForwardReference,
				})
				continue
			}
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("%s is not a column or field of %s", ref, t.Name),
				Code:    ErrUndefinedReference,
			})
		}

		available[name] = true
	}
	return errs
}

func validateTranslate(field string, e dict.Entry, s *Schema) []ValidationError {
	table, column, ok := dict.ParseTranslateSpec(e.Spec)
	if !ok {
		return []ValidationError{{
			Field:   field,
			Message: fmt.Sprintf("translate spec %q must be T<table>;<column>", e.Spec),
			Code:    ErrInvalidTranslate,
		}}
	}
	if s == nil {
		return nil
	}
	target, declared := s.Table(table)
	if !declared {
		return nil
	}
	for _, col := range target.Columns {
		if strings.EqualFold(col.Name, column) {
			return nil
		}
	}
	for _, te := range ResolutionOrder(target) {
		if dict.FieldName(te.Name) == dict.FieldName(column) {
			return nil
		}
	}
	return []ValidationError{{
		Field:   field,
		Message: fmt.Sprintf("%s is not a column or field of %s", column, table),
		Code:    ErrUndefinedReference,
	}}
}

func referenceError(field string, kind dict.Kind, err error) ValidationError {
	var syntaxErr *expr.SyntaxError
	if kind == dict.KindComputed || errors.As(err, &syntaxErr) {
		return ValidationError{Field: field, Message: err.Error(), Code: ErrInvalidExpression}
	}
	return ValidationError{Field: field, Message: err.Error(), Code: ErrInvalidPosition}
}

// isAvailable matches ref against accumulator keys. Translate sources are
// also tried upper- and lower-cased, as the resolver does.
func isAvailable(available map[string]bool, ref string, variants bool) bool {
	if available[ref] {
		return true
	}
	if !variants {
		return false
	}
	return available[strings.ToUpper(ref)] || available[strings.ToLower(ref)]
}

// ResolutionOrder returns the dictionary a table ends up with once applied:
// the default Attribute entries, with same-named declared entries replacing
// them in place, followed by the remaining declared entries in order.
func ResolutionOrder(t TableSchema) []dict.Entry {
	order := dict.AttributeEntries(t.DataColumns())
	index := make(map[string]int, len(order))
	for i, e := range order {
		index[e.Name] = i
	}
	for _, e := range t.Dictionary {
		name := dict.FieldName(e.Name)
		e.Name = name
		if i, ok := index[name]; ok {
			order[i] = e
			continue
		}
		index[name] = len(order)
		order = append(order, e)
	}
	return order
}
