package queryir

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
)

// ErrInvalidIdentifier is returned for table or column names that are not plain identifiers.
var ErrInvalidIdentifier = errors.New("invalid identifier")

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidIdentifier reports whether name can be used as a table or column name.
func ValidIdentifier(name string) bool {
	return identifierPattern.MatchString(name)
}

// CheckIdentifier returns ErrInvalidIdentifier wrapped with the offending name.
func CheckIdentifier(name string) error {
	if !ValidIdentifier(name) {
		return fmt.Errorf("%w: %q", ErrInvalidIdentifier, name)
	}
	return nil
}

// Validate checks every identifier referenced by q.
// Validate is a pure function; it does not consult the database.
func Validate(q Query) error {
	switch query := q.(type) {
	case Select:
		return validateSelect(query)
	case *Select:
		if query == nil {
			return fmt.Errorf("nil query")
		}
		return validateSelect(*query)
	case Count:
		return validateCount(query)
	case *Count:
		if query == nil {
			return fmt.Errorf("nil query")
		}
		return validateCount(*query)
	case nil:
		return fmt.Errorf("nil query")
	default:
		return fmt.Errorf("unsupported query type: %T", q)
	}
}

func validateSelect(s Select) error {
	if err := CheckIdentifier(s.From); err != nil {
		return fmt.Errorf("from: %w", err)
	}
	for _, col := range s.Columns {
		if err := CheckIdentifier(col); err != nil {
			return fmt.Errorf("column: %w", err)
		}
	}
	if s.OrderBy != "" {
		if err := CheckIdentifier(s.OrderBy); err != nil {
			return fmt.Errorf("order by: %w", err)
		}
	}
	if s.Limit < 0 {
		return fmt.Errorf("limit must not be negative: %d", s.Limit)
	}
	return validatePredicate(s.Filter)
}

func validateCount(c Count) error {
	if err := CheckIdentifier(c.From); err != nil {
		return fmt.Errorf("from: %w", err)
	}
	return validatePredicate(c.Filter)
}

func validatePredicate(p Predicate) error {
	switch pred := p.(type) {
	case nil:
		return nil
	case Equals:
		return CheckIdentifier(pred.Field)
	case *Equals:
		return CheckIdentifier(pred.Field)
	case And:
		return validateAnd(pred)
	case *And:
		return validateAnd(*pred)
	default:
		return fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func validateAnd(a And) error {
	for _, p := range a.Predicates {
		if err := validatePredicate(p); err != nil {
			return err
		}
	}
	return nil
}

func sortStrings(s []string) {
	slices.Sort(s)
}
