package crud

import (
	"errors"
	"fmt"

	"github.com/roach88/pickdb/internal/dict"
	"github.com/roach88/pickdb/internal/mv"
	"github.com/roach88/pickdb/internal/queryir"
	"github.com/roach88/pickdb/internal/store"
)

var (
	// ErrValidation marks caller input the facade refuses: bad names, unknown
	// columns, payloads that cannot be encoded, failed validators.
	ErrValidation = errors.New("validation failed")

	// ErrBackend marks a failure reported by the database.
	ErrBackend = errors.New("backend failure")
)

// invalid wraps a validation failure.
func invalid(op string, format string, args ...any) error {
	return fmt.Errorf("%s: %w: %s", op, ErrValidation, fmt.Sprintf(format, args...))
}

// classify wraps err with ErrValidation when it stems from caller input and
// with ErrBackend otherwise.
func classify(op string, err error) error {
	if isInputError(err) {
		return fmt.Errorf("%s: %w: %w", op, ErrValidation, err)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrBackend, err)
}

func isInputError(err error) bool {
	for _, target := range []error{
		queryir.ErrInvalidIdentifier,
		store.ErrInvalidSchema,
		mv.ErrDelimiterInValue,
		mv.ErrUnsupportedValue,
		dict.ErrInvalidEntry,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
