package resolve

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedEntry marks an entry whose kind, position or spec cannot be
	// interpreted.
	ErrMalformedEntry = errors.New("malformed dictionary entry")

	// ErrDepthExceeded marks a Translate lookup skipped because the pass is
	// already MaxDepth lookups deep.
	ErrDepthExceeded = errors.New("translate depth exceeded")
)

// FieldError is a diagnostic for one dictionary entry.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %s: %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}
