package mv

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// Delimiter joins the logical values of a multivalue field.
const Delimiter = "]"

var (
	// ErrDelimiterInValue is returned when an element to be encoded contains Delimiter.
	ErrDelimiterInValue = errors.New("value contains the multivalue delimiter")

	// ErrUnsupportedValue is returned when a Go value has no column representation.
	ErrUnsupportedValue = errors.New("unsupported value type")
)

// Parse splits text on Delimiter. Text without a delimiter is returned unchanged
// as a Text scalar; callers rely on that asymmetry.
func Parse(text string) Value {
	if !strings.Contains(text, Delimiter) {
		return Text(text)
	}
	parts := strings.Split(text, Delimiter)
	vec := make(Vector, len(parts))
	for i, p := range parts {
		vec[i] = Text(p)
	}
	return vec
}

// Format joins a Vector with Delimiter. Scalars are stringified as-is.
func Format(v Value) string {
	return String(v)
}

// Numbers parses v and coerces every element to a number.
// Elements with no numeric reading become 0; Null yields an empty slice.
func Numbers(v Value) []float64 {
	switch val := v.(type) {
	case nil, Null:
		return []float64{}
	case Vector:
		out := make([]float64, len(val))
		for i, e := range val {
			out[i], _ = Coerce(e)
		}
		return out
	case Text:
		if strings.Contains(string(val), Delimiter) {
			return Numbers(Parse(string(val)))
		}
		f, _ := Coerce(val)
		return []float64{f}
	default:
		f, _ := Coerce(val)
		return []float64{f}
	}
}

// Elements returns the logical values held by v: the elements of a Vector, the
// split segments of delimited text, or v itself. Null has no elements.
func Elements(v Value) []Value {
	switch val := v.(type) {
	case nil, Null:
		return nil
	case Vector:
		return []Value(val)
	case Text:
		if parsed, ok := Parse(string(val)).(Vector); ok {
			return []Value(parsed)
		}
		return []Value{val}
	default:
		return []Value{val}
	}
}

// Encode converts a caller-supplied field value into a database/sql argument.
// Sequences are joined with Delimiter; scalars pass through with their native type.
func Encode(v any) (any, error) {
	switch val := v.(type) {
	case nil, Null:
		return nil, nil
	case Text:
		return string(val), nil
	case Number:
		return float64(val), nil
	case Bool:
		return bool(val), nil
	case Vector:
		return encodeVector(val)
	case string, []byte, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return val, nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		vec := make(Vector, rv.Len())
		for i := range vec {
			elem := rv.Index(i).Interface()
			if !isScalar(elem) {
				return nil, fmt.Errorf("element %d: %w: %T", i, ErrUnsupportedValue, elem)
			}
			vec[i] = Of(elem)
		}
		return encodeVector(vec)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedValue, v)
	}
}

// ParseRow converts a raw database row into a Record, splitting delimited text.
func ParseRow(raw map[string]any) Record {
	rec := make(Record, len(raw))
	for k, v := range raw {
		val := Of(v)
		if t, ok := val.(Text); ok {
			val = Parse(string(t))
		}
		rec[k] = val
	}
	return rec
}

func encodeVector(vec Vector) (string, error) {
	for i, e := range vec {
		if _, nested := e.(Vector); nested {
			return "", fmt.Errorf("element %d: %w: nested vector", i, ErrUnsupportedValue)
		}
		if strings.Contains(String(e), Delimiter) {
			return "", fmt.Errorf("element %d: %w", i, ErrDelimiterInValue)
		}
	}
	return Format(vec), nil
}

func isScalar(v any) bool {
	switch v.(type) {
	case nil, string, []byte, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64,
		Null, Text, Number, Bool:
		return true
	}
	return false
}
