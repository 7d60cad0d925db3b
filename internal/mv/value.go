package mv

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Value is a sealed interface over the values a resolved field can hold.
// Only Null, Text, Number, Bool and Vector implement it.
type Value interface {
	mvValue()
}

// Null is an absent or SQL NULL value.
type Null struct{}

func (Null) mvValue() {}

// Text is a scalar string value.
type Text string

func (Text) mvValue() {}

// Number is a scalar numeric value. Integers and reals share one representation.
type Number float64

func (Number) mvValue() {}

// Bool is produced by comparisons in computed expressions.
type Bool bool

func (Bool) mvValue() {}

// Vector is an ordered multivalue.
type Vector []Value

func (Vector) mvValue() {}

// Of converts a Go or database/sql value into a Value.
// Text is returned as-is; use Parse to split delimited text.
func Of(v any) Value {
	switch val := v.(type) {
	case nil:
		return Null{}
	case Value:
		return val
	case string:
		return Text(val)
	case []byte:
		return Text(string(val))
	case bool:
		return Bool(val)
	case int:
		return Number(val)
	case int8:
		return Number(val)
	case int16:
		return Number(val)
	case int32:
		return Number(val)
	case int64:
		return Number(val)
	case uint:
		return Number(val)
	case uint8:
		return Number(val)
	case uint16:
		return Number(val)
	case uint32:
		return Number(val)
	case uint64:
		return Number(val)
	case float32:
		return Number(val)
	case float64:
		return Number(val)
	case time.Time:
		return Text(val.UTC().Format(time.RFC3339Nano))
	case []string:
		vec := make(Vector, len(val))
		for i, s := range val {
			vec[i] = Text(s)
		}
		return vec
	case []float64:
		vec := make(Vector, len(val))
		for i, f := range val {
			vec[i] = Number(f)
		}
		return vec
	case []int:
		vec := make(Vector, len(val))
		for i, n := range val {
			vec[i] = Number(n)
		}
		return vec
	case []int64:
		vec := make(Vector, len(val))
		for i, n := range val {
			vec[i] = Number(n)
		}
		return vec
	case []any:
		vec := make(Vector, len(val))
		for i, e := range val {
			vec[i] = Of(e)
		}
		return vec
	default:
		return Text(fmt.Sprint(v))
	}
}

// String renders a value the way it is stored: numbers in shortest form,
// vectors joined by Delimiter, Null as the empty string.
func String(v Value) string {
	switch val := v.(type) {
	case nil, Null:
		return ""
	case Text:
		return string(val)
	case Number:
		return formatNumber(float64(val))
	case Bool:
		return strconv.FormatBool(bool(val))
	case Vector:
		parts := make([]string, len(val))
		for i, e := range val {
			parts[i] = String(e)
		}
		return strings.Join(parts, Delimiter)
	default:
		return fmt.Sprint(v)
	}
}

// Native converts a value to plain Go types (string, float64, bool, []any, nil)
// for JSON encoding and expression filters.
func Native(v Value) any {
	switch val := v.(type) {
	case nil, Null:
		return nil
	case Text:
		return string(val)
	case Number:
		return float64(val)
	case Bool:
		return bool(val)
	case Vector:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = Native(e)
		}
		return out
	default:
		return nil
	}
}

// Coerce converts a scalar value to a number.
// The boolean result is false when the value has no numeric reading.
func Coerce(v Value) (float64, bool) {
	switch val := v.(type) {
	case Number:
		return float64(val), true
	case Bool:
		if val {
			return 1, true
		}
		return 0, true
	case Text:
		f, err := strconv.ParseFloat(strings.TrimSpace(string(val)), 64)
		if err != nil || math.IsNaN(f) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// IsNull reports whether v is nil or Null.
func IsNull(v Value) bool {
	switch v.(type) {
	case nil, Null:
		return true
	}
	return false
}

// Collapse returns the single element of a one-element slice and a Vector otherwise.
func Collapse(vals []Value) Value {
	if len(vals) == 1 {
		return vals[0]
	}
	return Vector(vals)
}

func formatNumber(f float64) string {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
