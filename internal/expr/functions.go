package expr

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/roach88/pickdb/internal/mv"
)

// Func is a callable expression function. Arguments are evaluated before the
// call.
type Func func(args []mv.Value) (mv.Value, error)

// Functions maps names to callable functions.
type Functions map[string]Func

var builtins = Functions{
	"len":    fnLen,
	"sum":    fnSum,
	"min":    fnMin,
	"max":    fnMax,
	"abs":    fnAbs,
	"round":  fnRound,
	"str":    fnStr,
	"num":    fnNum,
	"upper":  mapText(strings.ToUpper),
	"lower":  mapText(strings.ToLower),
	"concat": fnConcat,
	"at":     fnAt,
}

// Builtins returns the names of the builtin functions, sorted.
func Builtins() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func lookupFunc(name string, extra Functions) (Func, bool) {
	if fn, ok := extra[name]; ok {
		return fn, true
	}
	fn, ok := builtins[name]
	return fn, ok
}

// arity checks the argument count; hi < 0 means unbounded.
func arity(args []mv.Value, lo, hi int) error {
	if len(args) < lo || (hi >= 0 && len(args) > hi) {
		return fmt.Errorf("%w: got %d", ErrArity, len(args))
	}
	return nil
}

// flatten coerces every element of every argument; failures become 0.
func flatten(args []mv.Value) []float64 {
	var out []float64
	for _, a := range args {
		out = append(out, mv.Numbers(a)...)
	}
	return out
}

func fnLen(args []mv.Value) (mv.Value, error) {
	if err := arity(args, 1, 1); err != nil {
		return nil, err
	}
	switch v := args[0].(type) {
	case mv.Null:
		return mv.Number(0), nil
	case mv.Vector:
		return mv.Number(len(v)), nil
	case mv.Text:
		return mv.Number(utf8.RuneCountInString(string(v))), nil
	default:
		return nil, fmt.Errorf("%w: len of %s", ErrType, typeName(v))
	}
}

func fnSum(args []mv.Value) (mv.Value, error) {
	var total float64
	for _, f := range flatten(args) {
		total += f
	}
	return mv.Number(total), nil
}

func fnMin(args []mv.Value) (mv.Value, error) {
	nums := flatten(args)
	if len(nums) == 0 {
		return nil, fmt.Errorf("%w: min of empty sequence", ErrArity)
	}
	return mv.Number(slices.Min(nums)), nil
}

func fnMax(args []mv.Value) (mv.Value, error) {
	nums := flatten(args)
	if len(nums) == 0 {
		return nil, fmt.Errorf("%w: max of empty sequence", ErrArity)
	}
	return mv.Number(slices.Max(nums)), nil
}

func fnAbs(args []mv.Value) (mv.Value, error) {
	if err := arity(args, 1, 1); err != nil {
		return nil, err
	}
	f, err := number(args[0])
	if err != nil {
		return nil, err
	}
	return mv.Number(math.Abs(f)), nil
}

// fnRound rounds half to even, optionally to a number of decimal places.
func fnRound(args []mv.Value) (mv.Value, error) {
	if err := arity(args, 1, 2); err != nil {
		return nil, err
	}
	f, err := number(args[0])
	if err != nil {
		return nil, err
	}
	if len(args) == 1 {
		return mv.Number(math.RoundToEven(f)), nil
	}
	places, err := number(args[1])
	if err != nil {
		return nil, err
	}
	scale := math.Pow(10, math.Trunc(places))
	return mv.Number(math.RoundToEven(f*scale) / scale), nil
}

func fnStr(args []mv.Value) (mv.Value, error) {
	if err := arity(args, 1, 1); err != nil {
		return nil, err
	}
	return mv.Text(mv.String(args[0])), nil
}

func fnNum(args []mv.Value) (mv.Value, error) {
	if err := arity(args, 1, 1); err != nil {
		return nil, err
	}
	f, err := number(args[0])
	if err != nil {
		return nil, err
	}
	return mv.Number(f), nil
}

// mapText applies fn to text, element-wise for vectors.
func mapText(fn func(string) string) Func {
	return func(args []mv.Value) (mv.Value, error) {
		if err := arity(args, 1, 1); err != nil {
			return nil, err
		}
		if vec, ok := args[0].(mv.Vector); ok {
			out := make(mv.Vector, len(vec))
			for i, e := range vec {
				out[i] = mv.Text(fn(mv.String(e)))
			}
			return out, nil
		}
		if mv.IsNull(args[0]) {
			return mv.Null{}, nil
		}
		return mv.Text(fn(mv.String(args[0]))), nil
	}
}

func fnConcat(args []mv.Value) (mv.Value, error) {
	var sb strings.Builder
	for _, a := range args {
		sb.WriteString(mv.String(a))
	}
	return mv.Text(sb.String()), nil
}

// fnAt returns the element at a 1-based index, or null when out of range.
func fnAt(args []mv.Value) (mv.Value, error) {
	if err := arity(args, 2, 2); err != nil {
		return nil, err
	}
	idx, err := number(args[1])
	if err != nil {
		return nil, err
	}
	elems := mv.Elements(args[0])
	i := int(idx)
	if float64(i) != idx || i < 1 || i > len(elems) {
		return mv.Null{}, nil
	}
	return elems[i-1], nil
}
