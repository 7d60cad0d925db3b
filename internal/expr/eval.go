package expr

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/roach88/pickdb/internal/mv"
)

type evaluator struct {
	env   map[string]mv.Value
	funcs Functions
}

func (e *evaluator) eval(n Node) (mv.Value, error) {
	switch n := n.(type) {
	case Literal:
		return n.Value, nil
	case Ident:
		v, ok := e.env[n.Name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnbound, n.Name)
		}
		if v == nil {
			return mv.Null{}, nil
		}
		return v, nil
	case Unary:
		return e.evalUnary(n)
	case Logical:
		left, err := e.eval(n.Left)
		if err != nil {
			return nil, err
		}
		if truthy(left) == (n.Op == "or") {
			return left, nil
		}
		return e.eval(n.Right)
	case Conditional:
		cond, err := e.eval(n.Cond)
		if err != nil {
			return nil, err
		}
		if truthy(cond) {
			return e.eval(n.Then)
		}
		return e.eval(n.Else)
	case Binary:
		left, err := e.eval(n.Left)
		if err != nil {
			return nil, err
		}
		right, err := e.eval(n.Right)
		if err != nil {
			return nil, err
		}
		if n.Op == "+" && (joined(n.Left, left) || joined(n.Right, right)) {
			return concat(left, right)
		}
		return binary(n.Op, left, right)
	case Call:
		fn, ok := lookupFunc(n.Name, e.funcs)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownFunction, n.Name)
		}
		args := make([]mv.Value, len(n.Args))
		for i, a := range n.Args {
			v, err := e.eval(a)
			if err != nil {
				return nil, err
			}
			args[i] = v
		}
		v, err := fn(args)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", n.Name, err)
		}
		if v == nil {
			return mv.Null{}, nil
		}
		return v, nil
	default:
		return nil, fmt.Errorf("%w: unsupported node %T", ErrType, n)
	}
}

func (e *evaluator) evalUnary(n Unary) (mv.Value, error) {
	x, err := e.eval(n.X)
	if err != nil {
		return nil, err
	}
	switch n.Op {
	case "not":
		return mv.Bool(!truthy(x)), nil
	case "-":
		f, err := number(x)
		if err != nil {
			return nil, err
		}
		return mv.Number(-f), nil
	default:
		f, err := number(x)
		if err != nil {
			return nil, err
		}
		return mv.Number(f), nil
	}
}

func binary(op string, l, r mv.Value) (mv.Value, error) {
	switch op {
	case "+":
		if isWord(l) || isWord(r) || (isText(l) && isText(r)) {
			return concat(l, r)
		}
		return arith(op, l, r)
	case "-", "*", "/", "%":
		return arith(op, l, r)
	case "==":
		return mv.Bool(equal(l, r)), nil
	case "!=":
		return mv.Bool(!equal(l, r)), nil
	default:
		c, err := compare(l, r)
		if err != nil {
			return nil, err
		}
		switch op {
		case "<":
			return mv.Bool(c < 0), nil
		case "<=":
			return mv.Bool(c <= 0), nil
		case ">":
			return mv.Bool(c > 0), nil
		default:
			return mv.Bool(c >= 0), nil
		}
	}
}

func arith(op string, l, r mv.Value) (mv.Value, error) {
	a, err := number(l)
	if err != nil {
		return nil, err
	}
	b, err := number(r)
	if err != nil {
		return nil, err
	}
	switch op {
	case "+":
		return mv.Number(a + b), nil
	case "-":
		return mv.Number(a - b), nil
	case "*":
		return mv.Number(a * b), nil
	case "/":
		if b == 0 {
			return nil, ErrDivisionByZero
		}
		return mv.Number(a / b), nil
	default:
		if b == 0 {
			return nil, ErrDivisionByZero
		}
		m := math.Mod(a, b)
		if m != 0 && (m < 0) != (b < 0) {
			m += b
		}
		return mv.Number(m), nil
	}
}

// concat joins two scalars as text.
func concat(l, r mv.Value) (mv.Value, error) {
	for _, v := range []mv.Value{l, r} {
		switch v.(type) {
		case mv.Text, mv.Number, mv.Bool:
		default:
			return nil, fmt.Errorf("%w: cannot concatenate %s", ErrType, typeName(v))
		}
	}
	return mv.Text(mv.String(l) + mv.String(r)), nil
}

func equal(l, r mv.Value) bool {
	if mv.IsNull(l) || mv.IsNull(r) {
		return mv.IsNull(l) && mv.IsNull(r)
	}
	lv, lok := l.(mv.Vector)
	rv, rok := r.(mv.Vector)
	if lok || rok {
		if !lok || !rok || len(lv) != len(rv) {
			return false
		}
		for i := range lv {
			if !equal(lv[i], rv[i]) {
				return false
			}
		}
		return true
	}
	if a, ok := mv.Coerce(l); ok {
		if b, ok := mv.Coerce(r); ok {
			return a == b
		}
	}
	return mv.String(l) == mv.String(r)
}

func compare(l, r mv.Value) (int, error) {
	if a, ok := mv.Coerce(l); ok {
		if b, ok := mv.Coerce(r); ok {
			switch {
			case a < b:
				return -1, nil
			case a > b:
				return 1, nil
			default:
				return 0, nil
			}
		}
	}
	lt, lok := l.(mv.Text)
	rt, rok := r.(mv.Text)
	if lok && rok {
		return strings.Compare(string(lt), string(rt)), nil
	}
	return 0, fmt.Errorf("%w: cannot compare %s with %s", ErrType, typeName(l), typeName(r))
}

// number coerces a scalar operand; vectors and null are type errors.
func number(v mv.Value) (float64, error) {
	f, ok := mv.Coerce(v)
	if !ok {
		return 0, fmt.Errorf("%w: %s is not a number", ErrType, describeValue(v))
	}
	return f, nil
}

// isWord reports whether v is text that does not read as a number as it
// stands. Surrounding whitespace makes text a word.
func isWord(v mv.Value) bool {
	t, ok := v.(mv.Text)
	if !ok {
		return false
	}
	_, err := strconv.ParseFloat(string(t), 64)
	return err != nil
}

func isText(v mv.Value) bool {
	_, ok := v.(mv.Text)
	return ok
}

// joined reports whether v is the text result of a "+" node. Such a result
// is a concatenation and is never read back as a number.
func joined(n Node, v mv.Value) bool {
	b, ok := n.(Binary)
	return ok && b.Op == "+" && isText(v)
}

func truthy(v mv.Value) bool {
	switch v := v.(type) {
	case mv.Bool:
		return bool(v)
	case mv.Number:
		return v != 0
	case mv.Text:
		return v != ""
	case mv.Vector:
		return len(v) > 0
	default:
		return false
	}
}

func typeName(v mv.Value) string {
	switch v.(type) {
	case nil, mv.Null:
		return "null"
	case mv.Text:
		return "text"
	case mv.Number:
		return "number"
	case mv.Bool:
		return "bool"
	case mv.Vector:
		return "vector"
	default:
		return fmt.Sprintf("%T", v)
	}
}

func describeValue(v mv.Value) string {
	if t, ok := v.(mv.Text); ok {
		return fmt.Sprintf("%q", string(t))
	}
	return typeName(v)
}
