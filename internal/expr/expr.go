package expr

import (
	"errors"
	"fmt"

	"github.com/roach88/pickdb/internal/mv"
)

var (
	// ErrUnbound is returned when an identifier has no binding.
	ErrUnbound = errors.New("unbound identifier")

	// ErrUnknownFunction is returned for calls outside the whitelist.
	ErrUnknownFunction = errors.New("unknown function")

	// ErrType is returned when an operand has the wrong type.
	ErrType = errors.New("type error")

	// ErrDivisionByZero is returned by / and % with a zero divisor.
	ErrDivisionByZero = errors.New("division by zero")

	// ErrArity is returned when a function gets the wrong number of arguments.
	ErrArity = errors.New("wrong number of arguments")
)

// SyntaxError reports a source that does not parse.
type SyntaxError struct {
	Pos int
	Msg string
	Err error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at offset %d: %s", e.Pos, e.Msg)
}

func (e *SyntaxError) Unwrap() error {
	return e.Err
}

func syntaxErrorf(pos int, format string, args ...any) *SyntaxError {
	return &SyntaxError{Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

// Option configures Compile.
type Option func(*Program)

// WithFunctions makes extra functions callable. They shadow builtins of the
// same name.
func WithFunctions(funcs Functions) Option {
	return func(p *Program) {
		p.funcs = funcs
	}
}

// Program is a compiled expression. A Program is immutable and safe for
// concurrent use.
type Program struct {
	root  Node
	vars  []string
	funcs Functions
}

// Compile parses src.
func Compile(src string, opts ...Option) (*Program, error) {
	p := &Program{}
	for _, opt := range opts {
		opt(p)
	}

	root, err := parse(src, p.funcs)
	if err != nil {
		return nil, err
	}
	p.root = root

	seen := make(map[string]bool)
	walk(root, func(n Node) {
		if id, ok := n.(Ident); ok && !seen[id.Name] {
			seen[id.Name] = true
			p.vars = append(p.vars, id.Name)
		}
	})
	return p, nil
}

// Vars returns the free identifiers in order of first appearance.
func (p *Program) Vars() []string {
	return append([]string(nil), p.vars...)
}

// Eval evaluates the program. Identifiers are looked up in env by exact name.
func (p *Program) Eval(env map[string]mv.Value) (mv.Value, error) {
	e := &evaluator{env: env, funcs: p.funcs}
	return e.eval(p.root)
}

// Eval compiles and evaluates src in one step.
func Eval(src string, env map[string]mv.Value, opts ...Option) (mv.Value, error) {
	p, err := Compile(src, opts...)
	if err != nil {
		return nil, err
	}
	return p.Eval(env)
}
