package expr

import "github.com/roach88/pickdb/internal/mv"

// Node is an expression AST node.
//
// Sealed: only types in this package implement Node.
type Node interface {
	exprNode()
}

// Literal is a constant value.
type Literal struct {
	Value mv.Value
}

// Ident is a free identifier bound at evaluation time.
type Ident struct {
	Name string
	Pos  int
}

// Unary applies "-", "+" or "not" to X.
type Unary struct {
	Op string
	X  Node
}

// Binary applies an arithmetic or comparison operator.
type Binary struct {
	Op          string
	Left, Right Node
}

// Logical is a short-circuit "and" / "or".
type Logical struct {
	Op          string
	Left, Right Node
}

// Conditional is "Then if Cond else Else" or if(Cond, Then, Else).
type Conditional struct {
	Cond, Then, Else Node
}

// Call invokes a whitelisted function.
type Call struct {
	Name string
	Args []Node
}

func (Literal) exprNode()     {}
func (Ident) exprNode()       {}
func (Unary) exprNode()       {}
func (Binary) exprNode()      {}
func (Logical) exprNode()     {}
func (Conditional) exprNode() {}
func (Call) exprNode()        {}

// walk visits n and its children depth-first, left to right.
func walk(n Node, visit func(Node)) {
	visit(n)
	switch n := n.(type) {
	case Unary:
		walk(n.X, visit)
	case Binary:
		walk(n.Left, visit)
		walk(n.Right, visit)
	case Logical:
		walk(n.Left, visit)
		walk(n.Right, visit)
	case Conditional:
		walk(n.Cond, visit)
		walk(n.Then, visit)
		walk(n.Else, visit)
	case Call:
		for _, a := range n.Args {
			walk(a, visit)
		}
	}
}
