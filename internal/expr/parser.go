package expr

import (
	"strconv"

	"github.com/roach88/pickdb/internal/mv"
)

// maxNesting bounds recursion on deeply nested input.
const maxNesting = 64

// parser is a recursive-descent parser. Precedence, lowest first:
//
//	a if c else b
//	or
//	and
//	not
//	== != < <= > >=
//	+ -
//	* / %
//	unary - +
type parser struct {
	tokens []Token
	pos    int
	depth  int
	funcs  Functions
}

func parse(src string, funcs Functions) (Node, error) {
	tokens, err := tokenize(src)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens, funcs: funcs}
	if p.peek().Type == EOF {
		return nil, syntaxErrorf(0, "empty expression")
	}
	n, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.Type != EOF {
		return nil, syntaxErrorf(tok.Position, "unexpected %s %q", tok.Type, tok.Value)
	}
	return n, nil
}

func (p *parser) peek() Token {
	return p.tokens[p.pos]
}

func (p *parser) next() Token {
	tok := p.tokens[p.pos]
	if tok.Type != EOF {
		p.pos++
	}
	return tok
}

func (p *parser) expect(tt TokenType) (Token, error) {
	tok := p.next()
	if tok.Type != tt {
		return tok, syntaxErrorf(tok.Position, "expected %s, found %s", tt, describe(tok))
	}
	return tok, nil
}

func (p *parser) isOp(ops ...string) bool {
	tok := p.peek()
	if tok.Type != OPERATOR {
		return false
	}
	for _, op := range ops {
		if tok.Value == op {
			return true
		}
	}
	return false
}

func (p *parser) parseExpr() (Node, error) {
	p.depth++
	defer func() { p.depth-- }()
	if p.depth > maxNesting {
		return nil, syntaxErrorf(p.peek().Position, "expression nested too deeply")
	}

	then, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.peek().Type != IF {
		return then, nil
	}
	p.next()
	cond, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(ELSE); err != nil {
		return nil, err
	}
	els, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return Conditional{Cond: cond, Then: then, Else: els}, nil
}

func (p *parser) parseOr() (Node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.peek().Type == OR {
		p.next()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = Logical{Op: "or", Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (Node, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.peek().Type == AND {
		p.next()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = Logical{Op: "and", Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseNot() (Node, error) {
	if p.peek().Type != NOT {
		return p.parseComparison()
	}
	p.depth++
	defer func() { p.depth-- }()
	if p.depth > maxNesting {
		return nil, syntaxErrorf(p.peek().Position, "expression nested too deeply")
	}

	p.next()
	x, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	return Unary{Op: "not", X: x}, nil
}

func (p *parser) parseComparison() (Node, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	if !p.isOp("==", "!=", "<", "<=", ">", ">=") {
		return left, nil
	}
	op := p.next().Value
	right, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	if p.isOp("==", "!=", "<", "<=", ">", ">=") {
		return nil, syntaxErrorf(p.peek().Position, "chained comparison, use and")
	}
	return Binary{Op: op, Left: left, Right: right}, nil
}

func (p *parser) parseAdditive() (Node, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.isOp("+", "-") {
		op := p.next().Value
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = Binary{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseMultiplicative() (Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.isOp("*", "/", "%") {
		op := p.next().Value
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = Binary{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseUnary() (Node, error) {
	if !p.isOp("-", "+") {
		return p.parsePrimary()
	}
	p.depth++
	defer func() { p.depth-- }()
	if p.depth > maxNesting {
		return nil, syntaxErrorf(p.peek().Position, "expression nested too deeply")
	}

	op := p.next().Value
	x, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	return Unary{Op: op, X: x}, nil
}

func (p *parser) parsePrimary() (Node, error) {
	tok := p.next()
	switch tok.Type {
	case NUMBER:
		f, err := strconv.ParseFloat(tok.Value, 64)
		if err != nil {
			return nil, syntaxErrorf(tok.Position, "malformed number %q", tok.Value)
		}
		return Literal{Value: mv.Number(f)}, nil
	case STRING:
		return Literal{Value: mv.Text(tok.Value)}, nil
	case TRUE:
		return Literal{Value: mv.Bool(true)}, nil
	case FALSE:
		return Literal{Value: mv.Bool(false)}, nil
	case NULL:
		return Literal{Value: mv.Null{}}, nil
	case LPAREN:
		n, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(RPAREN); err != nil {
			return nil, err
		}
		return n, nil
	case IF:
		return p.parseIfCall(tok)
	case IDENT:
		if p.peek().Type == LPAREN {
			return p.parseCall(tok)
		}
		return Ident{Name: tok.Value, Pos: tok.Position}, nil
	default:
		return nil, syntaxErrorf(tok.Position, "unexpected %s", describe(tok))
	}
}

// parseIfCall parses if(cond, then, else).
func (p *parser) parseIfCall(tok Token) (Node, error) {
	args, err := p.parseArgs()
	if err != nil {
		return nil, err
	}
	if len(args) != 3 {
		return nil, syntaxErrorf(tok.Position, "if takes 3 arguments, got %d", len(args))
	}
	return Conditional{Cond: args[0], Then: args[1], Else: args[2]}, nil
}

func (p *parser) parseCall(tok Token) (Node, error) {
	if _, ok := lookupFunc(tok.Value, p.funcs); !ok {
		return nil, &SyntaxError{Pos: tok.Position, Msg: "unknown function " + tok.Value, Err: ErrUnknownFunction}
	}
	args, err := p.parseArgs()
	if err != nil {
		return nil, err
	}
	return Call{Name: tok.Value, Args: args}, nil
}

func (p *parser) parseArgs() ([]Node, error) {
	if _, err := p.expect(LPAREN); err != nil {
		return nil, err
	}
	var args []Node
	if p.peek().Type == RPAREN {
		p.next()
		return args, nil
	}
	for {
		arg, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if p.peek().Type == COMMA {
			p.next()
			continue
		}
		if _, err := p.expect(RPAREN); err != nil {
			return nil, err
		}
		return args, nil
	}
}

func describe(tok Token) string {
	if tok.Type == EOF {
		return tok.Type.String()
	}
	return tok.Type.String() + " " + strconv.Quote(tok.Value)
}
