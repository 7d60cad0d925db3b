package expr

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// TokenType identifies a lexical token.
type TokenType int

const (
	EOF TokenType = iota
	NUMBER
	STRING
	IDENT
	OPERATOR
	LPAREN
	RPAREN
	COMMA

	// keywords
	AND
	OR
	NOT
	IF
	ELSE
	TRUE
	FALSE
	NULL
)

var keywords = map[string]TokenType{
	"and":   AND,
	"or":    OR,
	"not":   NOT,
	"if":    IF,
	"else":  ELSE,
	"true":  TRUE,
	"True":  TRUE,
	"false": FALSE,
	"False": FALSE,
	"null":  NULL,
	"None":  NULL,
}

// Token is a lexical token with its byte offset in the source.
type Token struct {
	Type     TokenType
	Value    string
	Position int
}

// Lexer splits an expression into tokens.
type Lexer struct {
	input string
	pos   int
}

// NewLexer returns a lexer over input.
func NewLexer(input string) *Lexer {
	return &Lexer{input: input}
}

// NextToken returns the next token, or an error for input that cannot start one.
func (l *Lexer) NextToken() (Token, error) {
	l.skipWhitespace()
	if l.pos >= len(l.input) {
		return Token{Type: EOF, Position: l.pos}, nil
	}

	start := l.pos
	ch := l.input[l.pos]

	switch {
	case ch == '(':
		l.pos++
		return Token{Type: LPAREN, Value: "(", Position: start}, nil
	case ch == ')':
		l.pos++
		return Token{Type: RPAREN, Value: ")", Position: start}, nil
	case ch == ',':
		l.pos++
		return Token{Type: COMMA, Value: ",", Position: start}, nil
	case strings.IndexByte("+-*/%", ch) >= 0:
		l.pos++
		return Token{Type: OPERATOR, Value: string(ch), Position: start}, nil
	case strings.IndexByte("=!<>", ch) >= 0:
		return l.readComparison(start)
	case ch == '"' || ch == '\'':
		return l.readString(start)
	case isDigit(ch) || (ch == '.' && l.pos+1 < len(l.input) && isDigit(l.input[l.pos+1])):
		return l.readNumber(start)
	}

	r, _ := utf8.DecodeRuneInString(l.input[l.pos:])
	if r == '_' || unicode.IsLetter(r) {
		return l.readIdentifier(start), nil
	}
	return Token{}, syntaxErrorf(start, "unexpected character %q", r)
}

// tokenize returns every token of input, ending with EOF.
func tokenize(input string) ([]Token, error) {
	l := NewLexer(input)
	var tokens []Token
	for {
		tok, err := l.NextToken()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Type == EOF {
			return tokens, nil
		}
	}
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.input) {
		r, size := utf8.DecodeRuneInString(l.input[l.pos:])
		if !unicode.IsSpace(r) {
			return
		}
		l.pos += size
	}
}

func (l *Lexer) readComparison(start int) (Token, error) {
	ch := l.input[l.pos]
	l.pos++
	if l.pos < len(l.input) && l.input[l.pos] == '=' {
		l.pos++
		return Token{Type: OPERATOR, Value: string(ch) + "=", Position: start}, nil
	}
	switch ch {
	case '<', '>':
		return Token{Type: OPERATOR, Value: string(ch), Position: start}, nil
	case '=':
		return Token{}, syntaxErrorf(start, "assignment is not allowed, use ==")
	default:
		return Token{}, syntaxErrorf(start, "unexpected character %q", ch)
	}
}

func (l *Lexer) readString(start int) (Token, error) {
	quote := l.input[l.pos]
	l.pos++

	var sb strings.Builder
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		switch {
		case ch == quote:
			l.pos++
			return Token{Type: STRING, Value: sb.String(), Position: start}, nil
		case ch == '\\' && l.pos+1 < len(l.input):
			l.pos++
			switch esc := l.input[l.pos]; esc {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			default:
				sb.WriteByte(esc)
			}
		default:
			sb.WriteByte(ch)
		}
		l.pos++
	}
	return Token{}, syntaxErrorf(start, "unterminated string")
}

func (l *Lexer) readNumber(start int) (Token, error) {
	seenDot, seenExp := false, false
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		switch {
		case isDigit(ch):
		case ch == '.' && !seenDot && !seenExp:
			seenDot = true
		case (ch == 'e' || ch == 'E') && !seenExp:
			seenExp = true
			if l.pos+1 < len(l.input) && (l.input[l.pos+1] == '+' || l.input[l.pos+1] == '-') {
				l.pos++
			}
			if l.pos+1 >= len(l.input) || !isDigit(l.input[l.pos+1]) {
				return Token{}, syntaxErrorf(start, "malformed number %q", l.input[start:l.pos+1])
			}
		default:
			return Token{Type: NUMBER, Value: l.input[start:l.pos], Position: start}, nil
		}
		l.pos++
	}
	return Token{Type: NUMBER, Value: l.input[start:l.pos], Position: start}, nil
}

func (l *Lexer) readIdentifier(start int) Token {
	for l.pos < len(l.input) {
		r, size := utf8.DecodeRuneInString(l.input[l.pos:])
		if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			break
		}
		l.pos += size
	}
	value := l.input[start:l.pos]
	if kw, ok := keywords[value]; ok {
		return Token{Type: kw, Value: value, Position: start}
	}
	return Token{Type: IDENT, Value: value, Position: start}
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func (t TokenType) String() string {
	switch t {
	case EOF:
		return "end of input"
	case NUMBER:
		return "number"
	case STRING:
		return "string"
	case IDENT:
		return "identifier"
	case OPERATOR:
		return "operator"
	case LPAREN:
		return "'('"
	case RPAREN:
		return "')'"
	case COMMA:
		return "','"
	default:
		for word, kw := range keywords {
			if kw == t && strings.ToLower(word) == word {
				return fmt.Sprintf("%q", word)
			}
		}
		return "token"
	}
}
