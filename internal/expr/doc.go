// Package expr evaluates computed dictionary fields.
//
// The grammar is a small, side-effect free subset of infix expressions:
//
//	PRICE * QTY
//	FIRST_NAME + " " + LAST_NAME
//	"bulk" if QTY >= 100 else "retail"
//	if(len(TAGS) > 0, at(TAGS, 1), null)
//	round(sum(AMOUNTS) / len(AMOUNTS), 2)
//
// Sources are compiled once into an AST and evaluated against a set of
// bindings. Identifiers are matched case-sensitively. Evaluation never panics
// and never reaches outside the bindings and the function whitelist.
//
// "+" adds numbers and joins text. It joins when both operands are text, when
// either is text that does not read as a number, or when either is itself the
// result of a join, so "123" + " " + "456" is "123 456". A number plus numeric
// text adds: "10" + 5 is 15. The other arithmetic operators read numeric text
// as numbers.
//
// The legacy SUM: and MULTIPLY: directives are not part of this grammar; the
// resolver recognizes them before compiling.
package expr
