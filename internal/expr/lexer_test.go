package expr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize(t *testing.T) {
	tokens, err := tokenize(`PRICE * 2 >= 10.5 and not "x\"y" == 'z'`)
	require.NoError(t, err)

	var types []TokenType
	var values []string
	for _, tok := range tokens {
		types = append(types, tok.Type)
		values = append(values, tok.Value)
	}
	assert.Equal(t, []TokenType{IDENT, OPERATOR, NUMBER, OPERATOR, NUMBER, AND, NOT, STRING, OPERATOR, STRING, EOF}, types)
	assert.Equal(t, []string{"PRICE", "*", "2", ">=", "10.5", "and", "not", `x"y`, "==", "z", ""}, values)
}

func TestTokenize_Positions(t *testing.T) {
	tokens, err := tokenize("A  +B")
	require.NoError(t, err)
	require.Len(t, tokens, 4)
	assert.Equal(t, 0, tokens[0].Position)
	assert.Equal(t, 3, tokens[1].Position)
	assert.Equal(t, 4, tokens[2].Position)
	assert.Equal(t, 5, tokens[3].Position)
}

func TestTokenize_Numbers(t *testing.T) {
	for _, src := range []string{"1", "1.5", ".5", "1e3", "2.5E-2"} {
		tokens, err := tokenize(src)
		require.NoError(t, err, src)
		require.Len(t, tokens, 2, src)
		assert.Equal(t, NUMBER, tokens[0].Type, src)
		assert.Equal(t, src, tokens[0].Value, src)
	}
}

func TestTokenize_Keywords(t *testing.T) {
	tokens, err := tokenize("true True false False null None if else or")
	require.NoError(t, err)

	want := []TokenType{TRUE, TRUE, FALSE, FALSE, NULL, NULL, IF, ELSE, OR, EOF}
	for i, tt := range want {
		assert.Equal(t, tt, tokens[i].Type, tokens[i].Value)
	}
}

func TestTokenize_Errors(t *testing.T) {
	tests := []struct {
		src string
		pos int
	}{
		{"a = b", 2},
		{"'abc", 0},
		{"a $ b", 2},
		{"1e", 0},
		{"a ! b", 2},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			_, err := tokenize(tt.src)
			require.Error(t, err)
			var syn *SyntaxError
			require.True(t, errors.As(err, &syn))
			assert.Equal(t, tt.pos, syn.Pos)
		})
	}
}
