package mv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_ScalarStaysScalar(t *testing.T) {
	assert.Equal(t, Text("Widget"), Parse("Widget"))
	assert.Equal(t, Text(""), Parse(""))
}

func TestParse_SplitsOnDelimiter(t *testing.T) {
	assert.Equal(t, Vector{Text("10"), Text("5"), Text("3")}, Parse("10]5]3"))
	assert.Equal(t, Vector{Text("a"), Text("")}, Parse("a]"))
}

func TestFormat(t *testing.T) {
	tests := []struct {
		name string
		in   Value
		want string
	}{
		{"vector", Vector{Text("a"), Text("b")}, "a]b"},
		{"numbers", Vector{Number(20), Number(60.5)}, "20]60.5"},
		{"scalar text", Text("plain"), "plain"},
		{"scalar number", Number(9.99), "9.99"},
		{"whole number", Number(18), "18"},
		{"null", Null{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Format(tt.in))
		})
	}
}

func TestRoundTrip_SequenceThroughFormatAndParse(t *testing.T) {
	seqs := [][]string{
		{"a", "b"},
		{"10.0", "20.0", "30.0"},
		{"red", "green", "blue", "with space"},
	}
	for _, seq := range seqs {
		vec := Of(seq).(Vector)
		assert.Equal(t, vec, Parse(Format(vec)))
	}
}

func TestRoundTrip_DelimitedText(t *testing.T) {
	for _, s := range []string{"a]b", "1]2]3", "x]y z]w"} {
		assert.Equal(t, s, Format(Parse(s)))
	}
}

func TestNumbers(t *testing.T) {
	assert.Equal(t, []float64{10, 5, 3}, Numbers(Text("10]5]3")))
	assert.Equal(t, []float64{10, 0, 3}, Numbers(Text("10]abc]3")))
	assert.Equal(t, []float64{7}, Numbers(Text("7")))
	assert.Equal(t, []float64{2.5}, Numbers(Number(2.5)))
	assert.Equal(t, []float64{1, 2}, Numbers(Vector{Number(1), Text("2")}))
	assert.Empty(t, Numbers(Null{}))
}

func TestCoerce(t *testing.T) {
	f, ok := Coerce(Text(" 4.5 "))
	assert.True(t, ok)
	assert.Equal(t, 4.5, f)

	_, ok = Coerce(Text("four"))
	assert.False(t, ok)

	_, ok = Coerce(Vector{Number(1)})
	assert.False(t, ok)
}

func TestElements(t *testing.T) {
	assert.Equal(t, []Value{Text("1"), Text("2")}, Elements(Text("1]2")))
	assert.Equal(t, []Value{Number(1)}, Elements(Number(1)))
	assert.Nil(t, Elements(Null{}))
}

func TestEncode(t *testing.T) {
	got, err := Encode([]string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, "a]b", got)

	got, err = Encode([]float64{10, 20.5})
	require.NoError(t, err)
	assert.Equal(t, "10]20.5", got)

	got, err = Encode([]any{"x", 2})
	require.NoError(t, err)
	assert.Equal(t, "x]2", got)

	got, err = Encode(9.99)
	require.NoError(t, err)
	assert.Equal(t, 9.99, got)

	got, err = Encode(nil)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestEncode_Rejects(t *testing.T) {
	_, err := Encode([]string{"a]b", "c"})
	assert.ErrorIs(t, err, ErrDelimiterInValue)

	_, err = Encode(map[string]any{"a": 1})
	assert.ErrorIs(t, err, ErrUnsupportedValue)

	_, err = Encode([]any{[]string{"nested"}})
	assert.ErrorIs(t, err, ErrUnsupportedValue)
}

func TestParseRow(t *testing.T) {
	rec := ParseRow(map[string]any{
		"id":    int64(1),
		"name":  "Widget",
		"stock": []byte("10]5]3"),
		"price": 9.99,
		"note":  nil,
	})
	assert.Equal(t, Number(1), rec["id"])
	assert.Equal(t, Text("Widget"), rec["name"])
	assert.Equal(t, Vector{Text("10"), Text("5"), Text("3")}, rec["stock"])
	assert.Equal(t, Number(9.99), rec["price"])
	assert.Equal(t, Null{}, rec["note"])
}

func TestRecordLookup(t *testing.T) {
	rec := Record{"first_name": Text("John"), "FULL_NAME": Text("John Doe"), "gone": Null{}}

	v, ok := rec.Lookup("FIRST_NAME")
	require.True(t, ok)
	assert.Equal(t, Text("John"), v)

	v, ok = rec.Lookup("full_name")
	require.True(t, ok)
	assert.Equal(t, Text("John Doe"), v)

	_, ok = rec.Lookup("gone")
	assert.False(t, ok)
}
