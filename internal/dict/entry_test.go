package dict

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		in   string
		want Kind
		ok   bool
	}{
		{"Attribute", KindAttribute, true},
		{"attribute", KindAttribute, true},
		{"A", KindAttribute, true},
		{"T", KindTranslate, true},
		{"translate", KindTranslate, true},
		{"c", KindComputed, true},
		{"Computed", KindComputed, true},
		{"Virtual", Kind("Virtual"), false},
		{"", Kind(""), false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseKind(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEncodeDecodeAttributes(t *testing.T) {
	e := Entry{Kind: KindComputed, Position: "", Spec: "PRICE * QTY", Description: "Line total"}

	encoded := EncodeAttributes(e)
	assert.Equal(t, "Computed]]PRICE * QTY]Line total", encoded)
	assert.Equal(t, e, DecodeAttributes(encoded))
}

func TestEncodeAttributes_NormalizesKind(t *testing.T) {
	assert.Equal(t, "Translate]2]Tcustomers;name]", EncodeAttributes(Entry{Kind: "T", Position: "2", Spec: "Tcustomers;name"}))
}

func TestDecodeAttributes_MissingTrailingSegments(t *testing.T) {
	got := DecodeAttributes("Attribute]3")
	assert.Equal(t, Entry{Kind: KindAttribute, Position: "3"}, got)
}

func TestDecodeAttributes_TooManySegments(t *testing.T) {
	assert.Equal(t, Entry{}, DecodeAttributes("Attribute]1]x]y]z"))
}

func TestDecodeAttributes_Empty(t *testing.T) {
	assert.Equal(t, Entry{}, DecodeAttributes(""))
}

func TestDecodeAttributes_Legacy(t *testing.T) {
	got := DecodeAttributes("TYPE=C|POSITION=|CONVERSION=SUM:AMOUNTS|DESC=Total")
	assert.Equal(t, Entry{Kind: KindComputed, Spec: "SUM:AMOUNTS", Description: "Total"}, got)
}

func TestEntryValidate(t *testing.T) {
	tests := []struct {
		name  string
		entry Entry
		ok    bool
	}{
		{"attribute", Entry{Name: "NAME", Kind: KindAttribute, Position: "1"}, true},
		{"short kind", Entry{Name: "TOTAL", Kind: "C", Spec: "A + B"}, true},
		{"bad name", Entry{Name: "1BAD", Kind: KindAttribute}, false},
		{"empty name", Entry{Kind: KindAttribute}, false},
		{"unknown kind", Entry{Name: "X", Kind: "Virtual"}, false},
		{"delimiter in spec", Entry{Name: "X", Kind: KindComputed, Spec: "a]b"}, false},
		{"delimiter in description", Entry{Name: "X", Kind: KindAttribute, Description: "a]b"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.entry.Validate()
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidEntry))
		})
	}
}

func TestHumanize(t *testing.T) {
	assert.Equal(t, "First Name", Humanize("first_name"))
	assert.Equal(t, "Unit Price", Humanize("unitPrice"))
	assert.Equal(t, "Price", Humanize("price"))
}

func TestAttributeEntries(t *testing.T) {
	got := AttributeEntries([]string{"name", "unit_price"})
	assert.Equal(t, []Entry{
		{Name: "NAME", Kind: KindAttribute, Position: "1", Description: "Name"},
		{Name: "UNIT_PRICE", Kind: KindAttribute, Position: "2", Description: "Unit Price"},
	}, got)
}

func TestParseTranslateSpec(t *testing.T) {
	table, column, ok := ParseTranslateSpec(TranslateSpec("customers", "name"))
	require.True(t, ok)
	assert.Equal(t, "customers", table)
	assert.Equal(t, "name", column)

	for _, bad := range []string{"customers;name", "T", "Tcustomers", "T;name", "Tcustomers;", ""} {
		_, _, ok := ParseTranslateSpec(bad)
		assert.False(t, ok, bad)
	}
}
