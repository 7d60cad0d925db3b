package dict

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/iancoleman/strcase"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/roach88/pickdb/internal/mv"
	"github.com/roach88/pickdb/internal/queryir"
)

// Kind selects how an entry derives its value.
type Kind string

const (
	// KindAttribute copies a physical column.
	KindAttribute Kind = "Attribute"

	// KindTranslate looks the value up in a foreign table.
	KindTranslate Kind = "Translate"

	// KindComputed evaluates a legacy directive or an expression.
	KindComputed Kind = "Computed"
)

// ParseKind accepts the full kind names and their one-letter codes, in any case.
func ParseKind(s string) (Kind, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ATTRIBUTE", "A":
		return KindAttribute, true
	case "TRANSLATE", "T":
		return KindTranslate, true
	case "COMPUTED", "C":
		return KindComputed, true
	default:
		return Kind(s), false
	}
}

// ErrInvalidEntry is returned by Define for entries that cannot be stored.
var ErrInvalidEntry = errors.New("invalid dictionary entry")

// Entry is one named field definition.
type Entry struct {
	// Name is the output key, conventionally upper case.
	Name string `json:"name" yaml:"name"`

	// Kind selects Attribute, Translate or Computed resolution.
	Kind Kind `json:"kind" yaml:"kind"`

	// Position is a 1-based column ordinal or a literal column/field name.
	// Attribute entries read it; Translate entries read their source identifier from it.
	Position string `json:"position,omitempty" yaml:"position,omitempty"`

	// Spec is T<table>;<column> for Translate entries, and SUM:, MULTIPLY: or an
	// expression for Computed entries.
	Spec string `json:"spec,omitempty" yaml:"spec,omitempty"`

	// Description is a human label; it has no effect on resolution.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Validate checks that e can be stored and round-trips through the attribute encoding.
// Spec contents are not checked here; a bad expression only costs its own field
// at read time.
func (e Entry) Validate() error {
	if !queryir.ValidIdentifier(e.Name) {
		return fmt.Errorf("%w: name %q must be an identifier", ErrInvalidEntry, e.Name)
	}
	if _, ok := ParseKind(string(e.Kind)); !ok {
		return fmt.Errorf("%w: %s: unknown kind %q", ErrInvalidEntry, e.Name, e.Kind)
	}
	segments := []struct{ label, value string }{
		{"position", e.Position},
		{"spec", e.Spec},
		{"description", e.Description},
	}
	for _, seg := range segments {
		if strings.Contains(seg.value, mv.Delimiter) {
			return fmt.Errorf("%w: %s: %s contains %q", ErrInvalidEntry, e.Name, seg.label, mv.Delimiter)
		}
	}
	return nil
}

// EncodeAttributes renders the positional attribute string stored in the
// dictionary table.
func EncodeAttributes(e Entry) string {
	kind, _ := ParseKind(string(e.Kind))
	return strings.Join([]string{string(kind), e.Position, e.Spec, e.Description}, mv.Delimiter)
}

// DecodeAttributes parses an attribute string. Missing trailing segments decode
// as empty strings. Malformed input yields an Entry with every field empty; it
// never fails.
func DecodeAttributes(s string) Entry {
	if strings.HasPrefix(s, "TYPE=") {
		return decodeLegacy(s)
	}

	segs := strings.Split(s, mv.Delimiter)
	if len(segs) > 4 {
		return Entry{}
	}
	for len(segs) < 4 {
		segs = append(segs, "")
	}

	kind, _ := ParseKind(segs[0])
	return Entry{
		Kind:        kind,
		Position:    segs[1],
		Spec:        segs[2],
		Description: segs[3],
	}
}

// decodeLegacy parses TYPE=<k>|POSITION=<p>|CONVERSION=<c>|DESC=<d>.
func decodeLegacy(s string) Entry {
	var e Entry
	for _, part := range strings.Split(s, "|") {
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		switch strings.ToUpper(strings.TrimSpace(key)) {
		case "TYPE":
			e.Kind, _ = ParseKind(value)
		case "POSITION":
			e.Position = value
		case "CONVERSION":
			e.Spec = value
		case "DESC":
			e.Description = value
		}
	}
	return e
}

// TableName returns the dictionary table for an entity table.
func TableName(table string) string {
	return table + "_DICT"
}

// FieldName returns the dictionary key for a physical column.
func FieldName(column string) string {
	return strings.ToUpper(column)
}

var title = cases.Title(language.English)

// Humanize turns a column name into a description: "first_name" → "First Name",
// "unitPrice" → "Unit Price".
func Humanize(column string) string {
	return title.String(strcase.ToDelimited(column, ' '))
}

// AttributeEntries builds the default entries for a table's data columns:
// one Attribute per column, positioned by 1-based ordinal.
func AttributeEntries(columns []string) []Entry {
	entries := make([]Entry, len(columns))
	for i, col := range columns {
		entries[i] = Entry{
			Name:        FieldName(col),
			Kind:        KindAttribute,
			Position:    strconv.Itoa(i + 1),
			Description: Humanize(col),
		}
	}
	return entries
}

// TranslateSpec builds the spec of a Translate entry: T<table>;<column>.
func TranslateSpec(table, column string) string {
	return "T" + table + ";" + column
}

// ParseTranslateSpec splits T<table>;<column>. The leading T is required.
func ParseTranslateSpec(spec string) (table, column string, ok bool) {
	rest, found := strings.CutPrefix(strings.TrimSpace(spec), "T")
	if !found {
		return "", "", false
	}
	table, column, found = strings.Cut(rest, ";")
	table, column = strings.TrimSpace(table), strings.TrimSpace(column)
	if !found || table == "" || column == "" {
		return "", "", false
	}
	return table, column, true
}
