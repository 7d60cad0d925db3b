package mv

import (
	"slices"
	"strings"
)

// Record is a resolved row keyed by column or field name.
type Record map[string]Value

// Get returns the value stored under key, treating Null as absent.
func (r Record) Get(key string) (Value, bool) {
	v, ok := r[key]
	if !ok || IsNull(v) {
		return nil, false
	}
	return v, true
}

// Lookup finds key trying the exact spelling, then lower case, then upper case.
// Column names are stored as declared while dictionary fields are upper-cased, so
// cross-table reads go through Lookup.
func (r Record) Lookup(key string) (Value, bool) {
	for _, k := range []string{key, strings.ToLower(key), strings.ToUpper(key)} {
		if v, ok := r.Get(k); ok {
			return v, true
		}
	}
	return nil, false
}

// Clone returns a shallow copy of r.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Keys returns the record keys in sorted order.
func (r Record) Keys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Native converts the record to a map of plain Go values.
func (r Record) Native() map[string]any {
	out := make(map[string]any, len(r))
	for k, v := range r {
		out[k] = Native(v)
	}
	return out
}
