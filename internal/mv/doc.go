// Package mv implements the multivalue codec and the tagged value type shared by
// every other pickdb package.
//
// A multivalue field is a single text column holding several logical values
// joined by Delimiter. There is no type tag on the wire: a raw value is a
// Vector when it contains the delimiter and a scalar otherwise. Parse makes that
// decision once, at the storage boundary, so consumers switch on Value instead of
// sniffing strings.
//
// Key constraints:
//   - Parse never wraps a scalar in a one-element Vector
//   - Delimiter cannot be escaped; Encode rejects elements that contain it
//   - numeric coercion failures default to 0 in Numbers and are explicit in Coerce
package mv
