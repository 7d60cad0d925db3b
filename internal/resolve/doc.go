// Package resolve turns raw rows into records by applying a table's dictionary.
//
// A resolution pass seeds an accumulator with the row's columns, parsed by the
// multivalue codec, then applies each dictionary entry in order. An entry's
// result is stored under its upper-cased name and is visible to every later
// entry; it is never visible to earlier ones.
//
// A pass never fails. Problems with individual entries (malformed positions or
// specs, expressions that do not compile or evaluate, failed lookups) are
// collected into a diagnostic error returned next to the record. The affected
// field is omitted, or for Translate entries falls back to the identifier.
package resolve
