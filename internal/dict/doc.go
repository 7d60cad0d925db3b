// Package dict stores per-table dictionaries: ordered field definitions that
// tell the resolver how to derive output fields from raw rows.
//
// Each entity table T has a dictionary table named T_DICT with the schema
//
//	(id auto-increment primary key, key text not null unique, attributes text not null)
//
// The attributes column holds the entry's kind, position, spec and description as
// four segments joined by the multivalue delimiter:
//
//	Computed]]SUM:STOCK_LEVELS]Total stock
//
// The older pipe-joined form (TYPE=<k>|POSITION=<p>|CONVERSION=<c>|DESC=<d>) is
// still decoded when read but never written.
//
// Entries are listed in id order. Upserting an entry by name keeps its id, so
// redefining a field never moves it in the resolution order.
package dict
