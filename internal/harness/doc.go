// Package harness runs YAML scenarios that exercise dictionaries end to end.
//
// A scenario creates tables (directly or from CUE schema files), defines
// dictionary entries, then runs a flow of record operations through the CRUD
// facade against a private in-memory SQLite database. Each step is traced with
// its outcome and result; expect clauses and assertions check the behaviour,
// and golden files pin the full trace.
//
// Runs are deterministic: steps are numbered by a logical clock and text
// identifiers come from a sequence generator (rec-1, rec-2, ...).
//
// Example scenario:
//
//	name: order_totals
//	description: Computed totals over multivalue quantities
//	tables:
//	  - name: orders
//	    columns: [{name: quantities, type: TEXT}]
//	fields:
//	  - {table: orders, name: TOTAL, kind: Computed, spec: "SUM:QUANTITIES"}
//	flow:
//	  - {op: insert, table: orders, ref: first, values: {quantities: [2, 3]}}
//	  - op: get
//	    table: orders
//	    id: $first
//	    fields: [TOTAL]
//	    expect: {result: {TOTAL: 5}}
package harness
