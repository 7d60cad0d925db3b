// Package crud is the record-level API: tables with dictionaries, records
// written with multivalue encoding, and reads resolved through the dictionary.
//
// Reads never report a missing row or table as an error; they return found
// false or an empty slice. Writes report input problems as ErrValidation and
// storage failures as ErrBackend.
package crud
