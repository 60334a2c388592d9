// Package store keeps books, reading logs and notes as named tables of
// string cells on a pluggable backend.
//
// Every backend stores rows under a header row, like a spreadsheet. The
// store maps those rows to domain types through declared columns, so
// files written by older versions (other headers, missing columns,
// stale enumerations) load cleanly.
//
// There is no locking or versioning across processes: the last Save wins.
package store

import (
	"context"
	"slices"
)

// Collection names one table.
type Collection string

// Collections.
const (
	Books      Collection = "books"
	ReadingLog Collection = "reading_log"
	Notes      Collection = "notes"
)

// Collections lists every collection the store manages.
var Collections = []Collection{Books, ReadingLog, Notes}

// Valid reports whether c is a known collection.
func (c Collection) Valid() bool {
	return slices.Contains(Collections, c)
}

// Record is one row keyed by column name.
type Record map[string]string

// Table is a header plus rows. Rows may lack keys for some header columns.
type Table struct {
	Header []string
	Rows   []Record
}

// Backend persists tables.
type Backend interface {
	// Read returns the whole table. A table that does not exist yet reads
	// as empty with no error.
	Read(ctx context.Context, c Collection) (*Table, error)

	// Write replaces the whole table.
	Write(ctx context.Context, c Collection, t *Table) error

	// Append adds one row without rewriting the others. If the stored
	// header lacks any of header's columns it is extended first.
	Append(ctx context.Context, c Collection, header []string, row Record) error

	Close() error
}

// RecordFromCells zips a header with one row of cells. Missing trailing
// cells are left out so normalisation can backfill them.
func RecordFromCells(header, cells []string) Record {
	r := make(Record, len(header))
	for i, name := range header {
		if name == "" || i >= len(cells) {
			continue
		}
		r[name] = cells[i]
	}
	return r
}

// Cells lays r out in header order.
func (r Record) Cells(header []string) []string {
	out := make([]string, len(header))
	for i, name := range header {
		out[i] = r[name]
	}
	return out
}

// MergeHeader returns stored extended with any columns of want it lacks,
// and whether anything was added.
func MergeHeader(stored, want []string) ([]string, bool) {
	merged := slices.Clone(stored)
	changed := false
	for _, name := range want {
		if !slices.Contains(merged, name) {
			merged = append(merged, name)
			changed = true
		}
	}
	return merged, changed
}
