package domain

import "strings"

// Record is one row of a Table: a 1-indexed, sparse sequence of
// string-rendered cell values. Reads beyond the populated width yield empty
// cells, so callers never have to care whether a trailing column exists.
type Record []string

// NewRecord allocates a record of the given width with every cell empty.
func NewRecord(width int) Record {
	if width < 0 {
		width = 0
	}
	return make(Record, width)
}

// Get returns the value at the 1-indexed column, or "" when the column is
// outside the populated width.
func (r Record) Get(col int) string {
	if col < 1 || col > len(r) {
		return ""
	}
	return r[col-1]
}

// Set writes the value at the 1-indexed column, growing the record if needed.
func (r Record) Set(col int, value string) Record {
	if col < 1 {
		return r
	}
	for len(r) < col {
		r = append(r, "")
	}
	r[col-1] = value
	return r
}

// Width returns the number of populated columns.
func (r Record) Width() int {
	return len(r)
}

// Trimmed returns the value at col with surrounding whitespace removed.
func (r Record) Trimmed(col int) string {
	return strings.TrimSpace(r.Get(col))
}

// HasValue reports whether the column holds a non-empty value after trimming
// and lies within the given read width.
func (r Record) HasValue(col, readWidth int) bool {
	if col < 1 || col > readWidth {
		return false
	}
	return r.Trimmed(col) != ""
}

// Clone returns an independent copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	copy(out, r)
	return out
}
