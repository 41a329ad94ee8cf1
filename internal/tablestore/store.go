package tablestore

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/rpattn/rowsync/internal/domain"
)

// HeaderRow is the 1-indexed row holding column headers. Data rows start
// immediately after it.
const HeaderRow = 1

// ErrTableNotFound is returned when a named table does not exist in the
// backend.
var ErrTableNotFound = errors.New("table not found")

// Store is the record source and sink boundary. Backends offer no
// transactions; callers serialize their read-check-write sequences with a
// lock and treat every failure as retryable dependency I/O.
type Store interface {
	// ReadRow returns the fields of one row up to width columns. Rows
	// narrower than width are padded with empty cells.
	ReadRow(ctx context.Context, table string, row, width int) (domain.Record, error)

	// ReadRows returns one rectangular region in a single batch: rows
	// fromRow..toRow inclusive, columns fromCol..toCol inclusive. Each
	// returned record is re-based so Get(1) is fromCol.
	ReadRows(ctx context.Context, table string, fromRow, toRow, fromCol, toCol int) ([]domain.Record, error)

	// RowCount returns the number of rows including the header.
	RowCount(ctx context.Context, table string) (int, error)

	// HeaderWidth returns the highest column index with header content,
	// used to bound reads.
	HeaderWidth(ctx context.Context, table string) (int, error)

	// Append adds a record after the last row and returns its row index.
	Append(ctx context.Context, table string, rec domain.Record) (int, error)

	// WriteRow overwrites the region of one row starting at fromCol with
	// the given cells. Columns outside the region are left untouched.
	WriteRow(ctx context.Context, table string, row, fromCol int, cells domain.Record) error

	// SortRows reorders all non-header rows by the given column.
	SortRows(ctx context.Context, table string, col int, ascending bool) error
}

// compareCells orders two cell values for sorting: numerically when both
// parse as numbers, lexicographically otherwise. Empty cells sort last so a
// sparse column does not float blanks to the top.
func compareCells(a, b string, ascending bool) bool {
	a = strings.TrimSpace(a)
	b = strings.TrimSpace(b)
	if a == "" || b == "" {
		if a == b {
			return false
		}
		return b == ""
	}

	fa, errA := strconv.ParseFloat(a, 64)
	fb, errB := strconv.ParseFloat(b, 64)
	var less bool
	if errA == nil && errB == nil {
		less = fa < fb
	} else {
		less = a < b
	}
	if ascending {
		return less
	}
	return !less && a != b
}
