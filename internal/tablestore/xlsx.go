package tablestore

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/xuri/excelize/v2"

	"github.com/rpattn/rowsync/internal/domain"
)

// XLSXStore persists tables as sheets of one xlsx workbook on disk. Every
// mutation saves the workbook, so a crashed process never loses more than
// the operation in flight.
type XLSXStore struct {
	mu   sync.Mutex
	path string
	file *excelize.File
}

// OpenXLSXStore opens the workbook at path, creating it when absent.
func OpenXLSXStore(path string) (*XLSXStore, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		f := excelize.NewFile()
		if err := f.SaveAs(path); err != nil {
			return nil, fmt.Errorf("failed to create workbook: %w", err)
		}
		return &XLSXStore{path: path, file: f}, nil
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	return &XLSXStore{path: path, file: f}, nil
}

// Close releases the underlying workbook handle.
func (s *XLSXStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}

func (s *XLSXStore) sheetRows(table string) ([][]string, error) {
	if idx, err := s.file.GetSheetIndex(table); err != nil || idx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, table)
	}
	rows, err := s.file.GetRows(table)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", table, err)
	}
	return rows, nil
}

func (s *XLSXStore) save() error {
	if err := s.file.Save(); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

func cellAt(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

// ReadRow implements Store.
func (s *XLSXStore) ReadRow(ctx context.Context, table string, row, width int) (domain.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.sheetRows(table)
	if err != nil {
		return nil, err
	}
	if row < 1 || row > len(rows) {
		return nil, fmt.Errorf("row %d out of range for sheet %s", row, table)
	}

	rec := domain.NewRecord(width)
	for col := 1; col <= width && col <= len(rows[row-1]); col++ {
		rec = rec.Set(col, rows[row-1][col-1])
	}
	return rec, nil
}

// ReadRows implements Store.
func (s *XLSXStore) ReadRows(ctx context.Context, table string, fromRow, toRow, fromCol, toCol int) ([]domain.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.sheetRows(table)
	if err != nil {
		return nil, err
	}
	if fromRow < 1 || fromCol < 1 || toCol < fromCol {
		return nil, fmt.Errorf("invalid region %d..%d x %d..%d for sheet %s", fromRow, toRow, fromCol, toCol, table)
	}
	if toRow > len(rows) {
		toRow = len(rows)
	}

	var out []domain.Record
	for r := fromRow; r <= toRow; r++ {
		rec := domain.NewRecord(toCol - fromCol + 1)
		for c := fromCol; c <= toCol && c <= len(rows[r-1]); c++ {
			rec = rec.Set(c-fromCol+1, rows[r-1][c-1])
		}
		out = append(out, rec)
	}
	return out, nil
}

// RowCount implements Store.
func (s *XLSXStore) RowCount(ctx context.Context, table string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.sheetRows(table)
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

// HeaderWidth implements Store.
func (s *XLSXStore) HeaderWidth(ctx context.Context, table string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.sheetRows(table)
	if err != nil {
		return 0, err
	}
	if len(rows) < HeaderRow {
		return 0, nil
	}

	width := 0
	for col, value := range rows[HeaderRow-1] {
		if value != "" {
			width = col + 1
		}
	}
	return width, nil
}

// Append implements Store.
func (s *XLSXStore) Append(ctx context.Context, table string, rec domain.Record) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.sheetRows(table)
	if err != nil {
		return 0, err
	}

	row := len(rows) + 1
	for col := 1; col <= rec.Width(); col++ {
		if err := s.file.SetCellStr(table, cellAt(col, row), rec.Get(col)); err != nil {
			return 0, fmt.Errorf("failed to write cell: %w", err)
		}
	}
	if err := s.save(); err != nil {
		return 0, err
	}
	return row, nil
}

// WriteRow implements Store.
func (s *XLSXStore) WriteRow(ctx context.Context, table string, row, fromCol int, cells domain.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.sheetRows(table); err != nil {
		return err
	}
	for i := 1; i <= cells.Width(); i++ {
		if err := s.file.SetCellStr(table, cellAt(fromCol+i-1, row), cells.Get(i)); err != nil {
			return fmt.Errorf("failed to write cell: %w", err)
		}
	}
	return s.save()
}

// SortRows implements Store.
func (s *XLSXStore) SortRows(ctx context.Context, table string, col int, ascending bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.sheetRows(table)
	if err != nil {
		return err
	}
	if len(rows) <= HeaderRow+1 {
		return nil
	}

	data := make([]domain.Record, 0, len(rows)-HeaderRow)
	width := 0
	for _, raw := range rows[HeaderRow:] {
		rec := domain.Record(append([]string(nil), raw...))
		if rec.Width() > width {
			width = rec.Width()
		}
		data = append(data, rec)
	}
	sort.SliceStable(data, func(i, j int) bool {
		return compareCells(data[i].Get(col), data[j].Get(col), ascending)
	})

	for i, rec := range data {
		row := HeaderRow + 1 + i
		for c := 1; c <= width; c++ {
			if err := s.file.SetCellStr(table, cellAt(c, row), rec.Get(c)); err != nil {
				return fmt.Errorf("failed to write cell: %w", err)
			}
		}
	}
	return s.save()
}
