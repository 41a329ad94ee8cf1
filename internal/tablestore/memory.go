package tablestore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/rpattn/rowsync/internal/domain"
)

// MemoryStore keeps tables in process memory. It backs tests and the
// single-binary deployment mode.
type MemoryStore struct {
	mu     sync.RWMutex
	tables map[string][]domain.Record
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tables: make(map[string][]domain.Record)}
}

// CreateTable registers a table with the given header row. Existing content
// is replaced.
func (s *MemoryStore) CreateTable(name string, header domain.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[name] = []domain.Record{header.Clone()}
}

// SeedRow appends a data row without going through Append's context
// plumbing. Test helper.
func (s *MemoryStore) SeedRow(name string, rec domain.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[name] = append(s.tables[name], rec.Clone())
}

// Rows returns a copy of every row of the table, header included.
func (s *MemoryStore) Rows(name string) []domain.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := s.tables[name]
	out := make([]domain.Record, len(rows))
	for i, r := range rows {
		out[i] = r.Clone()
	}
	return out
}

func (s *MemoryStore) rows(table string) ([]domain.Record, error) {
	rows, ok := s.tables[table]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, table)
	}
	return rows, nil
}

// ReadRow implements Store.
func (s *MemoryStore) ReadRow(ctx context.Context, table string, row, width int) (domain.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.rows(table)
	if err != nil {
		return nil, err
	}
	if row < 1 || row > len(rows) {
		return nil, fmt.Errorf("row %d out of range for table %s", row, table)
	}

	rec := domain.NewRecord(width)
	for col := 1; col <= width; col++ {
		rec = rec.Set(col, rows[row-1].Get(col))
	}
	return rec, nil
}

// ReadRows implements Store.
func (s *MemoryStore) ReadRows(ctx context.Context, table string, fromRow, toRow, fromCol, toCol int) ([]domain.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.rows(table)
	if err != nil {
		return nil, err
	}
	if fromRow < 1 || fromCol < 1 || toCol < fromCol {
		return nil, fmt.Errorf("invalid region %d..%d x %d..%d for table %s", fromRow, toRow, fromCol, toCol, table)
	}
	if toRow > len(rows) {
		toRow = len(rows)
	}

	var out []domain.Record
	for r := fromRow; r <= toRow; r++ {
		rec := domain.NewRecord(toCol - fromCol + 1)
		for c := fromCol; c <= toCol; c++ {
			rec = rec.Set(c-fromCol+1, rows[r-1].Get(c))
		}
		out = append(out, rec)
	}
	return out, nil
}

// RowCount implements Store.
func (s *MemoryStore) RowCount(ctx context.Context, table string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.rows(table)
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

// HeaderWidth implements Store.
func (s *MemoryStore) HeaderWidth(ctx context.Context, table string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.rows(table)
	if err != nil {
		return 0, err
	}
	header := rows[HeaderRow-1]
	width := 0
	for col := 1; col <= header.Width(); col++ {
		if header.Trimmed(col) != "" {
			width = col
		}
	}
	return width, nil
}

// Append implements Store.
func (s *MemoryStore) Append(ctx context.Context, table string, rec domain.Record) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.rows(table)
	if err != nil {
		return 0, err
	}
	s.tables[table] = append(rows, rec.Clone())
	return len(rows) + 1, nil
}

// WriteRow implements Store.
func (s *MemoryStore) WriteRow(ctx context.Context, table string, row, fromCol int, cells domain.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.rows(table)
	if err != nil {
		return err
	}
	if row < 1 || row > len(rows) {
		return fmt.Errorf("row %d out of range for table %s", row, table)
	}

	target := rows[row-1]
	for i := 1; i <= cells.Width(); i++ {
		target = target.Set(fromCol+i-1, cells.Get(i))
	}
	rows[row-1] = target
	return nil
}

// SortRows implements Store.
func (s *MemoryStore) SortRows(ctx context.Context, table string, col int, ascending bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.rows(table)
	if err != nil {
		return err
	}
	if len(rows) <= HeaderRow+1 {
		return nil
	}

	data := rows[HeaderRow:]
	sort.SliceStable(data, func(i, j int) bool {
		return compareCells(data[i].Get(col), data[j].Get(col), ascending)
	})
	return nil
}
