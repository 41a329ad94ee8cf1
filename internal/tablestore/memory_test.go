package tablestore

import (
	"context"
	"errors"
	"testing"

	"github.com/rpattn/rowsync/internal/domain"
)

func seeded() *MemoryStore {
	s := NewMemoryStore()
	s.CreateTable("inventory", domain.Record{"name", "qty", "site", ""})
	s.SeedRow("inventory", domain.Record{"bolts", "20", "north"})
	s.SeedRow("inventory", domain.Record{"nuts", "5", "south"})
	return s
}

func TestReadRowPadsToWidth(t *testing.T) {
	s := seeded()
	rec, err := s.ReadRow(context.Background(), "inventory", 2, 5)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if rec.Width() != 5 {
		t.Fatalf("expected padded width 5, got %d", rec.Width())
	}
	if rec.Get(1) != "bolts" || rec.Get(5) != "" {
		t.Fatalf("unexpected row: %v", rec)
	}
}

func TestReadRowsRebasesColumns(t *testing.T) {
	s := seeded()
	rows, err := s.ReadRows(context.Background(), "inventory", 2, 3, 2, 3)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].Get(1) != "20" || rows[0].Get(2) != "north" {
		t.Fatalf("region not rebased: %v", rows[0])
	}
}

func TestHeaderWidthIgnoresTrailingBlanks(t *testing.T) {
	s := seeded()
	width, err := s.HeaderWidth(context.Background(), "inventory")
	if err != nil {
		t.Fatalf("header width failed: %v", err)
	}
	if width != 3 {
		t.Fatalf("expected width 3 (trailing blank header ignored), got %d", width)
	}
}

func TestAppendReturnsRowIndex(t *testing.T) {
	s := seeded()
	row, err := s.Append(context.Background(), "inventory", domain.Record{"washers", "7", "east"})
	if err != nil {
		t.Fatalf("append failed: %v", err)
	}
	if row != 4 {
		t.Fatalf("expected new row at index 4, got %d", row)
	}
}

func TestWriteRowTouchesOnlyRegion(t *testing.T) {
	s := seeded()
	if err := s.WriteRow(context.Background(), "inventory", 2, 2, domain.Record{"25"}); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	rows := s.Rows("inventory")
	if rows[1].Get(1) != "bolts" || rows[1].Get(2) != "25" || rows[1].Get(3) != "north" {
		t.Fatalf("write bled outside region: %v", rows[1])
	}
}

func TestSortRowsNumericAware(t *testing.T) {
	s := seeded()
	if err := s.SortRows(context.Background(), "inventory", 2, true); err != nil {
		t.Fatalf("sort failed: %v", err)
	}
	rows := s.Rows("inventory")
	if rows[1].Get(2) != "5" || rows[2].Get(2) != "20" {
		t.Fatalf("expected numeric order 5, 20; got %q, %q", rows[1].Get(2), rows[2].Get(2))
	}
}

func TestSortRowsDescending(t *testing.T) {
	s := seeded()
	if err := s.SortRows(context.Background(), "inventory", 1, false); err != nil {
		t.Fatalf("sort failed: %v", err)
	}
	rows := s.Rows("inventory")
	if rows[1].Get(1) != "nuts" || rows[2].Get(1) != "bolts" {
		t.Fatalf("expected descending name order, got %q, %q", rows[1].Get(1), rows[2].Get(1))
	}
}

func TestUnknownTable(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.RowCount(context.Background(), "nope")
	if !errors.Is(err, ErrTableNotFound) {
		t.Fatalf("expected ErrTableNotFound, got %v", err)
	}
}
