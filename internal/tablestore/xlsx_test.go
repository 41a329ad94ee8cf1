package tablestore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/rpattn/rowsync/internal/domain"
)

func openSeededWorkbook(t *testing.T) *XLSXStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tables.xlsx")

	f := excelize.NewFile()
	if _, err := f.NewSheet("framing"); err != nil {
		t.Fatalf("failed to create sheet: %v", err)
	}
	for i, row := range [][]string{
		{"name", "stage", "ref"},
		{"Acme Tower", "framing", "SF-1"},
	} {
		for j, value := range row {
			cell, _ := excelize.CoordinatesToCellName(j+1, i+1)
			if err := f.SetCellStr("framing", cell, value); err != nil {
				t.Fatalf("failed to seed cell: %v", err)
			}
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("failed to save workbook: %v", err)
	}
	f.Close()

	store, err := OpenXLSXStore(path)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestXLSXReadRow(t *testing.T) {
	store := openSeededWorkbook(t)
	rec, err := store.ReadRow(context.Background(), "framing", 2, 4)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if rec.Get(1) != "Acme Tower" || rec.Get(3) != "SF-1" || rec.Get(4) != "" {
		t.Fatalf("unexpected row: %v", rec)
	}
}

func TestXLSXAppendAndCount(t *testing.T) {
	store := openSeededWorkbook(t)
	row, err := store.Append(context.Background(), "framing", domain.Record{"Beta Mill", "framing", "SF-2"})
	if err != nil {
		t.Fatalf("append failed: %v", err)
	}
	if row != 3 {
		t.Fatalf("expected row 3, got %d", row)
	}

	count, err := store.RowCount(context.Background(), "framing")
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 rows, got %d", count)
	}
}

func TestXLSXHeaderWidth(t *testing.T) {
	store := openSeededWorkbook(t)
	width, err := store.HeaderWidth(context.Background(), "framing")
	if err != nil {
		t.Fatalf("header width failed: %v", err)
	}
	if width != 3 {
		t.Fatalf("expected width 3, got %d", width)
	}
}

func TestXLSXUnknownSheet(t *testing.T) {
	store := openSeededWorkbook(t)
	if _, err := store.RowCount(context.Background(), "missing"); err == nil {
		t.Fatalf("expected error for unknown sheet")
	}
}
