package transfer

import (
	"context"
	"testing"
	"time"

	"github.com/rpattn/rowsync/internal/domain"
	"github.com/rpattn/rowsync/internal/tablestore"
)

func seedDestination(t *testing.T) *tablestore.MemoryStore {
	t.Helper()
	store := tablestore.NewMemoryStore()
	store.CreateTable("upcoming", domain.Record{"name", "fieldX", "location", "notes", "", "ref"})
	store.SeedRow("upcoming", domain.Record{"Acme Tower", "A", "Berlin", "", "", "SF-1"})
	store.SeedRow("upcoming", domain.Record{"Acme Tower", "B", "Hamburg", "", "", ""})
	return store
}

func finderSpec() domain.DuplicateCheckSpec {
	return domain.DuplicateCheckSpec{
		Enabled: true,
		Primary: &domain.PrimaryKeySpec{SourceCol: 1, DestCol: 6},
		Fallback: &domain.CompoundKeySpec{
			NameSourceCol: 2,
			NameDestCol:   1,
			Extra:         []domain.KeyPair{{SourceCol: 4, DestCol: 3}},
			Separator:     "|",
		},
	}
}

func TestFindByPrimaryMatches(t *testing.T) {
	store := seedDestination(t)
	finder := NewFinder(store, time.UTC)

	src := domain.Record{"SF-1", "Acme Tower", "", "Berlin"}
	row, found, err := finder.Find(context.Background(), "upcoming", Identity{PrimaryID: "SF-1", FallbackName: "Acme Tower"}, src, 4, finderSpec())
	if err != nil {
		t.Fatalf("find returned error: %v", err)
	}
	if !found || row != 2 {
		t.Fatalf("expected match at row 2, got found=%v row=%d", found, row)
	}
}

func TestFindPrimaryMissIsDefinitive(t *testing.T) {
	// A present-but-unmatched primary id is a "not found", never a trigger
	// for the compound fallback; the name+location would otherwise match.
	store := seedDestination(t)
	finder := NewFinder(store, time.UTC)

	src := domain.Record{"SF-99", "Acme Tower", "", "Berlin"}
	_, found, err := finder.Find(context.Background(), "upcoming", Identity{PrimaryID: "SF-99", FallbackName: "Acme Tower"}, src, 4, finderSpec())
	if err != nil {
		t.Fatalf("find returned error: %v", err)
	}
	if found {
		t.Fatalf("primary miss must not fall through to compound fallback")
	}
}

func TestFindByCompoundFallback(t *testing.T) {
	store := seedDestination(t)
	finder := NewFinder(store, time.UTC)

	// No primary id: name+location selects row 3 (Hamburg), not row 2,
	// despite both rows sharing the name.
	src := domain.Record{"", "acme tower", "", "HAMBURG"}
	row, found, err := finder.Find(context.Background(), "upcoming", Identity{FallbackName: "acme tower"}, src, 4, finderSpec())
	if err != nil {
		t.Fatalf("find returned error: %v", err)
	}
	if !found || row != 3 {
		t.Fatalf("expected compound match at row 3, got found=%v row=%d", found, row)
	}
}

func TestFindCompoundNoCollisionOnDifferingParts(t *testing.T) {
	store := seedDestination(t)
	finder := NewFinder(store, time.UTC)

	src := domain.Record{"", "Acme Tower", "", "Munich"}
	_, found, err := finder.Find(context.Background(), "upcoming", Identity{FallbackName: "Acme Tower"}, src, 4, finderSpec())
	if err != nil {
		t.Fatalf("find returned error: %v", err)
	}
	if found {
		t.Fatalf("name-only collision must not count as a duplicate")
	}
}

func TestFindEmptyDestination(t *testing.T) {
	store := tablestore.NewMemoryStore()
	store.CreateTable("upcoming", domain.Record{"name", "fieldX", "location", "notes", "", "ref"})
	finder := NewFinder(store, time.UTC)

	src := domain.Record{"SF-1", "Acme Tower"}
	_, found, err := finder.Find(context.Background(), "upcoming", Identity{PrimaryID: "SF-1"}, src, 2, finderSpec())
	if err != nil {
		t.Fatalf("find returned error: %v", err)
	}
	if found {
		t.Fatalf("empty destination cannot contain a duplicate")
	}
}

func TestFindCompoundColumnOutsideWidth(t *testing.T) {
	store := tablestore.NewMemoryStore()
	store.CreateTable("upcoming", domain.Record{"name", "fieldX"})
	store.SeedRow("upcoming", domain.Record{"Acme Tower", "A"})
	finder := NewFinder(store, time.UTC)

	spec := finderSpec() // key column 3 beyond the 2-column destination
	src := domain.Record{"", "Acme Tower", "", "Berlin"}
	_, _, err := finder.Find(context.Background(), "upcoming", Identity{FallbackName: "Acme Tower"}, src, 4, spec)
	if err == nil {
		t.Fatalf("expected configuration error")
	}
	if !domain.IsConfiguration(err) {
		t.Fatalf("expected configuration kind, got %v", domain.KindOf(err))
	}
}

func TestFindCompoundDateNormalization(t *testing.T) {
	store := tablestore.NewMemoryStore()
	store.CreateTable("upcoming", domain.Record{"name", "due"})
	store.SeedRow("upcoming", domain.Record{"2024-10-31T02:00:00Z", "x"})
	finder := NewFinder(store, time.UTC)

	spec := domain.DuplicateCheckSpec{
		Enabled:  true,
		Fallback: &domain.CompoundKeySpec{NameSourceCol: 1, NameDestCol: 1},
	}
	src := domain.Record{"2024-10-31"}
	row, found, err := finder.Find(context.Background(), "upcoming", Identity{FallbackName: "2024-10-31"}, src, 1, spec)
	if err != nil {
		t.Fatalf("find returned error: %v", err)
	}
	if !found || row != 2 {
		t.Fatalf("expected normalized date match at row 2, got found=%v row=%d", found, row)
	}
}
