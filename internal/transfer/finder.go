package transfer

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rpattn/rowsync/internal/domain"
	"github.com/rpattn/rowsync/internal/tablestore"
)

// Finder locates a destination row matching a source record's identity.
type Finder struct {
	store tablestore.Store
	loc   *time.Location
}

// NewFinder wires a duplicate finder over the given store. loc is the
// timezone dates are canonicalized in for compound-key comparison.
func NewFinder(store tablestore.Store, loc *time.Location) *Finder {
	if loc == nil {
		loc = time.Local
	}
	return &Finder{store: store, loc: loc}
}

// Find searches destTable for a record matching the identity. The primary
// path is definitive: when the record carries a primary id and the spec
// declares a destination key column, a miss there is a miss, never a
// trigger for the compound fallback. The fallback only runs for records
// with no primary id at all.
func (f *Finder) Find(ctx context.Context, destTable string, id Identity, src domain.Record, readWidth int, spec domain.DuplicateCheckSpec) (int, bool, error) {
	count, err := f.store.RowCount(ctx, destTable)
	if err != nil {
		return 0, false, fmt.Errorf("failed to count destination rows: %w", err)
	}
	if count <= tablestore.HeaderRow {
		return 0, false, nil
	}

	if id.PrimaryID != "" && spec.Primary != nil {
		return f.findByPrimary(ctx, destTable, id.PrimaryID, spec.Primary.DestCol, count)
	}
	if spec.Fallback == nil {
		return 0, false, nil
	}
	return f.findByCompound(ctx, destTable, id, src, readWidth, spec.Fallback, count)
}

// findByPrimary scans the destination key column for an exact,
// whitespace-trimmed, case-sensitive match.
func (f *Finder) findByPrimary(ctx context.Context, destTable, primaryID string, destCol, count int) (int, bool, error) {
	rows, err := f.store.ReadRows(ctx, destTable, tablestore.HeaderRow+1, count, destCol, destCol)
	if err != nil {
		return 0, false, fmt.Errorf("failed to read destination key column: %w", err)
	}

	for i, row := range rows {
		if strings.TrimSpace(row.Get(1)) == primaryID {
			return tablestore.HeaderRow + 1 + i, true, nil
		}
	}
	return 0, false, nil
}

// findByCompound compares the normalized name-plus-parts key against every
// destination row, reading the minimal column span in one batch. A
// compound destination column beyond the populated width means the
// destination schema is incomplete and duplicate detection would be
// unreliable, so that is a configuration failure rather than a silent
// empty-cell match.
func (f *Finder) findByCompound(ctx context.Context, destTable string, id Identity, src domain.Record, readWidth int, spec *domain.CompoundKeySpec, count int) (int, bool, error) {
	width, err := f.store.HeaderWidth(ctx, destTable)
	if err != nil {
		return 0, false, fmt.Errorf("failed to read destination width: %w", err)
	}

	pairs := append([]domain.KeyPair(nil), spec.Extra...)
	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].SourceCol < pairs[j].SourceCol })

	minCol, maxCol := spec.NameDestCol, spec.NameDestCol
	for _, pair := range pairs {
		if pair.DestCol < minCol {
			minCol = pair.DestCol
		}
		if pair.DestCol > maxCol {
			maxCol = pair.DestCol
		}
	}
	if maxCol > width {
		return 0, false, domain.ConfigurationError(
			"find-duplicate",
			fmt.Sprintf("compound key column %d is outside destination %s width %d", maxCol, destTable, width),
		)
	}

	separator := spec.EffectiveSeparator()
	wantParts := make([]string, 0, len(pairs)+1)
	wantParts = append(wantParts, normalize(id.FallbackName, f.loc))
	for _, pair := range pairs {
		value := ""
		if pair.SourceCol <= readWidth {
			value = src.Get(pair.SourceCol)
		}
		wantParts = append(wantParts, normalize(value, f.loc))
	}
	want := joinKeyParts(wantParts, separator)

	rows, err := f.store.ReadRows(ctx, destTable, tablestore.HeaderRow+1, count, minCol, maxCol)
	if err != nil {
		return 0, false, fmt.Errorf("failed to read destination key span: %w", err)
	}

	for i, row := range rows {
		parts := make([]string, 0, len(pairs)+1)
		parts = append(parts, normalize(row.Get(spec.NameDestCol-minCol+1), f.loc))
		for _, pair := range pairs {
			parts = append(parts, normalize(row.Get(pair.DestCol-minCol+1), f.loc))
		}
		if joinKeyParts(parts, separator) == want {
			return tablestore.HeaderRow + 1 + i, true, nil
		}
	}
	return 0, false, nil
}
