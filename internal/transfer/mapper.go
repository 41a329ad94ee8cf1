package transfer

import (
	"log"

	"github.com/rpattn/rowsync/internal/domain"
)

// BuildRecord projects the mapped source columns into a destination-shaped
// record. The result is never narrower than destWidth or the highest mapped
// destination column; every slot the mapping does not cover stays empty.
// A mapped source column beyond readWidth is a configuration drift worth a
// warning, not an abort: the slot is left empty and the transfer continues.
func BuildRecord(src domain.Record, readWidth int, mapping []domain.ColumnMap, destWidth int) domain.Record {
	width := destWidth
	for _, m := range mapping {
		if m.Dest > width {
			width = m.Dest
		}
	}

	rec := domain.NewRecord(width)
	for _, m := range mapping {
		if m.Source > readWidth {
			log.Printf("[MAPPER] source column %d is beyond read width %d, leaving destination column %d empty", m.Source, readWidth, m.Dest)
			continue
		}
		rec = rec.Set(m.Dest, src.Get(m.Source))
	}
	return rec
}
