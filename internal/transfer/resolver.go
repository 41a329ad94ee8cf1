package transfer

import (
	"github.com/rpattn/rowsync/internal/domain"
)

// Identity is the resolved identifier set of one source record.
type Identity struct {
	// PrimaryID is the trimmed primary identifier, or "" when the record
	// has none.
	PrimaryID string
	// FallbackName is the trimmed project/name value used to build the
	// compound key, or "" when absent.
	FallbackName string
}

// ResolveIdentity extracts a primary identifier and fallback name from a
// source record. A value counts only when it lies within readWidth and is
// non-empty after trimming. A record with neither cannot be synchronized
// and yields a validation error.
func ResolveIdentity(rec domain.Record, spec domain.DuplicateCheckSpec, readWidth int) (Identity, error) {
	var id Identity

	if spec.Primary != nil && rec.HasValue(spec.Primary.SourceCol, readWidth) {
		id.PrimaryID = rec.Trimmed(spec.Primary.SourceCol)
	}
	if spec.Fallback != nil && rec.HasValue(spec.Fallback.NameSourceCol, readWidth) {
		id.FallbackName = rec.Trimmed(spec.Fallback.NameSourceCol)
	}

	if id.PrimaryID == "" && id.FallbackName == "" {
		return Identity{}, domain.ValidationError("resolve-identity", "record has no primary identifier and no fallback name")
	}
	return id, nil
}
