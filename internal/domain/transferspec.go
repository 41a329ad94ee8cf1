package domain

import "fmt"

// ColumnMap copies one source column into one destination column.
type ColumnMap struct {
	Source int `json:"source" mapstructure:"source"`
	Dest   int `json:"dest" mapstructure:"dest"`
}

// PrimaryKeySpec declares where a record's primary identifier lives.
type PrimaryKeySpec struct {
	SourceCol int `json:"sourceCol" mapstructure:"sourceCol"`
	DestCol   int `json:"destCol" mapstructure:"destCol"`
}

// KeyPair is one additional compound-key part.
type KeyPair struct {
	SourceCol int `json:"sourceCol" mapstructure:"sourceCol"`
	DestCol   int `json:"destCol" mapstructure:"destCol"`
}

// CompoundKeySpec declares the fallback identity for records without a
// primary identifier: a name column plus zero or more extra parts, joined by
// a separator after normalization.
type CompoundKeySpec struct {
	NameSourceCol int       `json:"nameSourceCol" mapstructure:"nameSourceCol"`
	NameDestCol   int       `json:"nameDestCol" mapstructure:"nameDestCol"`
	Extra         []KeyPair `json:"extra,omitempty" mapstructure:"extra"`
	Separator     string    `json:"separator,omitempty" mapstructure:"separator"`
}

// DefaultKeySeparator joins compound-key parts when a spec does not name one.
const DefaultKeySeparator = "|"

// EffectiveSeparator returns the configured separator or the default.
func (c CompoundKeySpec) EffectiveSeparator() string {
	if c.Separator == "" {
		return DefaultKeySeparator
	}
	return c.Separator
}

// DuplicateCheckSpec selects the duplicate-detection strategy explicitly.
// Primary and Fallback are tagged variants, not inferred from which optional
// columns happen to be set: Primary may be nil for legacy data with no
// stable key, Fallback must be present whenever Primary is not guaranteed.
type DuplicateCheckSpec struct {
	Enabled  bool             `json:"enabled" mapstructure:"enabled"`
	Primary  *PrimaryKeySpec  `json:"primary,omitempty" mapstructure:"primary"`
	Fallback *CompoundKeySpec `json:"fallback,omitempty" mapstructure:"fallback"`
}

// SortAction reorders destination data rows after a successful write.
type SortAction struct {
	Column    int  `json:"column" mapstructure:"column"`
	Ascending bool `json:"ascending" mapstructure:"ascending"`
}

// TransferSpec is the immutable configuration of one source→destination
// synchronization task.
type TransferSpec struct {
	Name             string             `json:"name" mapstructure:"name"`
	SourceTable      string             `json:"sourceTable" mapstructure:"sourceTable"`
	DestinationTable string             `json:"destinationTable" mapstructure:"destinationTable"`
	Mapping          []ColumnMap        `json:"mapping" mapstructure:"mapping"`
	DuplicateCheck   DuplicateCheckSpec `json:"duplicateCheck" mapstructure:"duplicateCheck"`
	SyncOnDuplicate  bool               `json:"syncOnDuplicate" mapstructure:"syncOnDuplicate"`
	PostActions      *SortAction        `json:"postActions,omitempty" mapstructure:"postActions"`
	// LockName names the mutual-exclusion domain. Specs writing to the same
	// destination family share a name so their read-check-write sequences
	// never interleave.
	LockName string `json:"lockName,omitempty" mapstructure:"lockName"`
}

// EffectiveLockName falls back to a per-destination lock when the spec does
// not name one.
func (s TransferSpec) EffectiveLockName() string {
	if s.LockName != "" {
		return s.LockName
	}
	return "transfer:" + s.DestinationTable
}

// MaxMappedDest returns the highest destination column referenced by the
// mapping, or 0 for an empty mapping.
func (s TransferSpec) MaxMappedDest() int {
	max := 0
	for _, m := range s.Mapping {
		if m.Dest > max {
			max = m.Dest
		}
	}
	return max
}

// Validate rejects specs that cannot be executed safely. Mapping must be
// one-to-one (many-to-one would make merge order significant), and an
// enabled duplicate check needs at least one strategy.
func (s TransferSpec) Validate() error {
	if s.Name == "" {
		return ConfigurationError("spec.validate", "spec name is required")
	}
	if s.SourceTable == "" || s.DestinationTable == "" {
		return ConfigurationError("spec.validate", fmt.Sprintf("spec %s: source and destination tables are required", s.Name))
	}
	if len(s.Mapping) == 0 {
		return ConfigurationError("spec.validate", fmt.Sprintf("spec %s: column mapping is empty", s.Name))
	}

	seen := make(map[int]int, len(s.Mapping))
	for _, m := range s.Mapping {
		if m.Source < 1 || m.Dest < 1 {
			return ConfigurationError("spec.validate", fmt.Sprintf("spec %s: mapping columns are 1-indexed, got %d->%d", s.Name, m.Source, m.Dest))
		}
		if prev, ok := seen[m.Dest]; ok {
			return ConfigurationError("spec.validate", fmt.Sprintf("spec %s: destination column %d mapped from both %d and %d", s.Name, m.Dest, prev, m.Source))
		}
		seen[m.Dest] = m.Source
	}

	if s.DuplicateCheck.Enabled {
		if s.DuplicateCheck.Primary == nil && s.DuplicateCheck.Fallback == nil {
			return ConfigurationError("spec.validate", fmt.Sprintf("spec %s: duplicate check enabled without a key strategy", s.Name))
		}
		if p := s.DuplicateCheck.Primary; p != nil && (p.SourceCol < 1 || p.DestCol < 1) {
			return ConfigurationError("spec.validate", fmt.Sprintf("spec %s: primary key columns are 1-indexed", s.Name))
		}
		if f := s.DuplicateCheck.Fallback; f != nil {
			if f.NameSourceCol < 1 || f.NameDestCol < 1 {
				return ConfigurationError("spec.validate", fmt.Sprintf("spec %s: fallback name columns are 1-indexed", s.Name))
			}
			for _, pair := range f.Extra {
				if pair.SourceCol < 1 || pair.DestCol < 1 {
					return ConfigurationError("spec.validate", fmt.Sprintf("spec %s: compound key columns are 1-indexed", s.Name))
				}
			}
		}
	}

	if s.PostActions != nil && s.PostActions.Column < 1 {
		return ConfigurationError("spec.validate", fmt.Sprintf("spec %s: sort column is 1-indexed", s.Name))
	}

	return nil
}
