package domain

import "testing"

func validSpec() TransferSpec {
	return TransferSpec{
		Name:             "forecast-to-upcoming",
		SourceTable:      "forecast",
		DestinationTable: "upcoming",
		Mapping: []ColumnMap{
			{Source: 1, Dest: 1},
			{Source: 2, Dest: 2},
		},
		DuplicateCheck: DuplicateCheckSpec{
			Enabled: true,
			Primary: &PrimaryKeySpec{SourceCol: 1, DestCol: 1},
		},
	}
}

func TestValidateAcceptsGoodSpec(t *testing.T) {
	if err := validSpec().Validate(); err != nil {
		t.Fatalf("valid spec rejected: %v", err)
	}
}

func TestValidateRejectsManyToOneMapping(t *testing.T) {
	spec := validSpec()
	spec.Mapping = []ColumnMap{
		{Source: 1, Dest: 1},
		{Source: 2, Dest: 1},
	}
	err := spec.Validate()
	if err == nil {
		t.Fatalf("many-to-one mapping must be rejected")
	}
	if !IsConfiguration(err) {
		t.Fatalf("expected configuration kind, got %v", KindOf(err))
	}
}

func TestValidateRejectsEmptyMapping(t *testing.T) {
	spec := validSpec()
	spec.Mapping = nil
	if err := spec.Validate(); err == nil {
		t.Fatalf("empty mapping must be rejected")
	}
}

func TestValidateRejectsDuplicateCheckWithoutStrategy(t *testing.T) {
	spec := validSpec()
	spec.DuplicateCheck = DuplicateCheckSpec{Enabled: true}
	if err := spec.Validate(); err == nil {
		t.Fatalf("enabled duplicate check without a strategy must be rejected")
	}
}

func TestValidateRejectsZeroIndexedColumns(t *testing.T) {
	spec := validSpec()
	spec.Mapping = []ColumnMap{{Source: 0, Dest: 1}}
	if err := spec.Validate(); err == nil {
		t.Fatalf("0-indexed mapping must be rejected")
	}
}

func TestEffectiveLockNameDefaultsToDestination(t *testing.T) {
	spec := validSpec()
	if got := spec.EffectiveLockName(); got != "transfer:upcoming" {
		t.Fatalf("unexpected lock name: %q", got)
	}
	spec.LockName = "stage-sync"
	if got := spec.EffectiveLockName(); got != "stage-sync" {
		t.Fatalf("explicit lock name must win, got %q", got)
	}
}

func TestMaxMappedDest(t *testing.T) {
	spec := validSpec()
	spec.Mapping = []ColumnMap{{Source: 1, Dest: 4}, {Source: 2, Dest: 2}}
	if got := spec.MaxMappedDest(); got != 4 {
		t.Fatalf("expected 4, got %d", got)
	}
}
