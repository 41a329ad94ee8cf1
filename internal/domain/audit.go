package domain

import (
	"time"

	"github.com/google/uuid"
)

// Result codes one engine outcome. Exactly one is recorded per invocation.
type Result string

const (
	ResultSuccess          Result = "success"
	ResultSuccessUpdated   Result = "success-updated"
	ResultSkippedDuplicate Result = "skipped-duplicate"
	ResultSkippedNoLock    Result = "skipped-no-lock"
	ResultSkippedMissingID Result = "skipped-missing-identifier"
	ResultError            Result = "error"
)

// AuditEntry is the immutable record of one synchronization outcome.
type AuditEntry struct {
	CorrelationID uuid.UUID `json:"correlationId"`
	Action        string    `json:"action"`
	SourceTable   string    `json:"sourceTable"`
	SourceRow     int       `json:"sourceRow"`
	PrimaryID     string    `json:"primaryId,omitempty"`
	Name          string    `json:"name,omitempty"`
	Detail        string    `json:"detail,omitempty"`
	Result        Result    `json:"result"`
	ErrorMessage  string    `json:"errorMessage,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}
