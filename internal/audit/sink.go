// Package audit records transfer outcomes. The engine guarantees exactly
// one entry per invocation; sinks decide persistence.
package audit

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/rpattn/rowsync/internal/domain"
)

// Sink consumes audit entries.
type Sink interface {
	Record(ctx context.Context, entry domain.AuditEntry) error
}

// LogSink writes entries to the process log as JSON.
type LogSink struct{}

// NewLogSink creates a log-backed sink.
func NewLogSink() *LogSink {
	return &LogSink{}
}

// Record implements Sink.
func (s *LogSink) Record(ctx context.Context, entry domain.AuditEntry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	log.Printf("[AUDIT] %s", payload)
	return nil
}

// MemorySink collects entries in memory for tests.
type MemorySink struct {
	mu      sync.Mutex
	entries []domain.AuditEntry
}

// NewMemorySink creates an in-memory sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Record implements Sink.
func (s *MemorySink) Record(ctx context.Context, entry domain.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

// Entries returns a copy of everything recorded so far.
func (s *MemorySink) Entries() []domain.AuditEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.AuditEntry(nil), s.entries...)
}
