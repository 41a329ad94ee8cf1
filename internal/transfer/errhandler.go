package transfer

import (
	"context"
	"encoding/json"
	"log"
	"runtime"
	"time"

	"github.com/google/uuid"

	"github.com/rpattn/rowsync/internal/domain"
	"github.com/rpattn/rowsync/internal/notify"
)

// ErrorContext carries the contextual extras attached to one handled error.
type ErrorContext struct {
	CorrelationID uuid.UUID
	Action        string
	Table         string
	Extras        map[string]string
}

// ErrorHandler turns every engine failure into one structured log entry and,
// for non-validation kinds, one notification. Failures inside the handler
// never propagate.
type ErrorHandler struct {
	notifier notify.Notifier
}

// NewErrorHandler wires a handler. A nil notifier disables notifications.
func NewErrorHandler(notifier notify.Notifier) *ErrorHandler {
	return &ErrorHandler{notifier: notifier}
}

type logEntry struct {
	Timestamp     string            `json:"timestamp"`
	Severity      string            `json:"severity"`
	Kind          string            `json:"kind"`
	Message       string            `json:"message"`
	CauseChain    []string          `json:"causeChain,omitempty"`
	CorrelationID string            `json:"correlationId"`
	Caller        string            `json:"caller,omitempty"`
	Action        string            `json:"action,omitempty"`
	Table         string            `json:"table,omitempty"`
	Extras        map[string]string `json:"extras,omitempty"`
}

// Handle classifies err for severity and notification. Validation failures
// are operator-expected and log at WARN without a notification; everything
// else logs at ERROR and notifies.
func (h *ErrorHandler) Handle(ctx context.Context, err error, ectx ErrorContext) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[ERROR] error handler panicked: %v", r)
		}
	}()

	if err == nil {
		return
	}

	kind := domain.KindOf(err)
	severity := "ERROR"
	if kind == domain.KindValidation {
		severity = "WARN"
	}

	entry := logEntry{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Severity:      severity,
		Kind:          kind.String(),
		Message:       err.Error(),
		CauseChain:    domain.CauseChain(err),
		CorrelationID: ectx.CorrelationID.String(),
		Caller:        callerName(),
		Action:        ectx.Action,
		Table:         ectx.Table,
		Extras:        ectx.Extras,
	}

	payload, marshalErr := json.Marshal(entry)
	if marshalErr != nil {
		log.Printf("[%s] %s (unserializable context: %v)", severity, err, marshalErr)
	} else {
		log.Printf("[%s] %s", severity, payload)
	}

	if kind != domain.KindValidation && h.notifier != nil {
		event := notify.Event{
			Subject:      "sync failure: " + ectx.Action,
			Error:        err.Error(),
			ContextTable: ectx.Table,
		}
		if notifyErr := h.notifier.Notify(ctx, event); notifyErr != nil {
			log.Printf("[ERROR] failed to send notification: %v", notifyErr)
		}
	}
}

// callerName resolves the function that invoked Handle.
func callerName() string {
	pc, _, _, ok := runtime.Caller(2)
	if !ok {
		return ""
	}
	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return ""
	}
	return fn.Name()
}
