package transfer

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/rpattn/rowsync/internal/domain"
	"github.com/rpattn/rowsync/internal/notify"
)

func TestHandleNotifiesOnDependencyFailure(t *testing.T) {
	notifier := &stubNotifier{}
	handler := NewErrorHandler(notifier)

	err := domain.DependencyError("append-record", "store write failed", errors.New("disk on fire"))
	handler.Handle(context.Background(), err, ErrorContext{
		CorrelationID: uuid.New(),
		Action:        "forecast-to-upcoming",
		Table:         "upcoming",
	})

	if notifier.count() != 1 {
		t.Fatalf("expected one notification, got %d", notifier.count())
	}
	event := notifier.events[0]
	if event.ContextTable != "upcoming" {
		t.Fatalf("expected table in event, got %q", event.ContextTable)
	}
}

func TestHandleSuppressesNotificationForValidation(t *testing.T) {
	notifier := &stubNotifier{}
	handler := NewErrorHandler(notifier)

	handler.Handle(context.Background(), domain.ValidationError("resolve-identity", "no identity"), ErrorContext{
		CorrelationID: uuid.New(),
		Action:        "forecast-to-upcoming",
	})

	if notifier.count() != 0 {
		t.Fatalf("validation failures must not notify, got %d", notifier.count())
	}
}

func TestHandleNilErrorIsNoop(t *testing.T) {
	notifier := &stubNotifier{}
	handler := NewErrorHandler(notifier)
	handler.Handle(context.Background(), nil, ErrorContext{})
	if notifier.count() != 0 {
		t.Fatalf("nil error must not notify")
	}
}

// panickingNotifier proves handler failures never escape.
type panickingNotifier struct{}

func (panickingNotifier) Notify(ctx context.Context, event notify.Event) error {
	panic("notifier exploded")
}

func TestHandleSurvivesNotifierPanic(t *testing.T) {
	handler := NewErrorHandler(panickingNotifier{})
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("handler let a panic escape: %v", r)
		}
	}()
	handler.Handle(context.Background(), domain.DependencyError("op", "io", nil), ErrorContext{CorrelationID: uuid.New()})
}
