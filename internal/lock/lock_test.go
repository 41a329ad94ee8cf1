package lock

import (
	"context"
	"testing"
	"time"
)

func TestMemoryLockAcquireRelease(t *testing.T) {
	mgr := NewMemoryManager()
	lk := mgr.Named("transfer:upcoming")

	got, err := lk.TryAcquire(context.Background(), 100*time.Millisecond)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got {
		t.Fatalf("expected to acquire an uncontended lock")
	}
	if err := lk.Release(); err != nil {
		t.Fatalf("release failed: %v", err)
	}

	// Released lock is immediately acquirable again.
	got, err = lk.TryAcquire(context.Background(), 100*time.Millisecond)
	if err != nil || !got {
		t.Fatalf("expected re-acquire after release, got=%v err=%v", got, err)
	}
	lk.Release()
}

func TestMemoryLockTimesOutUnderContention(t *testing.T) {
	mgr := NewMemoryManager()
	holder := mgr.Named("transfer:upcoming")
	if got, _ := holder.TryAcquire(context.Background(), time.Second); !got {
		t.Fatalf("failed to pre-acquire")
	}
	defer holder.Release()

	waiter := mgr.Named("transfer:upcoming")
	start := time.Now()
	got, err := waiter.TryAcquire(context.Background(), 80*time.Millisecond)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got {
		t.Fatalf("acquired a held lock")
	}
	if elapsed := time.Since(start); elapsed < 80*time.Millisecond {
		t.Fatalf("returned before the bounded wait expired: %v", elapsed)
	}
}

func TestMemoryLockSeparateNamesIndependent(t *testing.T) {
	mgr := NewMemoryManager()
	a := mgr.Named("transfer:upcoming")
	b := mgr.Named("transfer:inventory")

	if got, _ := a.TryAcquire(context.Background(), time.Second); !got {
		t.Fatalf("failed to acquire first lock")
	}
	defer a.Release()

	if got, _ := b.TryAcquire(context.Background(), 50*time.Millisecond); !got {
		t.Fatalf("differently named locks must not contend")
	}
	b.Release()
}

func TestMemoryLockReleaseWithoutHoldIsNoop(t *testing.T) {
	mgr := NewMemoryManager()
	lk := mgr.Named("transfer:upcoming")
	if err := lk.Release(); err != nil {
		t.Fatalf("releasing an unheld lock must be a no-op, got %v", err)
	}
}

func TestMemoryLockRespectsContext(t *testing.T) {
	mgr := NewMemoryManager()
	holder := mgr.Named("transfer:upcoming")
	if got, _ := holder.TryAcquire(context.Background(), time.Second); !got {
		t.Fatalf("failed to pre-acquire")
	}
	defer holder.Release()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	waiter := mgr.Named("transfer:upcoming")
	_, err := waiter.TryAcquire(ctx, time.Minute)
	if err == nil {
		t.Fatalf("expected context cancellation error")
	}
}
