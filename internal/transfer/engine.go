package transfer

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/rpattn/rowsync/internal/audit"
	"github.com/rpattn/rowsync/internal/domain"
	"github.com/rpattn/rowsync/internal/lock"
	"github.com/rpattn/rowsync/internal/tablestore"
	"github.com/rpattn/rowsync/pkg/retry"
)

// Config bounds one engine's waiting and retrying. It is passed in
// explicitly; no engine component reads ambient state.
type Config struct {
	// LockTimeout bounds each acquisition wait.
	LockTimeout time.Duration
	// LockAttempts is how many acquisition waits to run before giving up
	// with a skip.
	LockAttempts int
	// LockRetryPause separates acquisition attempts.
	LockRetryPause time.Duration
	// RetryAttempts is the total attempt bound for each store operation.
	RetryAttempts int
	// RetryInitialDelay seeds the store-operation backoff.
	RetryInitialDelay time.Duration
	// Location is the timezone date-like key parts are canonicalized in.
	Location *time.Location
}

// DefaultConfig returns the bounds used when none are configured.
func DefaultConfig() Config {
	return Config{
		LockTimeout:       2500 * time.Millisecond,
		LockAttempts:      3,
		LockRetryPause:    200 * time.Millisecond,
		RetryAttempts:     3,
		RetryInitialDelay: 250 * time.Millisecond,
		Location:          time.Local,
	}
}

// Engine runs one synchronization task per invocation: lock, validate,
// resolve duplicates, append or merge, post-sort, audit, release.
type Engine struct {
	store   tablestore.Store
	locks   lock.Manager
	finder  *Finder
	sink    audit.Sink
	handler *ErrorHandler
	cfg     Config
}

// NewEngine wires a transfer engine.
func NewEngine(store tablestore.Store, locks lock.Manager, sink audit.Sink, handler *ErrorHandler, cfg Config) *Engine {
	if cfg.LockTimeout <= 0 {
		cfg.LockTimeout = DefaultConfig().LockTimeout
	}
	if cfg.LockAttempts < 1 {
		cfg.LockAttempts = DefaultConfig().LockAttempts
	}
	if cfg.RetryAttempts < 1 {
		cfg.RetryAttempts = DefaultConfig().RetryAttempts
	}
	if cfg.RetryInitialDelay <= 0 {
		cfg.RetryInitialDelay = DefaultConfig().RetryInitialDelay
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &Engine{
		store:   store,
		locks:   locks,
		finder:  NewFinder(store, cfg.Location),
		sink:    sink,
		handler: handler,
		cfg:     cfg,
	}
}

// Run executes the transfer described by spec for one source row. Exactly
// one audit entry is emitted on every exit path, and the lock is released
// unconditionally. A lock that cannot be acquired within the bounded retry
// budget is contention, not failure: the outcome is a skip.
func (e *Engine) Run(ctx context.Context, spec domain.TransferSpec, sourceRow int) domain.AuditEntry {
	entry := domain.AuditEntry{
		CorrelationID: uuid.New(),
		Action:        spec.Name,
		SourceTable:   spec.SourceTable,
		SourceRow:     sourceRow,
		CreatedAt:     time.Now().UTC(),
	}
	defer e.emit(ctx, &entry)

	if err := spec.Validate(); err != nil {
		e.fail(ctx, &entry, spec, err)
		return entry
	}

	lk := e.locks.Named(spec.EffectiveLockName())
	acquired := false
	for attempt := 0; attempt < e.cfg.LockAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				e.fail(ctx, &entry, spec, domain.DependencyError("acquire-lock", "cancelled while waiting for lock", ctx.Err()))
				return entry
			case <-time.After(e.cfg.LockRetryPause):
			}
		}
		got, err := lk.TryAcquire(ctx, e.cfg.LockTimeout)
		if err != nil {
			e.fail(ctx, &entry, spec, domain.DependencyError("acquire-lock", "lock backend failed", err))
			return entry
		}
		if got {
			acquired = true
			break
		}
	}
	if !acquired {
		entry.Result = domain.ResultSkippedNoLock
		entry.Detail = fmt.Sprintf("lock %s not acquired after %d attempts", spec.EffectiveLockName(), e.cfg.LockAttempts)
		return entry
	}
	defer func() {
		if err := lk.Release(); err != nil {
			log.Printf("[ENGINE] failed to release lock %s: %v", spec.EffectiveLockName(), err)
		}
	}()

	readWidth, err := e.retryInt(ctx, "read-source-width", func(ctx context.Context) (int, error) {
		return e.store.HeaderWidth(ctx, spec.SourceTable)
	})
	if err != nil {
		e.fail(ctx, &entry, spec, err)
		return entry
	}

	src, err := e.retryRecord(ctx, "read-source-row", func(ctx context.Context) (domain.Record, error) {
		return e.store.ReadRow(ctx, spec.SourceTable, sourceRow, readWidth)
	})
	if err != nil {
		e.fail(ctx, &entry, spec, err)
		return entry
	}

	id, err := ResolveIdentity(src, spec.DuplicateCheck, readWidth)
	if err != nil {
		e.handler.Handle(ctx, err, e.errCtx(&entry, spec))
		entry.Result = domain.ResultSkippedMissingID
		entry.Detail = "record has no usable identity"
		return entry
	}
	entry.PrimaryID = id.PrimaryID
	entry.Name = id.FallbackName

	matchRow := 0
	found := false
	if spec.DuplicateCheck.Enabled {
		type match struct {
			row   int
			found bool
		}
		m, err := retry.Do(ctx, e.retryOpts("find-duplicate"), func(ctx context.Context) (match, error) {
			row, ok, err := e.finder.Find(ctx, spec.DestinationTable, id, src, readWidth, spec.DuplicateCheck)
			return match{row: row, found: ok}, err
		})
		if err != nil {
			e.fail(ctx, &entry, spec, err)
			return entry
		}
		matchRow, found = m.row, m.found
	}

	switch {
	case !found:
		if err := e.appendRecord(ctx, &entry, spec, src, readWidth); err != nil {
			e.fail(ctx, &entry, spec, err)
			return entry
		}
		entry.Result = domain.ResultSuccess
	case !spec.SyncOnDuplicate:
		entry.Result = domain.ResultSkippedDuplicate
		entry.Detail = fmt.Sprintf("duplicate at destination row %d, sync on duplicate disabled", matchRow)
		return entry
	default:
		if err := e.mergeRecord(ctx, &entry, spec, src, readWidth, matchRow); err != nil {
			e.fail(ctx, &entry, spec, err)
			return entry
		}
		entry.Result = domain.ResultSuccessUpdated
	}

	e.runPostActions(ctx, &entry, spec)
	return entry
}

// appendRecord builds a destination-shaped record and appends it.
func (e *Engine) appendRecord(ctx context.Context, entry *domain.AuditEntry, spec domain.TransferSpec, src domain.Record, readWidth int) error {
	destWidth, err := e.retryInt(ctx, "read-destination-width", func(ctx context.Context) (int, error) {
		return e.store.HeaderWidth(ctx, spec.DestinationTable)
	})
	if err != nil {
		return err
	}

	rec := BuildRecord(src, readWidth, spec.Mapping, destWidth)
	row, err := e.retryInt(ctx, "append-record", func(ctx context.Context) (int, error) {
		return e.store.Append(ctx, spec.DestinationTable, rec)
	})
	if err != nil {
		return err
	}
	entry.Detail = fmt.Sprintf("appended destination row %d", row)
	return nil
}

// mergeRecord overwrites only the mapped columns of the existing row. The
// row is read up to the highest mapped column first so unmapped cells in
// that span survive byte for byte.
func (e *Engine) mergeRecord(ctx context.Context, entry *domain.AuditEntry, spec domain.TransferSpec, src domain.Record, readWidth, destRow int) error {
	maxMapped := spec.MaxMappedDest()
	existing, err := e.retryRecord(ctx, "read-destination-row", func(ctx context.Context) (domain.Record, error) {
		return e.store.ReadRow(ctx, spec.DestinationTable, destRow, maxMapped)
	})
	if err != nil {
		return err
	}

	mapped := BuildRecord(src, readWidth, spec.Mapping, maxMapped)
	merged := existing.Clone()
	for _, m := range spec.Mapping {
		if m.Source > readWidth {
			continue
		}
		merged = merged.Set(m.Dest, mapped.Get(m.Dest))
	}

	_, err = retry.Do(ctx, e.retryOpts("write-destination-row"), func(ctx context.Context) (struct{}, error) {
		return struct{}{}, e.store.WriteRow(ctx, spec.DestinationTable, destRow, 1, merged)
	})
	if err != nil {
		return err
	}
	entry.Detail = fmt.Sprintf("merged into destination row %d", destRow)
	return nil
}

// runPostActions reorders the destination when configured. A reorder
// failure does not invalidate the completed write; it is reported as a
// secondary dependency error and the entry keeps its success result.
func (e *Engine) runPostActions(ctx context.Context, entry *domain.AuditEntry, spec domain.TransferSpec) {
	if spec.PostActions == nil {
		return
	}

	count, err := e.retryInt(ctx, "count-destination-rows", func(ctx context.Context) (int, error) {
		return e.store.RowCount(ctx, spec.DestinationTable)
	})
	if err == nil && count <= tablestore.HeaderRow+1 {
		return
	}
	if err == nil {
		_, err = retry.Do(ctx, e.retryOpts("sort-destination"), func(ctx context.Context) (struct{}, error) {
			return struct{}{}, e.store.SortRows(ctx, spec.DestinationTable, spec.PostActions.Column, spec.PostActions.Ascending)
		})
	}
	if err != nil {
		e.handler.Handle(ctx, err, e.errCtx(entry, spec))
		entry.Detail += "; post-write sort failed"
	}
}

// fail routes err through the error handler and marks the entry.
func (e *Engine) fail(ctx context.Context, entry *domain.AuditEntry, spec domain.TransferSpec, err error) {
	e.handler.Handle(ctx, err, e.errCtx(entry, spec))
	entry.Result = domain.ResultError
	entry.ErrorMessage = err.Error()
}

func (e *Engine) errCtx(entry *domain.AuditEntry, spec domain.TransferSpec) ErrorContext {
	return ErrorContext{
		CorrelationID: entry.CorrelationID,
		Action:        spec.Name,
		Table:         spec.DestinationTable,
		Extras: map[string]string{
			"sourceTable": spec.SourceTable,
			"sourceRow":   fmt.Sprintf("%d", entry.SourceRow),
		},
	}
}

// emit records the entry through the sink; a sink failure is logged and
// swallowed so it cannot mask the engine outcome.
func (e *Engine) emit(ctx context.Context, entry *domain.AuditEntry) {
	if entry.Result == "" {
		entry.Result = domain.ResultError
	}
	if err := e.sink.Record(ctx, *entry); err != nil {
		log.Printf("[ENGINE] failed to record audit entry %s: %v", entry.CorrelationID, err)
	}
}

func (e *Engine) retryOpts(name string) retry.Options {
	return retry.Options{
		Name:         name,
		MaxAttempts:  e.cfg.RetryAttempts,
		InitialDelay: e.cfg.RetryInitialDelay,
	}
}

func (e *Engine) retryInt(ctx context.Context, name string, fn func(context.Context) (int, error)) (int, error) {
	return retry.Do(ctx, e.retryOpts(name), fn)
}

func (e *Engine) retryRecord(ctx context.Context, name string, fn func(context.Context) (domain.Record, error)) (domain.Record, error) {
	return retry.Do(ctx, e.retryOpts(name), fn)
}
