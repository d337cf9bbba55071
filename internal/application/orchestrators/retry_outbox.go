package orchestrators

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	outboxStore "juventud/internal/adapters/storage/outbox"
	domain "juventud/internal/domain/outbox"
)

// OutboxProcessor delivers queued follow-up actions with exponential backoff.
type OutboxProcessor struct {
	store     outboxStore.Store
	executors map[string]ActionExecutor
	now       func() time.Time
	baseDelay time.Duration
	maxDelay  time.Duration
	batchSize int
	retention time.Duration
}

// ActionExecutor executes a specific type of external action.
type ActionExecutor interface {
	// Execute runs the external action with the given payload.
	// Returns the provider's id for the delivered action and any error.
	Execute(ctx context.Context, payload string) (string, error)
}

// NewOutboxProcessor creates a new outbox processor.
// PRE: store is non-nil; executors maps action types to their executor
// POST: Returns a processor using wall-clock time, 30s base delay and 1h max delay
func NewOutboxProcessor(store outboxStore.Store, executors map[string]ActionExecutor) *OutboxProcessor {
	return &OutboxProcessor{
		store:     store,
		executors: executors,
		now:       time.Now,
		baseDelay: 30 * time.Second,
		maxDelay:  1 * time.Hour,
		batchSize: 10,
		retention: 30 * 24 * time.Hour,
	}
}

// WithClock replaces the processor's time source.
func (p *OutboxProcessor) WithClock(now func() time.Time) *OutboxProcessor {
	p.now = now
	return p
}

// ProcessResult summarizes one ProcessPending pass.
type ProcessResult struct {
	Attempted int
	Succeeded int
	Failed    int
	Skipped   int // still backing off
}

// ProcessPending processes pending outbox entries with retries.
// PRE: Context is valid
// POST: Due entries are attempted once; failures are saved for a later retry
func (p *OutboxProcessor) ProcessPending(ctx context.Context) (ProcessResult, error) {
	var res ProcessResult
	entries, err := p.store.ListPending(ctx, p.batchSize)
	if err != nil {
		return res, fmt.Errorf("list pending outbox entries: %w", err)
	}

	for _, entry := range entries {
		if !entry.Due(p.now(), p.baseDelay, p.maxDelay) {
			res.Skipped++
			continue
		}
		res.Attempted++
		ok, err := p.processEntry(ctx, entry)
		if err != nil {
			slog.Error("outbox_process_failed", "entry_id", entry.ID, "action_type", entry.ActionType, "error", err.Error())
		}
		if ok {
			res.Succeeded++
		} else {
			res.Failed++
		}
	}
	return res, nil
}

// processEntry attempts a single entry and saves its new state.
func (p *OutboxProcessor) processEntry(ctx context.Context, entry domain.Entry) (bool, error) {
	entry.MarkAttempt(p.now())

	executor, ok := p.executors[entry.ActionType]
	if !ok {
		// nothing will ever deliver it
		entry.Attempts = entry.MaxAttempts
		entry.MarkFailed(fmt.Errorf("no executor registered for action type: %s", entry.ActionType))
		return false, p.store.Save(ctx, entry)
	}

	externalID, err := executor.Execute(ctx, entry.Payload)
	if err != nil {
		entry.MarkFailed(err)
		slog.Warn("outbox_action_failed", "entry_id", entry.ID, "attempt", entry.Attempts, "error", err.Error())
		return false, p.store.Save(ctx, entry)
	}

	entry.MarkSuccess(externalID)
	slog.Info("outbox_action_succeeded", "entry_id", entry.ID, "action_type", entry.ActionType, "external_id", externalID)
	return true, p.store.Save(ctx, entry)
}

// ProcessSingle manually processes a single outbox entry (for admin retry).
// A failed entry gets one more attempt.
// PRE: entryID is non-empty
// POST: Entry is processed, status updated
func (p *OutboxProcessor) ProcessSingle(ctx context.Context, entryID string) error {
	entry, err := p.store.GetByID(ctx, entryID)
	if err != nil {
		return fmt.Errorf("get outbox entry: %w", err)
	}

	if entry.Status == domain.StatusDone || entry.Status == domain.StatusAbandoned {
		return fmt.Errorf("entry %s: %w", entryID, domain.ErrTerminal)
	}
	if entry.Attempts >= entry.MaxAttempts {
		entry.MaxAttempts = entry.Attempts + 1
	}

	if _, err := p.processEntry(ctx, entry); err != nil {
		return err
	}
	return nil
}

// AbandonEntry marks an entry as abandoned by admin.
// PRE: entryID is non-empty
// POST: Entry status set to abandoned
func (p *OutboxProcessor) AbandonEntry(ctx context.Context, entryID string) error {
	entry, err := p.store.GetByID(ctx, entryID)
	if err != nil {
		return fmt.Errorf("get outbox entry: %w", err)
	}

	entry.MarkAbandoned()
	slog.Info("outbox_entry_abandoned", "entry_id", entry.ID, "action_type", entry.ActionType)
	return p.store.Save(ctx, entry)
}

// Prune removes delivered entries older than the retention window.
func (p *OutboxProcessor) Prune(ctx context.Context) (int64, error) {
	return p.store.PruneDone(ctx, p.now().Add(-p.retention))
}

// StartBackgroundWorker starts a background goroutine that periodically processes pending outbox entries.
// PRE: interval > 0; stopCh is closed to signal shutdown
// POST: Worker runs until stopCh is closed; done is closed once it has returned
func StartBackgroundWorker(processor *OutboxProcessor, interval time.Duration, stopCh <-chan struct{}) (done <-chan struct{}) {
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
				res, err := processor.ProcessPending(ctx)
				if err != nil {
					slog.Error("outbox_background_process_failed", "error", err.Error())
				} else if res.Attempted > 0 {
					slog.Info("outbox_background_processed", "attempted", res.Attempted, "succeeded", res.Succeeded, "failed", res.Failed)
				}
				if n, err := processor.Prune(ctx); err != nil {
					slog.Warn("outbox_prune_failed", "error", err.Error())
				} else if n > 0 {
					slog.Info("outbox_pruned", "count", n)
				}
				cancel()
			case <-stopCh:
				slog.Info("outbox_background_worker_stopped")
				return
			}
		}
	}()
	return finished
}
