package outbox

import (
	"context"
	"errors"
	"testing"
	"time"

	"juventud/internal/adapters/storage"
	domain "juventud/internal/domain/outbox"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	db, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := storage.MigrateDB(context.Background(), db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewSQLiteStore(db)
}

var t0 = time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)

// TestSQLiteStore_SaveAndGet verifies an entry round-trips through SQLite.
func TestSQLiteStore_SaveAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	e := domain.NewEntry("e1", domain.ActionTypeWelcomeEmail, `{"to":"ana@example.com"}`, t0)
	if err := s.Save(ctx, e); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := s.GetByID(ctx, "e1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != domain.StatusPending || got.Payload != e.Payload || !got.CreatedAt.Equal(t0) {
		t.Errorf("unexpected entry: %+v", got)
	}
	if !got.LastAttemptedAt.IsZero() {
		t.Errorf("LastAttemptedAt = %v, want zero", got.LastAttemptedAt)
	}
}

// TestSQLiteStore_GetByID_NotFound verifies the sentinel for unknown ids.
func TestSQLiteStore_GetByID_NotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetByID(context.Background(), "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

// TestSQLiteStore_Lifecycle verifies listing by status as an entry moves through attempts.
func TestSQLiteStore_Lifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	e := domain.NewEntry("e1", domain.ActionTypeWelcomeEmail, `{}`, t0)
	e.MaxAttempts = 2
	s.Save(ctx, e)
	s.Save(ctx, domain.NewEntry("e2", domain.ActionTypeWelcomeEmail, `{}`, t0.Add(time.Minute)))

	pending, err := s.ListPending(ctx, 10)
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(pending) != 2 || pending[0].ID != "e1" {
		t.Fatalf("pending = %+v, want e1 then e2", pending)
	}

	for i := 0; i < 2; i++ {
		e.MarkAttempt(t0.Add(time.Duration(i+1) * time.Hour))
		e.MarkFailed(errors.New("smtp down"))
		if err := s.Save(ctx, e); err != nil {
			t.Fatalf("Save attempt %d: %v", i+1, err)
		}
	}

	failed, err := s.ListFailed(ctx, 10)
	if err != nil {
		t.Fatalf("ListFailed: %v", err)
	}
	if len(failed) != 1 || failed[0].ID != "e1" || failed[0].Attempts != 2 || failed[0].ErrorMessage != "smtp down" {
		t.Fatalf("failed = %+v", failed)
	}

	counts, err := s.CountByStatus(ctx)
	if err != nil {
		t.Fatalf("CountByStatus: %v", err)
	}
	if counts[domain.StatusFailed] != 1 || counts[domain.StatusPending] != 1 {
		t.Errorf("counts = %v", counts)
	}
}

// TestSQLiteStore_PruneDone verifies only old delivered entries are removed.
func TestSQLiteStore_PruneDone(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	old := domain.NewEntry("old", domain.ActionTypeWelcomeEmail, `{}`, t0)
	old.MarkSuccess("msg-1")
	recent := domain.NewEntry("recent", domain.ActionTypeWelcomeEmail, `{}`, t0.Add(48*time.Hour))
	recent.MarkSuccess("msg-2")
	pending := domain.NewEntry("pending", domain.ActionTypeWelcomeEmail, `{}`, t0)
	for _, e := range []domain.Entry{old, recent, pending} {
		if err := s.Save(ctx, e); err != nil {
			t.Fatalf("Save %s: %v", e.ID, err)
		}
	}

	n, err := s.PruneDone(ctx, t0.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("PruneDone: %v", err)
	}
	if n != 1 {
		t.Errorf("pruned = %d, want 1", n)
	}
	if _, err := s.GetByID(ctx, "old"); !errors.Is(err, ErrNotFound) {
		t.Error("old done entry should be gone")
	}
	if _, err := s.GetByID(ctx, "pending"); err != nil {
		t.Error("pending entry must survive pruning")
	}
}
