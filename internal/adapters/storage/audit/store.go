// Package audit persists the admin audit trail in SQLite.
package audit

import (
	"context"
	"time"

	domain "juventud/internal/domain/audit"
)

// Store defines the interface for audit event persistence.
type Store interface {
	// Save persists an audit event.
	// PRE: event has been validated
	// POST: Event is persisted
	Save(ctx context.Context, event domain.Event) error

	// List returns audit events matching filter.
	// PRE: limit > 0
	// POST: Returns events ordered by timestamp desc
	List(ctx context.Context, filter Filter, limit int) ([]domain.Event, error)

	// PruneBefore deletes events older than cutoff.
	// POST: Returns the number of rows removed
	PruneBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Filter narrows List. Zero-valued fields match everything.
type Filter struct {
	Category domain.Category
	Action   domain.Action
	Since    time.Time
}
