package domain

import (
	"context"
	"time"
)

// ListOpts provides pagination and filtering for list queries.
type ListOpts struct {
	Limit  int
	Offset int
	Since  *time.Time
	Until  *time.Time
}

// PositionStore persists positions. Implementations never delete rows and
// never rewrite entry fields after Create.
type PositionStore interface {
	Create(ctx context.Context, pos Position) error
	GetByID(ctx context.Context, id string) (Position, error)
	List(ctx context.Context, filter PositionFilter) ([]Position, error)
	// Transition moves an ACTIVE position to CLOSED or STOPPED.
	Transition(ctx context.Context, id string, status PositionStatus, exit ExitRecord) error
	UpdateNotes(ctx context.Context, id string, notes string) error
	// RecordPrices stores the last observed price of every ACTIVE position
	// whose symbol appears in prices.
	RecordPrices(ctx context.Context, prices map[string]float64) error
}

// AuditEntry is a single audit log row.
type AuditEntry struct {
	ID        int64          `json:"id"`
	Event     string         `json:"event"`
	Detail    map[string]any `json:"detail,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// AuditFilter narrows audit queries. Event matches by prefix, so
// "position." returns every position event.
type AuditFilter struct {
	ListOpts
	Event string
}

// AuditStore persists an append-only audit log.
type AuditStore interface {
	Log(ctx context.Context, event string, detail map[string]any) error
	List(ctx context.Context, filter AuditFilter) ([]AuditEntry, error)
}
