package domain

import "time"

// PositionStatus tracks the lifecycle of a position.
type PositionStatus string

const (
	PositionStatusActive  PositionStatus = "ACTIVE"
	PositionStatusClosed  PositionStatus = "CLOSED"
	PositionStatusStopped PositionStatus = "STOPPED"
)

// Valid reports whether s is a known status.
func (s PositionStatus) Valid() bool {
	switch s {
	case PositionStatusActive, PositionStatusClosed, PositionStatusStopped:
		return true
	}
	return false
}

// Category identifies the strategy bucket a position occupies a slot in.
type Category string

const (
	CategoryTrend Category = "trend"
	CategoryAsym  Category = "asym"
)

// Position is one holding tracked by the system. Entry fields are immutable
// once created; only status, exit fields and notes change afterwards.
type Position struct {
	ID          string         `json:"id"`
	Symbol      string         `json:"symbol"`
	EntryPrice  float64        `json:"entry_price"`
	Quantity    float64        `json:"quantity"`
	EntryTime   time.Time      `json:"entry_time"`
	PortfolioID string         `json:"portfolio_id"`
	Category    Category       `json:"category"`
	StopLoss    float64        `json:"stop_loss"`
	Target      float64        `json:"target"`
	HorizonEnd  time.Time      `json:"horizon_end"`
	Status      PositionStatus `json:"status"`
	Notes       string         `json:"notes,omitempty"`

	ExitPrice          *float64   `json:"exit_price,omitempty"`
	ExitTime           *time.Time `json:"exit_time,omitempty"`
	ExitReason         string     `json:"exit_reason,omitempty"`
	RealizedPnL        *float64   `json:"realized_pnl,omitempty"`
	RealizedPnLPercent *float64   `json:"realized_pnl_percent,omitempty"`

	// LastKnownPrice is the most recent price the store collaborator saw.
	// Used when the price provider has nothing for the symbol.
	LastKnownPrice *float64 `json:"last_known_price,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsActive reports whether the position still occupies a slot.
func (p Position) IsActive() bool {
	return p.Status == PositionStatusActive
}

// EntryValue is the capital committed at entry.
func (p Position) EntryValue() float64 {
	return p.EntryPrice * p.Quantity
}

// RiskAmount is the loss taken if the stop is hit. A missing stop or one at
// or above entry carries no measurable risk.
func (p Position) RiskAmount() float64 {
	if p.StopLoss <= 0 || p.StopLoss >= p.EntryPrice {
		return 0
	}
	return (p.EntryPrice - p.StopLoss) * p.Quantity
}

// ExitRecord carries the fields written when a position leaves ACTIVE.
type ExitRecord struct {
	Price  float64
	Time   time.Time
	Reason string
}

// PositionFilter narrows List queries. Zero values mean "any".
type PositionFilter struct {
	PortfolioID string
	Status      PositionStatus
	Symbol      string
}
