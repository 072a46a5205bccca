package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/alanyoungcy/swingdesk/internal/domain"
)

// OpenRequest describes a new position as entered by the user.
type OpenRequest struct {
	Symbol      string          `json:"symbol"`
	EntryPrice  float64         `json:"entry_price"`
	Quantity    float64         `json:"quantity"`
	EntryTime   time.Time       `json:"entry_time"`
	PortfolioID string          `json:"portfolio_id"`
	Category    domain.Category `json:"category"`
	StopLoss    float64         `json:"stop_loss"`
	Target      float64         `json:"target"`
	HorizonEnd  time.Time       `json:"horizon_end"`
	Notes       string          `json:"notes"`
}

// CloseRequest ends a position. Stopped marks the exit as a stop-out.
type CloseRequest struct {
	Price   float64   `json:"price"`
	Reason  string    `json:"reason"`
	Stopped bool      `json:"stopped"`
	Time    time.Time `json:"time"`
}

// PositionService manages the position lifecycle: open, annotate, close.
// Positions are never deleted.
type PositionService struct {
	positions domain.PositionStore
	bus       domain.SignalBus
	audit     domain.AuditStore
	logger    *slog.Logger
	now       func() time.Time
}

// NewPositionService creates a PositionService. bus and audit may be nil.
func NewPositionService(
	positions domain.PositionStore,
	bus domain.SignalBus,
	audit domain.AuditStore,
	logger *slog.Logger,
) *PositionService {
	return &PositionService{
		positions: positions,
		bus:       bus,
		audit:     audit,
		logger:    logger.With(slog.String("component", "position_service")),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Open validates req and stores a new ACTIVE position.
func (s *PositionService) Open(ctx context.Context, req OpenRequest) (domain.Position, error) {
	now := s.now()
	if req.EntryTime.IsZero() {
		req.EntryTime = now
	}
	if err := validateOpen(req); err != nil {
		return domain.Position{}, fmt.Errorf("position_service: %w", err)
	}

	pos := domain.Position{
		ID:          uuid.NewString(),
		Symbol:      strings.ToUpper(strings.TrimSpace(req.Symbol)),
		EntryPrice:  req.EntryPrice,
		Quantity:    req.Quantity,
		EntryTime:   req.EntryTime,
		PortfolioID: req.PortfolioID,
		Category:    req.Category,
		StopLoss:    req.StopLoss,
		Target:      req.Target,
		HorizonEnd:  req.HorizonEnd,
		Status:      domain.PositionStatusActive,
		Notes:       req.Notes,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.positions.Create(ctx, pos); err != nil {
		return domain.Position{}, fmt.Errorf("position_service: create position: %w", err)
	}

	publish(ctx, s.bus, s.logger, ChannelPositions, StreamPositions, Event{Type: "position_opened", At: now, Data: pos})
	audit(ctx, s.audit, s.logger, "position.opened", map[string]any{
		"position_id": pos.ID,
		"symbol":      pos.Symbol,
		"category":    string(pos.Category),
		"entry_price": pos.EntryPrice,
		"quantity":    pos.Quantity,
	})
	s.logger.InfoContext(ctx, "position opened",
		slog.String("position_id", pos.ID),
		slog.String("symbol", pos.Symbol),
		slog.Float64("entry_price", pos.EntryPrice),
		slog.Float64("quantity", pos.Quantity),
	)
	return pos, nil
}

func validateOpen(req OpenRequest) error {
	var problems []string
	if strings.TrimSpace(req.Symbol) == "" {
		problems = append(problems, "symbol is required")
	}
	if req.EntryPrice <= 0 {
		problems = append(problems, "entry_price must be positive")
	}
	if req.Quantity <= 0 {
		problems = append(problems, "quantity must be positive")
	}
	if req.Category == "" {
		problems = append(problems, "category is required")
	}
	if req.StopLoss < 0 || req.Target < 0 {
		problems = append(problems, "stop_loss and target must not be negative")
	}
	if !req.HorizonEnd.After(req.EntryTime) {
		problems = append(problems, "horizon_end must be after entry_time")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", domain.ErrInvalidPosition, strings.Join(problems, "; "))
	}
	return nil
}

// Close moves an ACTIVE position to CLOSED, or STOPPED when req.Stopped, and
// returns the stored result.
func (s *PositionService) Close(ctx context.Context, id string, req CloseRequest) (domain.Position, error) {
	if req.Price <= 0 {
		return domain.Position{}, fmt.Errorf("position_service: exit price must be positive: %w", domain.ErrInvalidPosition)
	}
	if req.Time.IsZero() {
		req.Time = s.now()
	}
	status := domain.PositionStatusClosed
	if req.Stopped {
		status = domain.PositionStatusStopped
	}

	exit := domain.ExitRecord{Price: req.Price, Time: req.Time, Reason: req.Reason}
	if err := s.positions.Transition(ctx, id, status, exit); err != nil {
		return domain.Position{}, fmt.Errorf("position_service: close %q: %w", id, err)
	}
	pos, err := s.positions.GetByID(ctx, id)
	if err != nil {
		return domain.Position{}, fmt.Errorf("position_service: reload %q: %w", id, err)
	}

	publish(ctx, s.bus, s.logger, ChannelPositions, StreamPositions, Event{Type: "position_closed", At: req.Time, Data: pos})
	detail := map[string]any{
		"position_id": id,
		"symbol":      pos.Symbol,
		"status":      string(status),
		"exit_price":  req.Price,
		"reason":      req.Reason,
	}
	if pos.RealizedPnL != nil {
		detail["realized_pnl"] = *pos.RealizedPnL
	}
	audit(ctx, s.audit, s.logger, "position.closed", detail)
	s.logger.InfoContext(ctx, "position closed",
		slog.String("position_id", id),
		slog.String("symbol", pos.Symbol),
		slog.String("status", string(status)),
		slog.Float64("exit_price", req.Price),
	)
	return pos, nil
}

// UpdateNotes replaces the notes of a position.
func (s *PositionService) UpdateNotes(ctx context.Context, id, notes string) error {
	if err := s.positions.UpdateNotes(ctx, id, notes); err != nil {
		return fmt.Errorf("position_service: update notes %q: %w", id, err)
	}
	audit(ctx, s.audit, s.logger, "position.notes", map[string]any{"position_id": id})
	return nil
}

// Get returns one position.
func (s *PositionService) Get(ctx context.Context, id string) (domain.Position, error) {
	pos, err := s.positions.GetByID(ctx, id)
	if err != nil {
		return domain.Position{}, fmt.Errorf("position_service: get %q: %w", id, err)
	}
	return pos, nil
}

// List returns positions matching filter.
func (s *PositionService) List(ctx context.Context, filter domain.PositionFilter) ([]domain.Position, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, fmt.Errorf("position_service: unknown status %q: %w", filter.Status, domain.ErrInvalidPosition)
	}
	positions, err := s.positions.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("position_service: list: %w", err)
	}
	return positions, nil
}

// OpenedOn counts positions entered on the calendar day of t, in t's
// location, regardless of their current status.
func OpenedOn(positions []domain.Position, t time.Time) int {
	y, m, d := t.Date()
	n := 0
	for _, p := range positions {
		py, pm, pd := p.EntryTime.In(t.Location()).Date()
		if py == y && pm == m && pd == d {
			n++
		}
	}
	return n
}
