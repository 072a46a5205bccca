package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/alanyoungcy/swingdesk/internal/domain"
	"github.com/alanyoungcy/swingdesk/internal/service"
)

// PositionService defines the methods that the position handler requires.
type PositionService interface {
	Open(ctx context.Context, req service.OpenRequest) (domain.Position, error)
	Close(ctx context.Context, id string, req service.CloseRequest) (domain.Position, error)
	UpdateNotes(ctx context.Context, id, notes string) error
	Get(ctx context.Context, id string) (domain.Position, error)
	List(ctx context.Context, filter domain.PositionFilter) ([]domain.Position, error)
}

// PositionHandler serves position-related HTTP endpoints.
type PositionHandler struct {
	positions PositionService
	logger    *slog.Logger
}

// NewPositionHandler creates a PositionHandler with the given service and logger.
func NewPositionHandler(positions PositionService, logger *slog.Logger) *PositionHandler {
	return &PositionHandler{
		positions: positions,
		logger:    logHandler(logger, "positions"),
	}
}

type listPositionsResponse struct {
	Positions []domain.Position `json:"positions"`
}

// ListPositions returns positions, optionally filtered.
// GET /api/positions?status=ACTIVE&portfolio_id=...&symbol=...
func (h *PositionHandler) ListPositions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.PositionFilter{
		PortfolioID: q.Get("portfolio_id"),
		Status:      domain.PositionStatus(strings.ToUpper(q.Get("status"))),
		Symbol:      strings.ToUpper(q.Get("symbol")),
	}

	positions, err := h.positions.List(r.Context(), filter)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "list positions")
		return
	}
	if positions == nil {
		positions = []domain.Position{}
	}
	writeJSON(w, http.StatusOK, listPositionsResponse{Positions: positions})
}

// GetPosition returns one position.
// GET /api/positions/{id}
func (h *PositionHandler) GetPosition(w http.ResponseWriter, r *http.Request) {
	pos, err := h.positions.Get(r.Context(), pathParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, h.logger, err, "get position")
		return
	}
	writeJSON(w, http.StatusOK, pos)
}

// OpenPosition records a new position.
// POST /api/positions
func (h *PositionHandler) OpenPosition(w http.ResponseWriter, r *http.Request) {
	var req service.OpenRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	pos, err := h.positions.Open(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "open position")
		return
	}
	writeJSON(w, http.StatusCreated, pos)
}

// ClosePosition ends a position.
// POST /api/positions/{id}/close
func (h *PositionHandler) ClosePosition(w http.ResponseWriter, r *http.Request) {
	var req service.CloseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	pos, err := h.positions.Close(r.Context(), pathParam(r, "id"), req)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "close position")
		return
	}
	writeJSON(w, http.StatusOK, pos)
}

type notesRequest struct {
	Notes string `json:"notes"`
}

// UpdateNotes replaces a position's notes.
// PUT /api/positions/{id}/notes
func (h *PositionHandler) UpdateNotes(w http.ResponseWriter, r *http.Request) {
	var req notesRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id := pathParam(r, "id")
	if err := h.positions.UpdateNotes(r.Context(), id, req.Notes); err != nil {
		writeServiceError(w, r, h.logger, err, "update notes")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":      "updated",
		"position_id": id,
	})
}
