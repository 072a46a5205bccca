package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/swingdesk/internal/domain"
)

// QuoteService defines what the quote ingestion endpoint needs.
type QuoteService interface {
	RecordQuotes(ctx context.Context, quotes []domain.Quote) error
	RecordProfiles(ctx context.Context, profiles []domain.Profile) error
}

// QuoteHandler accepts prices pushed by an external feed.
type QuoteHandler struct {
	prices QuoteService
	logger *slog.Logger
}

// NewQuoteHandler creates a QuoteHandler.
func NewQuoteHandler(prices QuoteService, logger *slog.Logger) *QuoteHandler {
	return &QuoteHandler{prices: prices, logger: logHandler(logger, "quotes")}
}

type recordQuotesRequest struct {
	Quotes   []domain.Quote   `json:"quotes"`
	Profiles []domain.Profile `json:"profiles"`
}

// RecordQuotes stores quotes and profiles.
// POST /api/quotes
func (h *QuoteHandler) RecordQuotes(w http.ResponseWriter, r *http.Request) {
	var req recordQuotesRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.Quotes) == 0 && len(req.Profiles) == 0 {
		writeError(w, http.StatusBadRequest, "quotes or profiles required")
		return
	}

	if len(req.Quotes) > 0 {
		if err := h.prices.RecordQuotes(r.Context(), req.Quotes); err != nil {
			writeServiceError(w, r, h.logger, err, "record quotes")
			return
		}
	}
	if len(req.Profiles) > 0 {
		if err := h.prices.RecordProfiles(r.Context(), req.Profiles); err != nil {
			writeServiceError(w, r, h.logger, err, "record profiles")
			return
		}
	}
	writeJSON(w, http.StatusAccepted, map[string]int{
		"quotes":   len(req.Quotes),
		"profiles": len(req.Profiles),
	})
}
