package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/alanyoungcy/swingdesk/internal/brief"
	"github.com/alanyoungcy/swingdesk/internal/domain"
	"github.com/alanyoungcy/swingdesk/internal/evaluator"
	"github.com/alanyoungcy/swingdesk/internal/service"
)

// CycleService defines what the evaluation endpoints need.
type CycleService interface {
	EvaluatePortfolio(ctx context.Context) (evaluator.PortfolioResult, error)
	AllocateSlots(ctx context.Context) (domain.SlotSummary, error)
	BuildDailyBrief(ctx context.Context) (service.CycleResult, error)
	LatestBrief(ctx context.Context) (domain.Brief, error)
	Run(ctx context.Context) (service.CycleResult, error)
}

// CycleHandler serves evaluations, slot occupancy and briefs.
type CycleHandler struct {
	cycles    CycleService
	triggerCh chan<- struct{}
	logger    *slog.Logger
}

// NewCycleHandler creates a CycleHandler.
func NewCycleHandler(cycles CycleService, logger *slog.Logger) *CycleHandler {
	return &CycleHandler{cycles: cycles, logger: logHandler(logger, "cycle")}
}

// WithTriggerChannel makes RunBrief enqueue a run on ch instead of running
// the cycle inside the request. The scheduler loop must receive from ch.
func (h *CycleHandler) WithTriggerChannel(ch chan<- struct{}) *CycleHandler {
	h.triggerCh = ch
	return h
}

// Evaluations returns the urgency-ordered evaluations and the portfolio
// summary.
// GET /api/evaluations
func (h *CycleHandler) Evaluations(w http.ResponseWriter, r *http.Request) {
	res, err := h.cycles.EvaluatePortfolio(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger, err, "evaluate portfolio")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Slots returns the slot occupancy.
// GET /api/slots
func (h *CycleHandler) Slots(w http.ResponseWriter, r *http.Request) {
	summary, err := h.cycles.AllocateSlots(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger, err, "allocate slots")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// Brief returns the latest brief. With fresh=true a preview is built from
// current data without distributing it. format=md answers with markdown.
// GET /api/brief?fresh=true&format=md
func (h *CycleHandler) Brief(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	fresh, _ := strconv.ParseBool(q.Get("fresh"))

	var b domain.Brief
	if fresh {
		res, err := h.cycles.BuildDailyBrief(r.Context())
		if err != nil {
			writeServiceError(w, r, h.logger, err, "build brief")
			return
		}
		b = res.Brief
	} else {
		latest, err := h.cycles.LatestBrief(r.Context())
		if err != nil {
			writeServiceError(w, r, h.logger, err, "load brief")
			return
		}
		b = latest
	}

	if q.Get("format") == "md" {
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(brief.Render(b)))
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// RunBrief runs a full cycle. When a trigger channel is configured the run is
// enqueued and the handler answers 202 immediately.
// POST /api/brief/run
func (h *CycleHandler) RunBrief(w http.ResponseWriter, r *http.Request) {
	if h.triggerCh != nil {
		h.logger.InfoContext(r.Context(), "cycle trigger requested")
		select {
		case h.triggerCh <- struct{}{}:
		default:
			// already triggered and not yet consumed
		}
		writeJSON(w, http.StatusAccepted, map[string]any{
			"status":       "accepted",
			"requested_at": time.Now().UTC().Format(time.RFC3339),
		})
		return
	}

	res, err := h.cycles.Run(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger, err, "run cycle")
		return
	}
	writeJSON(w, http.StatusOK, res)
}
