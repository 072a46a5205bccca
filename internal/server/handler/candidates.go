package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/swingdesk/internal/domain"
	"github.com/alanyoungcy/swingdesk/internal/ranking"
)

// CandidateService defines what the candidate endpoints need.
type CandidateService interface {
	Replace(ctx context.Context, candidates []domain.Candidate) ([]domain.Candidate, error)
	Ranked(ctx context.Context) ([]domain.Candidate, error)
}

// CandidateHandler serves the scan candidates.
type CandidateHandler struct {
	candidates CandidateService
	logger     *slog.Logger
}

// NewCandidateHandler creates a CandidateHandler.
func NewCandidateHandler(candidates CandidateService, logger *slog.Logger) *CandidateHandler {
	return &CandidateHandler{candidates: candidates, logger: logHandler(logger, "candidates")}
}

type rankedCandidate struct {
	domain.Candidate
	Rank int          `json:"rank"`
	Tier ranking.Tier `json:"tier"`
}

type candidatesResponse struct {
	Candidates []rankedCandidate `json:"candidates"`
}

type replaceCandidatesRequest struct {
	Candidates []domain.Candidate `json:"candidates"`
}

func toRanked(cs []domain.Candidate) candidatesResponse {
	out := make([]rankedCandidate, len(cs))
	for i, c := range cs {
		out[i] = rankedCandidate{Candidate: c, Rank: i + 1, Tier: ranking.PriorityTier(c.Score)}
	}
	return candidatesResponse{Candidates: out}
}

// ListCandidates returns the latest scan in priority order.
// GET /api/candidates
func (h *CandidateHandler) ListCandidates(w http.ResponseWriter, r *http.Request) {
	ranked, err := h.candidates.Ranked(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger, err, "list candidates")
		return
	}
	writeJSON(w, http.StatusOK, toRanked(ranked))
}

// ReplaceCandidates stores a new scan and returns it ranked.
// PUT /api/candidates
func (h *CandidateHandler) ReplaceCandidates(w http.ResponseWriter, r *http.Request) {
	var req replaceCandidatesRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ranked, err := h.candidates.Replace(r.Context(), req.Candidates)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "store candidates")
		return
	}
	writeJSON(w, http.StatusOK, toRanked(ranked))
}
