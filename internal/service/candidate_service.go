package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/alanyoungcy/swingdesk/internal/domain"
	"github.com/alanyoungcy/swingdesk/internal/ranking"
)

// CandidateService stores scan results and serves them ranked.
type CandidateService struct {
	store  domain.CandidateStore
	logger *slog.Logger
	now    func() time.Time
}

// NewCandidateService creates a CandidateService.
func NewCandidateService(store domain.CandidateStore, logger *slog.Logger) *CandidateService {
	return &CandidateService{
		store:  store,
		logger: logger.With(slog.String("component", "candidate_service")),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Replace stores a new scan. Symbols are normalised and deduplicated with
// the last row winning; rows without a score are scored from their inputs.
func (s *CandidateService) Replace(ctx context.Context, candidates []domain.Candidate) ([]domain.Candidate, error) {
	now := s.now()
	index := make(map[string]int, len(candidates))
	rows := make([]domain.Candidate, 0, len(candidates))
	for _, c := range candidates {
		c.Symbol = strings.ToUpper(strings.TrimSpace(c.Symbol))
		if c.Symbol == "" {
			return nil, fmt.Errorf("candidate_service: candidate without symbol: %w", domain.ErrInvalidPosition)
		}
		if c.UpdatedAt.IsZero() {
			c.UpdatedAt = now
		}
		if i, ok := index[c.Symbol]; ok {
			rows[i] = c
			continue
		}
		index[c.Symbol] = len(rows)
		rows = append(rows, c)
	}
	rows = ranking.Enrich(rows)

	if err := s.store.Put(ctx, rows); err != nil {
		return nil, fmt.Errorf("candidate_service: store scan: %w", err)
	}
	s.logger.InfoContext(ctx, "scan stored", slog.Int("candidates", len(rows)))
	return ranking.Rank(rows), nil
}

// Ranked returns the current scan in priority order.
func (s *CandidateService) Ranked(ctx context.Context) ([]domain.Candidate, error) {
	rows, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("candidate_service: list: %w", err)
	}
	return ranking.Rank(rows), nil
}
