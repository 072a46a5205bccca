package evaluator

import (
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/swingdesk/internal/domain"
)

// Options tune a portfolio pass.
type Options struct {
	// StaleAfter marks quotes older than this as stale. Zero disables the age check.
	StaleAfter time.Duration
	// Workers bounds the evaluation fan-out. Values below 1 mean one per position.
	Workers int
}

// PortfolioResult is the output of EvaluatePortfolio.
type PortfolioResult struct {
	Evaluations []domain.Evaluation     `json:"evaluations"`
	Summary     domain.PortfolioSummary `json:"summary"`
}

// EvaluatePortfolio evaluates every ACTIVE position against the quote
// snapshot. Missing quotes fall back to the last known price, then to the
// entry price, and the evaluation is flagged stale. Results are ordered by
// urgency, most urgent first.
func EvaluatePortfolio(
	positions []domain.Position,
	quotes map[string]domain.Quote,
	profiles map[string]domain.Profile,
	now time.Time,
	opts Options,
) PortfolioResult {
	active := make([]domain.Position, 0, len(positions))
	for _, p := range positions {
		if p.IsActive() {
			active = append(active, p)
		}
	}

	evals := make([]domain.Evaluation, len(active))
	var g errgroup.Group
	if opts.Workers > 0 {
		g.SetLimit(opts.Workers)
	}
	for i, pos := range active {
		g.Go(func() error {
			price, stale := ResolvePrice(pos, quotes, now, opts.StaleAfter)
			var profile *domain.Profile
			if pr, ok := profiles[pos.Symbol]; ok {
				profile = &pr
			}
			e := evaluate(pos, price, stale, profile, now)
			dc := DetectDeadCapital(pos, price, now)
			e.DeadCapital = &dc
			evals[i] = e
			return nil
		})
	}
	_ = g.Wait()

	SortByUrgency(evals)

	return PortfolioResult{
		Evaluations: evals,
		Summary:     Summarize(positions, evals, now),
	}
}

// ResolvePrice picks the price used for pos and reports whether it is stale.
func ResolvePrice(pos domain.Position, quotes map[string]domain.Quote, now time.Time, staleAfter time.Duration) (float64, bool) {
	if q, ok := quotes[pos.Symbol]; ok && q.Price > 0 {
		stale := staleAfter > 0 && !q.AsOf.IsZero() && now.Sub(q.AsOf) > staleAfter
		return q.Price, stale
	}
	if pos.LastKnownPrice != nil && *pos.LastKnownPrice > 0 {
		return *pos.LastKnownPrice, true
	}
	return pos.EntryPrice, true
}

// SortByUrgency orders evaluations most urgent first, then by symbol.
func SortByUrgency(evals []domain.Evaluation) {
	slices.SortStableFunc(evals, func(a, b domain.Evaluation) int {
		if a.Urgency != b.Urgency {
			return int(b.Urgency) - int(a.Urgency)
		}
		return strings.Compare(a.Position.Symbol, b.Position.Symbol)
	})
}

// Summarize aggregates evaluations. positions is the full set so the win
// rate can be computed over closed and stopped positions.
func Summarize(positions []domain.Position, evals []domain.Evaluation, now time.Time) domain.PortfolioSummary {
	s := domain.PortfolioSummary{
		ActivePositions: len(evals),
		AsOf:            now,
	}

	for _, e := range evals {
		invested := e.Position.EntryValue()
		value := e.CurrentPrice * e.Position.Quantity
		s.TotalInvested += invested
		s.CurrentValue += value

		id := e.Position.PortfolioID
		if id == "" {
			id = domain.DefaultPortfolio
		}
		if s.ByPortfolio == nil {
			s.ByPortfolio = make(map[string]domain.PortfolioTotals)
		}
		pt := s.ByPortfolio[id]
		pt.ActivePositions++
		pt.TotalInvested += invested
		pt.CurrentValue += value
		pt.UnrealizedPnL = pt.CurrentValue - pt.TotalInvested
		s.ByPortfolio[id] = pt

		if e.ProgressToTarget >= 80 {
			s.AtTarget++
		}
		if e.ProgressToStop >= 50 {
			s.AtRisk++
		}
		if e.DaysToDeadline < 0 {
			s.Overdue++
		}
		if e.PriceStale {
			s.StalePrices++
		}
		switch e.Recommendation {
		case domain.RecommendationStrongBuy:
			s.Recommendations.StrongBuy++
		case domain.RecommendationBuy:
			s.Recommendations.Buy++
		case domain.RecommendationHold:
			s.Recommendations.Hold++
		case domain.RecommendationSell:
			s.Recommendations.Sell++
		case domain.RecommendationStrongSell:
			s.Recommendations.StrongSell++
		}
	}
	s.UnrealizedPnL = s.CurrentValue - s.TotalInvested
	if s.TotalInvested > 0 {
		s.UnrealizedPnLPercent = s.UnrealizedPnL / s.TotalInvested * 100
	}

	var wins int
	for _, p := range positions {
		if p.IsActive() {
			continue
		}
		s.ClosedPositions++
		if p.RealizedPnL != nil && *p.RealizedPnL > 0 {
			wins++
		}
	}
	if s.ClosedPositions > 0 {
		s.WinRate = float64(wins) / float64(s.ClosedPositions) * 100
	}

	if len(evals) > 0 {
		s.TopPriority = evals[0].Position.Symbol
	}
	return s
}
