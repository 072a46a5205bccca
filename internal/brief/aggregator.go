// Package brief folds evaluations, slot occupancy and ranked candidates into
// the daily action set.
package brief

import (
	"time"

	"github.com/alanyoungcy/swingdesk/internal/domain"
)

// Config holds the thresholds used while building a brief.
type Config struct {
	MinEntryScore    float64
	MinRiskReward    float64
	MaxEntriesPerDay int
	MaxRiskPercent   float64
	// AccountSize is the base for per-trade risk. Zero means the total
	// invested in active positions.
	AccountSize float64
	// StopAdjustProgress and StopAdjustPnLPercent gate the breakeven stop move.
	StopAdjustProgress   float64
	StopAdjustPnLPercent float64
}

// DefaultConfig returns the standard thresholds.
func DefaultConfig() Config {
	return Config{
		MinEntryScore:        70,
		MinRiskReward:        2.5,
		MaxEntriesPerDay:     2,
		MaxRiskPercent:       2,
		StopAdjustProgress:   50,
		StopAdjustPnLPercent: 5,
	}
}

// Input is the snapshot a brief is built from. Candidates must already be
// ranked.
type Input struct {
	Evaluations []domain.Evaluation
	Summary     domain.PortfolioSummary
	Slots       domain.SlotSummary
	Candidates  []domain.Candidate
	OpenedToday int
	Now         time.Time
}

// Build produces the brief. Every evaluation lands in exactly one of Exits,
// StopAdjustments or Holds.
func Build(in Input, cfg Config) domain.Brief {
	b := domain.Brief{
		GeneratedAt:     in.Now,
		Exits:           []domain.ExitAction{},
		StopAdjustments: []domain.StopAdjustment{},
		Entries:         []domain.EntryAction{},
		Holds:           []domain.HoldAction{},
		Advisories:      []domain.Advisory{},
		Slots:           in.Slots,
		Summary:         in.Summary,
	}

	for _, e := range in.Evaluations {
		if dc := e.DeadCapital; dc != nil && dc.IsDeadCapital {
			b.Advisories = append(b.Advisories, domain.Advisory{
				Symbol:     e.Position.Symbol,
				PositionID: e.Position.ID,
				Severity:   dc.Severity,
				Message:    dc.Recommendation,
			})
		}

		switch {
		case e.Recommendation.IsExit():
			b.Exits = append(b.Exits, domain.ExitAction{
				Symbol:         e.Position.Symbol,
				PositionID:     e.Position.ID,
				Reason:         firstOr(e.Reasons, string(e.Recommendation)),
				Recommendation: e.Recommendation,
				Urgency:        e.Urgency,
			})
		case wantsBreakevenStop(e, cfg):
			b.StopAdjustments = append(b.StopAdjustments, domain.StopAdjustment{
				Symbol:        e.Position.Symbol,
				PositionID:    e.Position.ID,
				CurrentStop:   e.Position.StopLoss,
				SuggestedStop: e.Position.EntryPrice,
				Reason:        "move stop to breakeven",
			})
		default:
			b.Holds = append(b.Holds, domain.HoldAction{
				Symbol:         e.Position.Symbol,
				PositionID:     e.Position.ID,
				Recommendation: e.Recommendation,
				Note:           holdNote(e),
			})
		}
	}

	b.Entries = selectEntries(in, cfg)
	b.RiskChecks = domain.RiskChecks{
		PerTradeRisk:   perTradeRiskOK(in.Evaluations, cfg),
		TotalExposure:  !in.Slots.Overcommitted(),
		NotOvertrading: in.OpenedToday+len(b.Entries) <= cfg.MaxEntriesPerDay,
	}
	return b
}

func wantsBreakevenStop(e domain.Evaluation, cfg Config) bool {
	return e.ProgressToTarget >= cfg.StopAdjustProgress &&
		e.UnrealizedPnLPercent >= cfg.StopAdjustPnLPercent &&
		e.Position.StopLoss < e.Position.EntryPrice
}

func holdNote(e domain.Evaluation) string {
	note := firstOr(e.Reasons, "no signal")
	if dc := e.DeadCapital; dc != nil && dc.IsDeadCapital {
		note += "; " + dc.Recommendation
	}
	return note
}

func firstOr(ss []string, fallback string) string {
	if len(ss) > 0 {
		return ss[0]
	}
	return fallback
}

// selectEntries walks the ranked candidates and keeps those that clear the
// score and risk/reward bars and fit a free slot in their category.
func selectEntries(in Input, cfg Config) []domain.EntryAction {
	budget := min(in.Slots.OpenSlots, max(0, cfg.MaxEntriesPerDay-in.OpenedToday))
	entries := []domain.EntryAction{}
	if budget <= 0 {
		return entries
	}

	held := make(map[string]bool, len(in.Evaluations))
	for _, e := range in.Evaluations {
		held[e.Position.Symbol] = true
	}

	room := make(map[domain.Category]int, len(in.Slots.PerCategory))
	for _, row := range in.Slots.PerCategory {
		if !row.Unquoted {
			room[row.Category] = row.Open
		}
	}

	for i, c := range in.Candidates {
		if len(entries) == budget {
			break
		}
		if held[c.Symbol] || c.Score < cfg.MinEntryScore {
			continue
		}
		rr, ok := c.RiskReward()
		if ok && rr < cfg.MinRiskReward {
			continue
		}
		if open, quoted := room[c.Category]; quoted {
			if open <= 0 {
				continue
			}
			room[c.Category] = open - 1
		}
		held[c.Symbol] = true
		entries = append(entries, domain.EntryAction{
			Symbol:     c.Symbol,
			Rank:       i + 1,
			Candidate:  c,
			RiskReward: rr,
		})
	}
	return entries
}

func perTradeRiskOK(evals []domain.Evaluation, cfg Config) bool {
	account := cfg.AccountSize
	if account <= 0 {
		for _, e := range evals {
			account += e.Position.EntryValue()
		}
	}
	if account <= 0 {
		return true
	}
	limit := account * cfg.MaxRiskPercent / 100
	for _, e := range evals {
		if e.Position.RiskAmount() > limit {
			return false
		}
	}
	return true
}
