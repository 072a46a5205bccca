// Package evaluator turns positions and price snapshots into evaluations.
// Everything here is pure: the same inputs always produce the same output.
package evaluator

import (
	"math"
	"time"

	"github.com/alanyoungcy/swingdesk/internal/domain"
)

// Evaluate produces one Evaluation for pos at price. profile is optional.
func Evaluate(pos domain.Position, price float64, profile *domain.Profile, now time.Time) domain.Evaluation {
	return evaluate(pos, price, false, profile, now)
}

func evaluate(pos domain.Position, price float64, stale bool, profile *domain.Profile, now time.Time) domain.Evaluation {
	entryValue := pos.EntryValue()
	pnl := price*pos.Quantity - entryValue
	var pnlPercent float64
	if entryValue != 0 {
		pnlPercent = pnl / entryValue * 100
	}

	f := facts{
		price:            price,
		stop:             pos.StopLoss,
		pnlPercent:       pnlPercent,
		progressToTarget: ProgressToTarget(pos, price),
		progressToStop:   ProgressToStop(pos, price),
		daysHeld:         wholeDays(now.Sub(pos.EntryTime)),
		daysToDeadline:   wholeDays(pos.HorizonEnd.Sub(now)),
		stale:            stale,
		profile:          profile,
		now:              now,
	}
	v := decide(f)

	reasons := v.reasons
	if reasons == nil {
		reasons = []string{}
	}
	warnings := v.warnings
	if warnings == nil {
		warnings = []string{}
	}

	return domain.Evaluation{
		Position:             pos,
		CurrentPrice:         price,
		PriceStale:           stale,
		UnrealizedPnL:        pnl,
		UnrealizedPnLPercent: pnlPercent,
		ProgressToTarget:     f.progressToTarget,
		ProgressToStop:       f.progressToStop,
		DaysHeld:             f.daysHeld,
		DaysToDeadline:       f.daysToDeadline,
		Recommendation:       v.recommendation,
		Urgency:              v.urgency,
		Reasons:              reasons,
		Warnings:             warnings,
	}
}

// ProgressToTarget is the percentage of the entry-to-target move covered at
// price. It is 0 when the target is not above entry.
func ProgressToTarget(pos domain.Position, price float64) float64 {
	span := pos.Target - pos.EntryPrice
	if span <= 0 {
		return 0
	}
	return (price - pos.EntryPrice) / span * 100
}

// ProgressToStop is the percentage of the entry-to-stop move covered at
// price, never negative. It is 0 when no stop is set or the stop is not
// below entry.
func ProgressToStop(pos domain.Position, price float64) float64 {
	span := pos.EntryPrice - pos.StopLoss
	if pos.StopLoss <= 0 || span <= 0 {
		return 0
	}
	return math.Max(0, (pos.EntryPrice-price)/span*100)
}
