package evaluator

import (
	"math"
	"time"

	"github.com/alanyoungcy/swingdesk/internal/domain"
)

// DetectDeadCapital flags positions that have used more than half of their
// planned time while covering less than half of the move to target. It is
// advisory and independent of the recommendation rules.
func DetectDeadCapital(pos domain.Position, price float64, now time.Time) domain.DeadCapital {
	total := pos.HorizonEnd.Sub(pos.EntryTime)
	elapsed := now.Sub(pos.EntryTime)

	var timeProgress float64
	if total > 0 {
		timeProgress = clamp01(float64(elapsed) / float64(total))
	}

	var priceProgress float64
	if move := pos.Target - pos.EntryPrice; move != 0 {
		priceProgress = (price - pos.EntryPrice) / move
	}

	out := domain.DeadCapital{
		IsDeadCapital: timeProgress > 0.5 && priceProgress < 0.5,
		TimeProgress:  timeProgress,
		PriceProgress: priceProgress,
		DaysElapsed:   wholeDays(elapsed),
		DaysRemaining: max(0, wholeDays(pos.HorizonEnd.Sub(now))),
	}

	switch {
	case out.IsDeadCapital && price < pos.StopLoss:
		out.Severity = domain.SeverityCritical
		out.Recommendation = "critical: price below stop, exit now"
	case out.IsDeadCapital && priceProgress < 0:
		out.Severity = domain.SeverityWarning
		out.Recommendation = "warning: negative progress, tighten stop or exit"
	case out.IsDeadCapital && priceProgress < 0.25:
		out.Severity = domain.SeverityWarning
		out.Recommendation = "dead capital: redeploy the capital elsewhere"
	case out.IsDeadCapital:
		out.Severity = domain.SeverityInfo
		out.Recommendation = "slow progress: monitor closely or take a partial exit"
	case timeProgress > 0.75 && priceProgress < 0.75:
		out.Severity = domain.SeverityInfo
		out.Recommendation = "time pressure: deadline approaching without full progress"
	case priceProgress >= 0.9:
		out.Severity = domain.SeverityNone
		out.Recommendation = "near target: consider taking profit or trailing the stop"
	case priceProgress >= 0.5:
		out.Severity = domain.SeverityNone
		out.Recommendation = "on track"
	default:
		out.Severity = domain.SeverityNone
		out.Recommendation = "early phase, keep monitoring"
	}
	return out
}

func clamp01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}
