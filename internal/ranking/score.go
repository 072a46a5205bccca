package ranking

import (
	"fmt"

	"github.com/alanyoungcy/swingdesk/internal/domain"
)

// Breakdown lists the components of a composite score.
type Breakdown struct {
	NearLevel  int `json:"near_level"`
	Structure  int `json:"structure"`
	Volatility int `json:"volatility"`
	Momentum   int `json:"momentum"`
	NotChop    int `json:"not_chop"`
}

// Total is the capped sum of the components.
func (b Breakdown) Total() float64 {
	return float64(min(100, b.NearLevel+b.Structure+b.Volatility+b.Momentum+b.NotChop))
}

// Score computes the 0..100 composite score for a scan row from its
// already-resolved inputs.
func Score(c domain.Candidate) Breakdown {
	var b Breakdown

	switch r := c.DistanceToResistance; {
	case r <= 1:
		b.NearLevel = 30
	case r <= 2:
		b.NearLevel = 25
	case r <= 3:
		b.NearLevel = 20
	case r <= 5:
		b.NearLevel = 10
	}
	if c.DistanceToSupport <= 3 {
		b.NearLevel += 15
	}
	b.NearLevel = min(30, b.NearLevel)

	switch c.Structure.Strength() {
	case 4:
		b.Structure = 25
	case 3:
		b.Structure = 20
	case 2:
		b.Structure = 10
	}

	switch atr := c.ATRPercent; {
	case atr >= 2 && atr <= 5:
		b.Volatility = 20
	case atr >= 1.5 && atr <= 7:
		b.Volatility = 15
	case atr >= 1:
		b.Volatility = 10
	default:
		b.Volatility = 5
	}

	switch c.Momentum {
	case domain.MomentumPositive:
		b.Momentum = 15
	case domain.MomentumNeutral:
		b.Momentum = 8
	}

	if c.Structure.Strength() != 1 {
		b.NotChop = 10
	}
	return b
}

// Hint labels a candidate with the scenario worth studying first.
func Hint(c domain.Candidate) (domain.ScenarioHint, string) {
	switch {
	case c.DistanceToResistance <= 3:
		return domain.ScenarioA, fmt.Sprintf("%.1f%% to resistance, study the breakout scenario", c.DistanceToResistance)
	case c.DistanceToSupport <= 5:
		return domain.ScenarioB, fmt.Sprintf("%.1f%% to support, study the pullback scenario", c.DistanceToSupport)
	case c.Structure.Strength() == 1:
		return domain.ScenarioNoEdge, "chop structure, lower priority"
	default:
		return domain.ScenarioNoEdge, "mid range, wait for an edge"
	}
}

// Enrich fills Score and ScenarioHint on rows that arrive without them.
// Rows with a non-zero score keep it.
func Enrich(candidates []domain.Candidate) []domain.Candidate {
	out := make([]domain.Candidate, len(candidates))
	for i, c := range candidates {
		if c.Score == 0 {
			c.Score = Score(c).Total()
		}
		if c.ScenarioHint == "" {
			c.ScenarioHint, c.ScenarioReason = Hint(c)
		}
		out[i] = c
	}
	return out
}

// Tier is a coarse priority bucket.
type Tier string

const (
	TierHigh   Tier = "high"
	TierMedium Tier = "medium"
	TierLow    Tier = "low"
)

// PriorityTier buckets a score.
func PriorityTier(score float64) Tier {
	switch {
	case score >= 50:
		return TierHigh
	case score >= 30:
		return TierMedium
	default:
		return TierLow
	}
}
