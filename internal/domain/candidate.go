package domain

import (
	"strings"
	"time"
)

// Structure is the structural classification of a chart setup.
type Structure string

const (
	StructureImpulse Structure = "Impulse"
	StructureTrend   Structure = "Trend"
	StructureRange   Structure = "Range"
	StructureChop    Structure = "Chop"
)

// Strength orders structures for ranking: Impulse > Trend > Range > Chop.
// Unknown structures rank below Chop.
func (s Structure) Strength() int {
	switch Structure(strings.TrimSpace(string(s))) {
	case StructureImpulse, "Impuls":
		return 4
	case StructureTrend:
		return 3
	case StructureRange:
		return 2
	case StructureChop:
		return 1
	}
	return 0
}

// MomentumBias is the direction of recent momentum.
type MomentumBias string

const (
	MomentumPositive MomentumBias = "positive"
	MomentumNeutral  MomentumBias = "neutral"
	MomentumNegative MomentumBias = "negative"
)

// ScenarioHint is a prioritisation label, never a decision.
type ScenarioHint string

const (
	ScenarioA      ScenarioHint = "A-candidate"
	ScenarioB      ScenarioHint = "B-candidate"
	ScenarioNoEdge ScenarioHint = "C/no-edge"
)

// Candidate is one instrument from the latest scan, not yet a position.
type Candidate struct {
	Symbol               string       `json:"symbol"`
	Name                 string       `json:"name,omitempty"`
	Score                float64      `json:"score"`
	Structure            Structure    `json:"structure"`
	ATRPercent           float64      `json:"atr_percent"`
	DistanceToResistance float64      `json:"distance_to_resistance"`
	DistanceToSupport    float64      `json:"distance_to_support"`
	Momentum             MomentumBias `json:"momentum"`
	UpdatedAt            time.Time    `json:"updated_at"`

	Category        Category     `json:"category,omitempty"`
	Price           float64      `json:"price,omitempty"`
	SuggestedStop   float64      `json:"suggested_stop,omitempty"`
	SuggestedTarget float64      `json:"suggested_target,omitempty"`
	ScenarioHint    ScenarioHint `json:"scenario_hint,omitempty"`
	ScenarioReason  string       `json:"scenario_reason,omitempty"`
}

// RiskReward returns reward/risk for the suggested plan, and false when the
// plan is missing or degenerate.
func (c Candidate) RiskReward() (float64, bool) {
	if c.Price <= 0 || c.SuggestedStop <= 0 || c.SuggestedTarget <= 0 {
		return 0, false
	}
	risk := c.Price - c.SuggestedStop
	reward := c.SuggestedTarget - c.Price
	if risk <= 0 || reward <= 0 {
		return 0, false
	}
	return reward / risk, true
}
