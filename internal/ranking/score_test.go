package ranking

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/alanyoungcy/swingdesk/internal/domain"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name string
		in   domain.Candidate
		want Breakdown
	}{
		{
			name: "breakout impulse",
			in: domain.Candidate{
				DistanceToResistance: 0.8, DistanceToSupport: 10, ATRPercent: 3,
				Structure: domain.StructureImpulse, Momentum: domain.MomentumPositive,
			},
			want: Breakdown{NearLevel: 30, Structure: 25, Volatility: 20, Momentum: 15, NotChop: 10},
		},
		{
			name: "near level capped",
			in: domain.Candidate{
				DistanceToResistance: 2.5, DistanceToSupport: 1, ATRPercent: 6,
				Structure: domain.StructureTrend, Momentum: domain.MomentumNeutral,
			},
			want: Breakdown{NearLevel: 30, Structure: 20, Volatility: 15, Momentum: 8, NotChop: 10},
		},
		{
			name: "far from levels in chop",
			in: domain.Candidate{
				DistanceToResistance: 12, DistanceToSupport: 12, ATRPercent: 0.5,
				Structure: domain.StructureChop, Momentum: domain.MomentumNegative,
			},
			want: Breakdown{Volatility: 5},
		},
		{
			name: "range with low volatility",
			in: domain.Candidate{
				DistanceToResistance: 4, DistanceToSupport: 8, ATRPercent: 1.2,
				Structure: domain.StructureRange, Momentum: domain.MomentumPositive,
			},
			want: Breakdown{NearLevel: 10, Structure: 10, Volatility: 10, Momentum: 15, NotChop: 10},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Score(tt.in))
		})
	}
}

func TestBreakdownTotal(t *testing.T) {
	assert.Equal(t, 100.0, Breakdown{NearLevel: 30, Structure: 25, Volatility: 20, Momentum: 15, NotChop: 10}.Total())
	assert.Equal(t, 55.0, Breakdown{NearLevel: 10, Structure: 10, Volatility: 10, Momentum: 15, NotChop: 10}.Total())
}

func TestHint(t *testing.T) {
	hint, reason := Hint(domain.Candidate{DistanceToResistance: 2.4, DistanceToSupport: 1})
	assert.Equal(t, domain.ScenarioA, hint)
	assert.Contains(t, reason, "2.4%")

	hint, _ = Hint(domain.Candidate{DistanceToResistance: 6, DistanceToSupport: 4})
	assert.Equal(t, domain.ScenarioB, hint)

	hint, reason = Hint(domain.Candidate{DistanceToResistance: 6, DistanceToSupport: 8, Structure: domain.StructureChop})
	assert.Equal(t, domain.ScenarioNoEdge, hint)
	assert.Contains(t, reason, "chop")

	hint, reason = Hint(domain.Candidate{DistanceToResistance: 6, DistanceToSupport: 8, Structure: domain.StructureTrend})
	assert.Equal(t, domain.ScenarioNoEdge, hint)
	assert.Contains(t, reason, "mid range")
}

func TestEnrich(t *testing.T) {
	in := []domain.Candidate{
		{Symbol: "RAW", DistanceToResistance: 0.5, DistanceToSupport: 9, ATRPercent: 3, Structure: domain.StructureImpulse, Momentum: domain.MomentumPositive},
		{Symbol: "SCORED", Score: 42, ScenarioHint: domain.ScenarioB},
	}
	out := Enrich(in)

	assert.Equal(t, 100.0, out[0].Score)
	assert.Equal(t, domain.ScenarioA, out[0].ScenarioHint)
	assert.Equal(t, 42.0, out[1].Score)
	assert.Equal(t, domain.ScenarioB, out[1].ScenarioHint)
	assert.Equal(t, 0.0, in[0].Score)
}

func TestPriorityTier(t *testing.T) {
	assert.Equal(t, TierHigh, PriorityTier(50))
	assert.Equal(t, TierMedium, PriorityTier(49.9))
	assert.Equal(t, TierMedium, PriorityTier(30))
	assert.Equal(t, TierLow, PriorityTier(29))
}
