package brief

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/alanyoungcy/swingdesk/internal/domain"
)

func TestRender(t *testing.T) {
	candidates := []domain.Candidate{
		{Symbol: "NEW", Score: 88, Category: domain.CategoryAsym, Price: 100, SuggestedStop: 96, SuggestedTarget: 112, ScenarioHint: domain.ScenarioA, UpdatedAt: briefNow},
	}
	out := Render(buildFrom(book(), candidates, 0, DefaultConfig()))

	assert.Contains(t, out, "# Daily brief 2026-03-10")
	assert.Contains(t, out, "## EXIT\n- [STRONG_SELL] EXIT (high): target reached")
	assert.Contains(t, out, "## MOVE_STOP\n- TRAIL: 95.00 -> 100.00, move stop to breakeven")
	assert.Contains(t, out, "## ENTER\n- #1 NEW score 88, R/R 3.0, A-candidate")
	assert.Contains(t, out, "## HOLD\n- WAIT:")
	assert.Contains(t, out, "- total exposure: ok")
	assert.Contains(t, out, "- 3/5 slots used, 2 open")
	assert.Contains(t, out, "- trend: 2/3")
	assert.NotContains(t, out, "## ADVISORIES")
}

func TestRender_FlagsFailures(t *testing.T) {
	b := domain.Brief{
		Slots: domain.SlotSummary{
			TotalCapacity: 5,
			ActiveCount:   5,
			PerCategory: []domain.CategoryOccupancy{
				{Category: domain.CategoryTrend, Quota: 3, Occupied: 4, OverQuota: true},
				{Category: "income", Occupied: 1, Unquoted: true},
			},
		},
		RiskChecks: domain.RiskChecks{PerTradeRisk: true},
	}
	out := Render(b)
	assert.Contains(t, out, "- trend: 4/3 OVER QUOTA")
	assert.Contains(t, out, "- income: 1 (no quota)")
	assert.Contains(t, out, "- total exposure: FAIL")
	assert.NotContains(t, out, "## EXIT")
}
