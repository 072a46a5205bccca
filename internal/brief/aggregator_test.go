package brief

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/swingdesk/internal/domain"
	"github.com/alanyoungcy/swingdesk/internal/evaluator"
	"github.com/alanyoungcy/swingdesk/internal/ranking"
	"github.com/alanyoungcy/swingdesk/internal/slots"
)

var briefNow = time.Date(2026, time.March, 10, 17, 30, 0, 0, time.UTC)

func pos(id, symbol string, cat domain.Category, entry, target, stop float64) domain.Position {
	return domain.Position{
		ID:         id,
		Symbol:     symbol,
		EntryPrice: entry,
		Quantity:   10,
		EntryTime:  briefNow.AddDate(0, 0, -10),
		Category:   cat,
		StopLoss:   stop,
		Target:     target,
		HorizonEnd: briefNow.AddDate(0, 0, 30),
		Status:     domain.PositionStatusActive,
	}
}

type fixture struct {
	positions []domain.Position
	quotes    map[string]domain.Quote
}

func book() fixture {
	return fixture{
		positions: []domain.Position{
			pos("p1", "EXIT", domain.CategoryTrend, 100, 120, 90),
			pos("p2", "TRAIL", domain.CategoryTrend, 100, 120, 95),
			pos("p3", "WAIT", domain.CategoryAsym, 50, 70, 45),
		},
		quotes: map[string]domain.Quote{
			"EXIT":  {Price: 121, AsOf: briefNow},
			"TRAIL": {Price: 112, AsOf: briefNow},
			"WAIT":  {Price: 51, AsOf: briefNow},
		},
	}
}

func buildFrom(f fixture, candidates []domain.Candidate, openedToday int, cfg Config) domain.Brief {
	res := evaluator.EvaluatePortfolio(f.positions, f.quotes, nil, briefNow, evaluator.Options{})
	return Build(Input{
		Evaluations: res.Evaluations,
		Summary:     res.Summary,
		Slots:       slots.Allocate(f.positions, slots.DefaultConfig()),
		Candidates:  ranking.Rank(candidates),
		OpenedToday: openedToday,
		Now:         briefNow,
	}, cfg)
}

func TestBuild_Partition(t *testing.T) {
	b := buildFrom(book(), nil, 0, DefaultConfig())

	require.Len(t, b.Exits, 1)
	assert.Equal(t, "EXIT", b.Exits[0].Symbol)
	assert.Equal(t, domain.RecommendationStrongSell, b.Exits[0].Recommendation)
	assert.Contains(t, b.Exits[0].Reason, "target reached")

	require.Len(t, b.StopAdjustments, 1)
	assert.Equal(t, "TRAIL", b.StopAdjustments[0].Symbol)
	assert.Equal(t, 95.0, b.StopAdjustments[0].CurrentStop)
	assert.Equal(t, 100.0, b.StopAdjustments[0].SuggestedStop)

	require.Len(t, b.Holds, 1)
	assert.Equal(t, "WAIT", b.Holds[0].Symbol)

	seen := map[string]int{}
	for _, x := range b.Exits {
		seen[x.PositionID]++
	}
	for _, s := range b.StopAdjustments {
		seen[s.PositionID]++
	}
	for _, h := range b.Holds {
		seen[h.PositionID]++
	}
	assert.Equal(t, map[string]int{"p1": 1, "p2": 1, "p3": 1}, seen)
	assert.Equal(t, briefNow, b.GeneratedAt)
	assert.Equal(t, 3, b.Summary.ActivePositions)
}

func TestBuild_StopAlreadyAtBreakevenIsHold(t *testing.T) {
	f := book()
	f.positions[1].StopLoss = 100
	b := buildFrom(f, nil, 0, DefaultConfig())

	assert.Empty(t, b.StopAdjustments)
	assert.Len(t, b.Holds, 2)
}

func TestBuild_Entries(t *testing.T) {
	candidates := []domain.Candidate{
		{Symbol: "HELD", Score: 95, Category: domain.CategoryTrend, UpdatedAt: briefNow},
		{Symbol: "LOWRR", Score: 90, Category: domain.CategoryTrend, Price: 100, SuggestedStop: 95, SuggestedTarget: 105, UpdatedAt: briefNow},
		{Symbol: "GOOD", Score: 85, Category: domain.CategoryAsym, Price: 100, SuggestedStop: 96, SuggestedTarget: 112, UpdatedAt: briefNow},
		{Symbol: "NOPLAN", Score: 80, Category: domain.CategoryTrend, UpdatedAt: briefNow},
		{Symbol: "WEAK", Score: 60, Category: domain.CategoryTrend, UpdatedAt: briefNow},
	}
	f := book()
	f.positions[2].Symbol = "HELD"
	f.quotes["HELD"] = f.quotes["WAIT"]

	b := buildFrom(f, candidates, 0, DefaultConfig())

	require.Len(t, b.Entries, 2)
	assert.Equal(t, "GOOD", b.Entries[0].Symbol)
	assert.Equal(t, 3, b.Entries[0].Rank)
	assert.InDelta(t, 3.0, b.Entries[0].RiskReward, 1e-9)
	assert.Equal(t, "NOPLAN", b.Entries[1].Symbol)
	assert.Equal(t, 0.0, b.Entries[1].RiskReward)
	assert.True(t, b.RiskChecks.NotOvertrading)
}

func TestBuild_EntriesRespectCategoryRoom(t *testing.T) {
	f := book()
	f.positions = append(f.positions, pos("p4", "ASYM2", domain.CategoryAsym, 10, 20, 9))
	f.quotes["ASYM2"] = domain.Quote{Price: 10.5, AsOf: briefNow}

	candidates := []domain.Candidate{
		{Symbol: "NEWASYM", Score: 90, Category: domain.CategoryAsym, UpdatedAt: briefNow},
		{Symbol: "NEWTREND", Score: 80, Category: domain.CategoryTrend, UpdatedAt: briefNow},
	}
	b := buildFrom(f, candidates, 0, DefaultConfig())

	require.Len(t, b.Entries, 1)
	assert.Equal(t, "NEWTREND", b.Entries[0].Symbol)
}

func TestBuild_DailyBudget(t *testing.T) {
	candidates := []domain.Candidate{
		{Symbol: "C1", Score: 90, Category: domain.CategoryTrend, UpdatedAt: briefNow},
		{Symbol: "C2", Score: 85, Category: domain.CategoryAsym, UpdatedAt: briefNow},
	}

	b := buildFrom(book(), candidates, 1, DefaultConfig())
	require.Len(t, b.Entries, 1)
	assert.True(t, b.RiskChecks.NotOvertrading)

	b = buildFrom(book(), candidates, 3, DefaultConfig())
	assert.Empty(t, b.Entries)
	assert.False(t, b.RiskChecks.NotOvertrading)
}

func TestBuild_NoEntriesWhenFull(t *testing.T) {
	f := book()
	f.positions = append(f.positions,
		pos("p4", "T3", domain.CategoryTrend, 10, 20, 9),
		pos("p5", "T4", domain.CategoryTrend, 10, 20, 9),
	)

	b := buildFrom(f, []domain.Candidate{{Symbol: "NEW", Score: 99, Category: domain.CategoryAsym}}, 0, DefaultConfig())
	assert.Equal(t, 0, b.Slots.OpenSlots)
	assert.Empty(t, b.Entries)
	assert.False(t, b.RiskChecks.TotalExposure)
}

func TestBuild_PerTradeRisk(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AccountSize = 10000

	// Largest risk is (100-90)*10 = 100, exactly 1% of the account.
	b := buildFrom(book(), nil, 0, cfg)
	assert.True(t, b.RiskChecks.PerTradeRisk)

	cfg.AccountSize = 4000
	b = buildFrom(book(), nil, 0, cfg)
	assert.False(t, b.RiskChecks.PerTradeRisk)
}

func TestBuild_DeadCapitalAdvisory(t *testing.T) {
	f := book()
	f.positions[2].EntryTime = briefNow.AddDate(0, 0, -20)
	f.positions[2].HorizonEnd = briefNow.AddDate(0, 0, 5)

	b := buildFrom(f, nil, 0, DefaultConfig())
	require.Len(t, b.Advisories, 1)
	assert.Equal(t, "WAIT", b.Advisories[0].Symbol)
	assert.Equal(t, domain.SeverityWarning, b.Advisories[0].Severity)
	require.Len(t, b.Holds, 1)
	assert.Contains(t, b.Holds[0].Note, "redeploy")
}

func TestBuild_EmptyInput(t *testing.T) {
	b := Build(Input{Now: briefNow, Slots: slots.Allocate(nil, slots.DefaultConfig())}, DefaultConfig())
	assert.NotNil(t, b.Exits)
	assert.NotNil(t, b.Holds)
	assert.NotNil(t, b.Entries)
	assert.True(t, b.RiskChecks.AllPassed())
}

func TestBuild_MissingStopCarriesNoRisk(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AccountSize = 1000

	f := fixture{
		positions: []domain.Position{pos("p1", "NOSTOP", domain.CategoryTrend, 100, 120, 0)},
		quotes:    map[string]domain.Quote{"NOSTOP": {Price: 101, AsOf: briefNow}},
	}
	b := buildFrom(f, nil, 0, cfg)
	assert.True(t, b.RiskChecks.PerTradeRisk)
	assert.Equal(t, 0.0, f.positions[0].RiskAmount())
}
