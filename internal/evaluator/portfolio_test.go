package evaluator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/swingdesk/internal/domain"
)

func ptr(v float64) *float64 { return &v }

func portfolioFixture() []domain.Position {
	winner := newPosition(100, 120, 90)
	winner.ID, winner.Symbol = "p1", "AAA"

	loser := newPosition(100, 150, 80)
	loser.ID, loser.Symbol = "p2", "BBB"

	quiet := newPosition(50, 60, 45)
	quiet.ID, quiet.Symbol = "p3", "CCC"
	quiet.Category = domain.CategoryAsym
	quiet.PortfolioID = "long-term"

	closedWin := newPosition(10, 12, 9)
	closedWin.ID, closedWin.Symbol = "p4", "DDD"
	closedWin.Status = domain.PositionStatusClosed
	closedWin.RealizedPnL = ptr(20)

	stopped := newPosition(10, 12, 9)
	stopped.ID, stopped.Symbol = "p5", "EEE"
	stopped.Status = domain.PositionStatusStopped
	stopped.RealizedPnL = ptr(-10)

	return []domain.Position{quiet, loser, closedWin, winner, stopped}
}

func TestEvaluatePortfolio(t *testing.T) {
	quotes := map[string]domain.Quote{
		"AAA": {Symbol: "AAA", Price: 121, AsOf: testNow},
		"BBB": {Symbol: "BBB", Price: 85, AsOf: testNow},
		"CCC": {Symbol: "CCC", Price: 50.5, AsOf: testNow},
	}

	res := EvaluatePortfolio(portfolioFixture(), quotes, nil, testNow, Options{Workers: 2})

	require.Len(t, res.Evaluations, 3)
	// AAA and BBB are both high urgency; ties break on symbol.
	assert.Equal(t, "AAA", res.Evaluations[0].Position.Symbol)
	assert.Equal(t, "BBB", res.Evaluations[1].Position.Symbol)
	assert.Equal(t, "CCC", res.Evaluations[2].Position.Symbol)
	for _, e := range res.Evaluations {
		assert.NotNil(t, e.DeadCapital, e.Position.Symbol)
		assert.False(t, e.PriceStale, e.Position.Symbol)
	}

	s := res.Summary
	assert.Equal(t, 3, s.ActivePositions)
	assert.Equal(t, 2, s.ClosedPositions)
	assert.InDelta(t, 50.0, s.WinRate, 1e-9)
	assert.InDelta(t, 2500.0, s.TotalInvested, 1e-9)
	assert.InDelta(t, 2565.0, s.CurrentValue, 1e-9)
	assert.InDelta(t, 65.0, s.UnrealizedPnL, 1e-9)
	assert.InDelta(t, 2.6, s.UnrealizedPnLPercent, 1e-9)
	assert.Equal(t, 1, s.AtTarget)
	assert.Equal(t, 1, s.AtRisk)
	assert.Equal(t, 1, s.Recommendations.StrongSell)
	assert.Equal(t, 1, s.Recommendations.Sell)
	assert.Equal(t, 1, s.Recommendations.Hold)
	assert.Equal(t, "AAA", s.TopPriority)
	assert.Equal(t, testNow, s.AsOf)

	require.Len(t, s.ByPortfolio, 2)
	def := s.ByPortfolio[domain.DefaultPortfolio]
	assert.Equal(t, 2, def.ActivePositions)
	assert.InDelta(t, 2000.0, def.TotalInvested, 1e-9)
	assert.InDelta(t, 60.0, def.UnrealizedPnL, 1e-9)
	lt := s.ByPortfolio["long-term"]
	assert.Equal(t, 1, lt.ActivePositions)
	assert.InDelta(t, 5.0, lt.UnrealizedPnL, 1e-9)
}

func TestEvaluatePortfolio_Empty(t *testing.T) {
	res := EvaluatePortfolio(nil, nil, nil, testNow, Options{})
	assert.Empty(t, res.Evaluations)
	assert.Equal(t, 0, res.Summary.ActivePositions)
	assert.Equal(t, "", res.Summary.TopPriority)
	assert.Equal(t, 0.0, res.Summary.WinRate)
}

func TestEvaluatePortfolio_UsesProfiles(t *testing.T) {
	pos := newPosition(100, 120, 90)
	quotes := map[string]domain.Quote{"EQNR": {Price: 101, AsOf: testNow}}
	profiles := map[string]domain.Profile{"EQNR": {Symbol: "EQNR", WeakMonths: []time.Month{time.March}}}

	res := EvaluatePortfolio([]domain.Position{pos}, quotes, profiles, testNow, Options{})
	require.Len(t, res.Evaluations, 1)
	assert.Len(t, res.Evaluations[0].Warnings, 1)
}

func TestEvaluatePortfolio_StaleFallback(t *testing.T) {
	withLast := newPosition(100, 120, 90)
	withLast.Symbol = "LAST"
	withLast.LastKnownPrice = ptr(104)

	bare := newPosition(100, 120, 90)
	bare.Symbol = "BARE"

	res := EvaluatePortfolio([]domain.Position{withLast, bare}, nil, nil, testNow, Options{})
	require.Len(t, res.Evaluations, 2)

	bySymbol := map[string]domain.Evaluation{}
	for _, e := range res.Evaluations {
		bySymbol[e.Position.Symbol] = e
		assert.True(t, e.PriceStale)
		assert.Contains(t, e.Warnings[len(e.Warnings)-1], "stale")
	}
	assert.Equal(t, 104.0, bySymbol["LAST"].CurrentPrice)
	assert.Equal(t, 100.0, bySymbol["BARE"].CurrentPrice)
	assert.Equal(t, 2, res.Summary.StalePrices)
}

func TestResolvePrice(t *testing.T) {
	pos := newPosition(100, 120, 90)
	pos.LastKnownPrice = ptr(98)

	fresh := map[string]domain.Quote{"EQNR": {Price: 101, AsOf: testNow.Add(-time.Minute)}}
	price, stale := ResolvePrice(pos, fresh, testNow, time.Hour)
	assert.Equal(t, 101.0, price)
	assert.False(t, stale)

	old := map[string]domain.Quote{"EQNR": {Price: 101, AsOf: testNow.Add(-2 * time.Hour)}}
	price, stale = ResolvePrice(pos, old, testNow, time.Hour)
	assert.Equal(t, 101.0, price)
	assert.True(t, stale)

	price, stale = ResolvePrice(pos, old, testNow, 0)
	assert.Equal(t, 101.0, price)
	assert.False(t, stale)

	zero := map[string]domain.Quote{"EQNR": {Price: 0, AsOf: testNow}}
	price, stale = ResolvePrice(pos, zero, testNow, time.Hour)
	assert.Equal(t, 98.0, price)
	assert.True(t, stale)
}

func TestEvaluatePortfolio_Deterministic(t *testing.T) {
	quotes := map[string]domain.Quote{
		"AAA": {Price: 121, AsOf: testNow},
		"BBB": {Price: 85, AsOf: testNow},
	}
	first := EvaluatePortfolio(portfolioFixture(), quotes, nil, testNow, Options{Workers: 4})
	for range 10 {
		again := EvaluatePortfolio(portfolioFixture(), quotes, nil, testNow, Options{Workers: 4})
		assert.Equal(t, first, again)
	}
}

func TestSortByUrgency(t *testing.T) {
	evals := []domain.Evaluation{
		{Position: domain.Position{Symbol: "B"}, Urgency: domain.UrgencyLow},
		{Position: domain.Position{Symbol: "C"}, Urgency: domain.UrgencyCritical},
		{Position: domain.Position{Symbol: "A"}, Urgency: domain.UrgencyLow},
		{Position: domain.Position{Symbol: "D"}, Urgency: domain.UrgencyMedium},
	}
	SortByUrgency(evals)

	var got []string
	for _, e := range evals {
		got = append(got, e.Position.Symbol)
	}
	assert.Equal(t, []string{"C", "D", "A", "B"}, got)
}
