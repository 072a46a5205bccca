package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/swingdesk/internal/config"
	"github.com/alanyoungcy/swingdesk/internal/domain"
	"github.com/alanyoungcy/swingdesk/internal/service"
)

func TestCycleConfigFrom(t *testing.T) {
	cfg := config.Defaults()
	cfg.Brief.AccountSize = 50000
	cfg.Evaluation.Workers = 3

	cc, err := CycleConfigFrom(&cfg)
	require.NoError(t, err)
	assert.Equal(t, 5, cc.Slots.TotalCapacity)
	assert.Equal(t, 3, cc.Slots.Quotas[domain.CategoryTrend])
	assert.Equal(t, 2, cc.Slots.Quotas[domain.CategoryAsym])
	assert.Equal(t, 50000.0, cc.Brief.AccountSize)
	assert.Equal(t, 2, cc.Brief.MaxEntriesPerDay)
	assert.Equal(t, 3, cc.Evaluation.Workers)
	assert.Equal(t, 72*time.Hour, cc.Evaluation.StaleAfter)
	assert.Equal(t, 5*time.Minute, cc.LockTTL)
	assert.Equal(t, time.UTC, cc.Location)
}

func TestCycleConfigFrom_DefaultsAgree(t *testing.T) {
	cfg := config.Defaults()
	cc, err := CycleConfigFrom(&cfg)
	require.NoError(t, err)
	assert.Equal(t, service.DefaultCycleConfig(), cc)
}

func TestCycleConfigFrom_BadTimezone(t *testing.T) {
	cfg := config.Defaults()
	cfg.Cycle.Timezone = "Nowhere/Special"
	_, err := CycleConfigFrom(&cfg)
	assert.ErrorContains(t, err, "cycle timezone")
}

func TestSlotConfigFrom_NormalizesNames(t *testing.T) {
	cfg := config.Defaults()
	cfg.Slots.Quotas = map[string]int{" Trend ": 4, "ASYM": 1}

	sc := SlotConfigFrom(&cfg)
	assert.Equal(t, map[domain.Category]int{domain.CategoryTrend: 4, domain.CategoryAsym: 1}, sc.Quotas)
}

func TestPriceConfigFrom(t *testing.T) {
	cfg := config.Defaults()
	cfg.Prices.BreakerFailures = 0

	pc := PriceConfigFrom(&cfg)
	assert.Equal(t, 3, pc.MaxAttempts)
	assert.Equal(t, 200*time.Millisecond, pc.Backoff)
	assert.Equal(t, uint32(1), pc.BreakerFailures)
	assert.Equal(t, 30*time.Second, pc.BreakerCooldown)
}
