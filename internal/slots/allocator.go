// Package slots derives slot occupancy from the active position set.
package slots

import (
	"slices"

	"github.com/alanyoungcy/swingdesk/internal/domain"
)

// DefaultConfig is five slots split three trend and two asymmetric.
func DefaultConfig() domain.SlotConfig {
	return domain.SlotConfig{
		TotalCapacity: 5,
		Quotas: map[domain.Category]int{
			domain.CategoryTrend: 3,
			domain.CategoryAsym:  2,
		},
	}
}

// Allocate counts ACTIVE positions against cfg. It never rejects and never
// reserves; an over-committed book is reported, not corrected.
func Allocate(positions []domain.Position, cfg domain.SlotConfig) domain.SlotSummary {
	occupied := make(map[domain.Category]int)
	active := 0
	for _, p := range positions {
		if !p.IsActive() {
			continue
		}
		active++
		occupied[p.Category]++
	}

	out := domain.SlotSummary{
		TotalCapacity: cfg.TotalCapacity,
		ActiveCount:   active,
		OpenSlots:     max(0, cfg.TotalCapacity-active),
		PerCategory:   make([]domain.CategoryOccupancy, 0, len(cfg.Quotas)+len(occupied)),
	}

	quoted := make([]domain.Category, 0, len(cfg.Quotas))
	for c := range cfg.Quotas {
		quoted = append(quoted, c)
	}
	slices.Sort(quoted)
	for _, c := range quoted {
		quota := cfg.Quotas[c]
		n := occupied[c]
		out.PerCategory = append(out.PerCategory, domain.CategoryOccupancy{
			Category:  c,
			Quota:     quota,
			Occupied:  n,
			Open:      max(0, quota-n),
			OverQuota: n > quota,
		})
	}

	var unquoted []domain.Category
	for c := range occupied {
		if _, ok := cfg.Quotas[c]; !ok {
			unquoted = append(unquoted, c)
		}
	}
	slices.Sort(unquoted)
	for _, c := range unquoted {
		out.PerCategory = append(out.PerCategory, domain.CategoryOccupancy{
			Category: c,
			Occupied: occupied[c],
			Unquoted: true,
		})
	}
	return out
}
