package domain

// SlotConfig is the fixed slot budget.
type SlotConfig struct {
	TotalCapacity int              `json:"total_capacity"`
	Quotas        map[Category]int `json:"quotas"`
}

// CategoryOccupancy is the derived view of one category.
type CategoryOccupancy struct {
	Category  Category `json:"category"`
	Quota     int      `json:"quota"`
	Occupied  int      `json:"occupied"`
	Open      int      `json:"open"`
	OverQuota bool     `json:"over_quota"`
	Unquoted  bool     `json:"unquoted,omitempty"`
}

// SlotSummary is recomputed from the active position set every cycle.
type SlotSummary struct {
	TotalCapacity int                 `json:"total_capacity"`
	ActiveCount   int                 `json:"active_count"`
	OpenSlots     int                 `json:"open_slots"`
	PerCategory   []CategoryOccupancy `json:"per_category"`
}

// Overcommitted reports whether active positions exceed the total capacity or
// any category quota.
func (s SlotSummary) Overcommitted() bool {
	if s.ActiveCount > s.TotalCapacity {
		return true
	}
	for _, c := range s.PerCategory {
		if c.OverQuota {
			return true
		}
	}
	return false
}

// Category returns the occupancy row for c.
func (s SlotSummary) Category(c Category) (CategoryOccupancy, bool) {
	for _, row := range s.PerCategory {
		if row.Category == c {
			return row, true
		}
	}
	return CategoryOccupancy{}, false
}

// HasRoom reports whether a new position in category c fits both the total
// capacity and the category quota. Unquoted categories are bounded only by
// the total.
func (s SlotSummary) HasRoom(c Category) bool {
	if s.OpenSlots <= 0 {
		return false
	}
	row, ok := s.Category(c)
	if !ok || row.Unquoted {
		return true
	}
	return row.Open > 0
}
