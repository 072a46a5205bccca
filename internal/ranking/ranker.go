// Package ranking orders scan candidates for new entries.
package ranking

import (
	"cmp"
	"math"
	"slices"
	"strings"

	"github.com/alanyoungcy/swingdesk/internal/domain"
)

// Direction of a sort key.
type Direction int

const (
	Ascending Direction = iota
	Descending
)

// Key is one level of the lexicographic comparator. With a positive Epsilon,
// values are compared on their nearest multiple of Epsilon; values in the
// same bucket are equal and fall through to the next level.
type Key struct {
	Name      string
	Extract   func(domain.Candidate) float64
	Direction Direction
	Epsilon   float64
}

// DefaultKeys is the candidate ordering: score, then closeness to
// resistance, then volatility, then structure, then freshness.
var DefaultKeys = []Key{
	{
		Name:      "score",
		Extract:   func(c domain.Candidate) float64 { return c.Score },
		Direction: Descending,
		Epsilon:   0.1,
	},
	{
		Name:      "distance_to_resistance",
		Extract:   func(c domain.Candidate) float64 { return c.DistanceToResistance },
		Direction: Ascending,
		Epsilon:   0.1,
	},
	{
		Name:      "atr_percent",
		Extract:   func(c domain.Candidate) float64 { return c.ATRPercent },
		Direction: Descending,
		Epsilon:   0.1,
	},
	{
		Name:      "structure",
		Extract:   func(c domain.Candidate) float64 { return float64(c.Structure.Strength()) },
		Direction: Descending,
	},
	{
		Name:      "updated_at",
		Extract:   func(c domain.Candidate) float64 { return float64(c.UpdatedAt.UnixMicro()) },
		Direction: Descending,
	},
}

// Comparator builds a comparison function from keys. The symbol is always the
// last level so that distinct candidates never compare equal.
func Comparator(keys []Key) func(a, b domain.Candidate) int {
	return func(a, b domain.Candidate) int {
		for _, k := range keys {
			if c := k.compare(a, b); c != 0 {
				return c
			}
		}
		return strings.Compare(a.Symbol, b.Symbol)
	}
}

func (k Key) compare(a, b domain.Candidate) int {
	va, vb := k.Extract(a), k.Extract(b)
	if k.Epsilon > 0 {
		va, vb = math.Round(va/k.Epsilon), math.Round(vb/k.Epsilon)
	}
	c := cmp.Compare(va, vb)
	if k.Direction == Descending {
		return -c
	}
	return c
}

// Rank returns a sorted copy of candidates using DefaultKeys. The input is not
// modified.
func Rank(candidates []domain.Candidate) []domain.Candidate {
	return RankBy(candidates, DefaultKeys)
}

// RankBy is Rank with a custom key chain.
func RankBy(candidates []domain.Candidate, keys []Key) []domain.Candidate {
	out := slices.Clone(candidates)
	slices.SortStableFunc(out, Comparator(keys))
	return out
}
