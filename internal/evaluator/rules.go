package evaluator

import (
	"fmt"
	"math"
	"time"

	"github.com/alanyoungcy/swingdesk/internal/domain"
)

// facts are the numbers every rule and annotation reads. They are computed
// once per evaluation and never mutated by rules.
type facts struct {
	price            float64
	stop             float64
	pnlPercent       float64
	progressToTarget float64
	progressToStop   float64
	daysHeld         int
	daysToDeadline   int
	stale            bool
	profile          *domain.Profile
	now              time.Time
}

// verdict is the outcome of the rule pass.
type verdict struct {
	recommendation domain.Recommendation
	urgency        domain.Urgency
	reasons        []string
	warnings       []string
}

// raise escalates urgency. It never lowers it.
func (v *verdict) raise(u domain.Urgency) {
	if u > v.urgency {
		v.urgency = u
	}
}

func (v *verdict) warn(format string, args ...any) {
	v.warnings = append(v.warnings, fmt.Sprintf(format, args...))
}

// rule is one row of the recommendation table. The first rule whose match
// returns true decides the recommendation.
type rule struct {
	name   string
	match  func(f facts) bool
	decide func(f facts) verdict
}

// recommendationRules is ordered: exits pre-empt holds and buys, and a
// reached target pre-empts a touched stop band.
var recommendationRules = []rule{
	{
		name:  "target_reached",
		match: func(f facts) bool { return f.progressToTarget >= 100 },
		decide: func(f facts) verdict {
			return verdict{
				recommendation: domain.RecommendationStrongSell,
				urgency:        domain.UrgencyHigh,
				reasons:        []string{fmt.Sprintf("target reached, up %.1f%%", f.pnlPercent)},
			}
		},
	},
	{
		name:  "near_target",
		match: func(f facts) bool { return f.progressToTarget >= 80 },
		decide: func(f facts) verdict {
			return verdict{
				recommendation: domain.RecommendationSell,
				urgency:        domain.UrgencyMedium,
				reasons:        []string{fmt.Sprintf("near target (%.0f%%), consider taking profit", f.progressToTarget)},
			}
		},
	},
	{
		name:  "stop_triggered",
		match: func(f facts) bool { return f.price <= f.stop },
		decide: func(f facts) verdict {
			return verdict{
				recommendation: domain.RecommendationStrongSell,
				urgency:        domain.UrgencyCritical,
				reasons:        []string{"stop triggered, exit immediately"},
			}
		},
	},
	{
		name:  "approaching_stop",
		match: func(f facts) bool { return f.progressToStop >= 60 },
		decide: func(f facts) verdict {
			return verdict{
				recommendation: domain.RecommendationSell,
				urgency:        domain.UrgencyHigh,
				reasons:        []string{fmt.Sprintf("approaching stop (%.0f%% of the way down)", f.progressToStop)},
				warnings:       []string{"consider cutting the loss before the stop"},
			}
		},
	},
	{
		name:  "past_horizon",
		match: func(f facts) bool { return f.daysToDeadline < 0 },
		decide: func(f facts) verdict {
			return verdict{
				recommendation: domain.RecommendationSell,
				urgency:        domain.UrgencyMedium,
				reasons:        []string{fmt.Sprintf("past time horizon by %d days", -f.daysToDeadline)},
				warnings:       []string{"dead capital: money tied up too long"},
			}
		},
	},
	{
		name:  "making_progress",
		match: func(f facts) bool { return f.progressToTarget >= 30 && f.progressToTarget < 80 },
		decide: func(f facts) verdict {
			v := verdict{
				recommendation: domain.RecommendationHold,
				urgency:        domain.UrgencyLow,
				reasons:        []string{fmt.Sprintf("making progress (%.0f%% to target)", f.progressToTarget)},
			}
			if f.daysToDeadline < 7 {
				v.warn("only %d days left of the time horizon", f.daysToDeadline)
				v.raise(domain.UrgencyMedium)
			}
			return v
		},
	},
	{
		name:  "stable",
		match: func(f facts) bool { return f.pnlPercent > -5 && f.progressToStop < 30 },
		decide: func(f facts) verdict {
			return verdict{
				recommendation: domain.RecommendationHold,
				urgency:        domain.UrgencyLow,
				reasons:        []string{"stable, no signal"},
			}
		},
	},
	{
		name: "momentum_add",
		match: func(f facts) bool {
			return f.profile != nil && f.pnlPercent > 5 && f.profile.Return1M > 0
		},
		decide: func(f facts) verdict {
			return verdict{
				recommendation: domain.RecommendationBuy,
				urgency:        domain.UrgencyLow,
				reasons:        []string{"strong momentum, consider increasing position"},
			}
		},
	},
	{
		name:  "fallback",
		match: func(facts) bool { return true },
		decide: func(facts) verdict {
			return verdict{recommendation: domain.RecommendationHold, urgency: domain.UrgencyLow}
		},
	},
}

// annotation runs after the rule pass regardless of which rule matched.
type annotation struct {
	name  string
	apply func(f facts, v *verdict)
}

var annotations = []annotation{
	{
		name: "stagnation",
		apply: func(f facts, v *verdict) {
			if f.daysHeld > 30 && f.progressToTarget < 20 {
				v.warn("held %d days without meaningful progress", f.daysHeld)
				v.raise(domain.UrgencyMedium)
			}
		},
	},
	{
		name: "deadline",
		apply: func(f facts, v *verdict) {
			if f.daysToDeadline > 0 && f.daysToDeadline < 5 && f.progressToTarget < 50 {
				v.warn("deadline approaching, only %d days left", f.daysToDeadline)
				v.raise(domain.UrgencyMedium)
			}
		},
	},
	{
		name: "seasonal",
		apply: func(f facts, v *verdict) {
			if f.profile == nil {
				return
			}
			month := f.now.Month()
			for _, m := range f.profile.WeakMonths {
				if m == month {
					v.warn("%s is historically a weak month for this instrument", month)
					return
				}
			}
		},
	},
	{
		name: "weak_momentum",
		apply: func(f facts, v *verdict) {
			if f.profile != nil && f.profile.Return1M < -10 {
				v.warn("weak momentum last month (%.1f%%)", f.profile.Return1M)
			}
		},
	},
	{
		name: "stale_price",
		apply: func(f facts, v *verdict) {
			if f.stale {
				v.warn("price is stale, evaluated at last known %.2f", f.price)
			}
		},
	},
}

// decide runs the rule table and then every annotation.
func decide(f facts) verdict {
	var v verdict
	for _, r := range recommendationRules {
		if r.match(f) {
			v = r.decide(f)
			break
		}
	}
	for _, a := range annotations {
		a.apply(f, &v)
	}
	return v
}

// wholeDays floors a duration to whole days, towards negative infinity.
func wholeDays(d time.Duration) int {
	return int(math.Floor(d.Hours() / 24))
}
