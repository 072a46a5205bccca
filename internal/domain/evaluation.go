package domain

import "time"

// Recommendation is the per-cycle classification of a position.
type Recommendation string

const (
	RecommendationStrongBuy  Recommendation = "STRONG_BUY"
	RecommendationBuy        Recommendation = "BUY"
	RecommendationHold       Recommendation = "HOLD"
	RecommendationSell       Recommendation = "SELL"
	RecommendationStrongSell Recommendation = "STRONG_SELL"
)

// IsExit reports whether the recommendation asks to leave the position.
func (r Recommendation) IsExit() bool {
	return r == RecommendationSell || r == RecommendationStrongSell
}

// Urgency is an ordinal tier: low < medium < high < critical.
type Urgency int

const (
	UrgencyLow Urgency = iota
	UrgencyMedium
	UrgencyHigh
	UrgencyCritical
)

var urgencyNames = [...]string{"low", "medium", "high", "critical"}

func (u Urgency) String() string {
	if u < UrgencyLow || u > UrgencyCritical {
		return "unknown"
	}
	return urgencyNames[u]
}

// MarshalText encodes the urgency by name.
func (u Urgency) MarshalText() ([]byte, error) {
	return []byte(u.String()), nil
}

// UnmarshalText decodes an urgency name.
func (u *Urgency) UnmarshalText(text []byte) error {
	for i, n := range urgencyNames {
		if n == string(text) {
			*u = Urgency(i)
			return nil
		}
	}
	return ErrInvalidUrgency
}

// Evaluation is derived every cycle from a Position and a price snapshot. It
// has no identity of its own.
type Evaluation struct {
	Position             Position       `json:"position"`
	CurrentPrice         float64        `json:"current_price"`
	PriceStale           bool           `json:"price_stale"`
	UnrealizedPnL        float64        `json:"unrealized_pnl"`
	UnrealizedPnLPercent float64        `json:"unrealized_pnl_percent"`
	ProgressToTarget     float64        `json:"progress_to_target"`
	ProgressToStop       float64        `json:"progress_to_stop"`
	DaysHeld             int            `json:"days_held"`
	DaysToDeadline       int            `json:"days_to_deadline"`
	Recommendation       Recommendation `json:"recommendation"`
	Urgency              Urgency        `json:"urgency"`
	Reasons              []string       `json:"reasons"`
	Warnings             []string       `json:"warnings"`
	DeadCapital          *DeadCapital   `json:"dead_capital,omitempty"`
}

// Severity grades a dead-capital advisory.
type Severity string

const (
	SeverityNone     Severity = "none"
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// DeadCapital is the advisory output of the dead-capital detector.
type DeadCapital struct {
	IsDeadCapital  bool     `json:"is_dead_capital"`
	TimeProgress   float64  `json:"time_progress"`
	PriceProgress  float64  `json:"price_progress"`
	DaysElapsed    int      `json:"days_elapsed"`
	DaysRemaining  int      `json:"days_remaining"`
	Severity       Severity `json:"severity"`
	Recommendation string   `json:"recommendation"`
}

// RecommendationCounts tallies evaluations per recommendation.
type RecommendationCounts struct {
	StrongBuy  int `json:"strong_buy"`
	Buy        int `json:"buy"`
	Hold       int `json:"hold"`
	Sell       int `json:"sell"`
	StrongSell int `json:"strong_sell"`
}

// PortfolioSummary aggregates one evaluation pass.
type PortfolioSummary struct {
	TotalInvested        float64              `json:"total_invested"`
	CurrentValue         float64              `json:"current_value"`
	UnrealizedPnL        float64              `json:"unrealized_pnl"`
	UnrealizedPnLPercent float64              `json:"unrealized_pnl_percent"`
	ActivePositions      int                  `json:"active_positions"`
	ClosedPositions      int                  `json:"closed_positions"`
	WinRate              float64              `json:"win_rate"`
	AtTarget             int                  `json:"at_target"`
	AtRisk               int                  `json:"at_risk"`
	Overdue              int                  `json:"overdue"`
	StalePrices          int                  `json:"stale_prices"`
	Recommendations      RecommendationCounts `json:"recommendations"`
	TopPriority          string               `json:"top_priority,omitempty"`
	// ByPortfolio breaks the active totals down by PortfolioID. Positions
	// without one are grouped under DefaultPortfolio.
	ByPortfolio map[string]PortfolioTotals `json:"by_portfolio,omitempty"`
	AsOf        time.Time                  `json:"as_of"`
}

// DefaultPortfolio is the grouping key for positions with no PortfolioID.
const DefaultPortfolio = "default"

// PortfolioTotals are the active-position totals of one portfolio.
type PortfolioTotals struct {
	ActivePositions int     `json:"active_positions"`
	TotalInvested   float64 `json:"total_invested"`
	CurrentValue    float64 `json:"current_value"`
	UnrealizedPnL   float64 `json:"unrealized_pnl"`
}
