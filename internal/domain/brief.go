package domain

import "time"

// ExitAction asks to leave a position.
type ExitAction struct {
	Symbol         string         `json:"symbol"`
	PositionID     string         `json:"position_id"`
	Reason         string         `json:"reason"`
	Recommendation Recommendation `json:"recommendation"`
	Urgency        Urgency        `json:"urgency"`
}

// StopAdjustment suggests a new stop for a winning position.
type StopAdjustment struct {
	Symbol        string  `json:"symbol"`
	PositionID    string  `json:"position_id"`
	CurrentStop   float64 `json:"current_stop"`
	SuggestedStop float64 `json:"suggested_stop"`
	Reason        string  `json:"reason"`
}

// EntryAction proposes opening a new position from a ranked candidate.
type EntryAction struct {
	Symbol     string    `json:"symbol"`
	Rank       int       `json:"rank"`
	Candidate  Candidate `json:"candidate"`
	RiskReward float64   `json:"risk_reward"`
}

// HoldAction keeps a position as is.
type HoldAction struct {
	Symbol         string         `json:"symbol"`
	PositionID     string         `json:"position_id"`
	Recommendation Recommendation `json:"recommendation"`
	Note           string         `json:"note"`
}

// Advisory is a non-binding annotation, e.g. dead capital.
type Advisory struct {
	Symbol     string   `json:"symbol"`
	PositionID string   `json:"position_id"`
	Severity   Severity `json:"severity"`
	Message    string   `json:"message"`
}

// RiskChecks are the boolean guards reported with every brief.
type RiskChecks struct {
	PerTradeRisk   bool `json:"per_trade_risk"`
	TotalExposure  bool `json:"total_exposure"`
	NotOvertrading bool `json:"not_overtrading"`
}

// AllPassed reports whether every check passed.
func (r RiskChecks) AllPassed() bool {
	return r.PerTradeRisk && r.TotalExposure && r.NotOvertrading
}

// Brief is the categorised action set for one cycle.
type Brief struct {
	GeneratedAt     time.Time        `json:"generated_at"`
	Exits           []ExitAction     `json:"exits"`
	StopAdjustments []StopAdjustment `json:"stop_adjustments"`
	Entries         []EntryAction    `json:"entries"`
	Holds           []HoldAction     `json:"holds"`
	Advisories      []Advisory       `json:"advisories"`
	RiskChecks      RiskChecks       `json:"risk_checks"`
	Slots           SlotSummary      `json:"slots"`
	Summary         PortfolioSummary `json:"summary"`
}
