package brief

import (
	"fmt"
	"strings"

	"github.com/alanyoungcy/swingdesk/internal/domain"
)

// Render formats b as a markdown document. Empty sections are omitted.
func Render(b domain.Brief) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Daily brief %s\n\n", b.GeneratedAt.Format("2006-01-02"))

	if len(b.Exits) > 0 {
		sb.WriteString("## EXIT\n")
		for _, x := range b.Exits {
			fmt.Fprintf(&sb, "- [%s] %s (%s): %s\n", x.Recommendation, x.Symbol, x.Urgency, x.Reason)
		}
		sb.WriteString("\n")
	}
	if len(b.StopAdjustments) > 0 {
		sb.WriteString("## MOVE_STOP\n")
		for _, s := range b.StopAdjustments {
			fmt.Fprintf(&sb, "- %s: %.2f -> %.2f, %s\n", s.Symbol, s.CurrentStop, s.SuggestedStop, s.Reason)
		}
		sb.WriteString("\n")
	}
	if len(b.Entries) > 0 {
		sb.WriteString("## ENTER\n")
		for _, e := range b.Entries {
			fmt.Fprintf(&sb, "- #%d %s score %.0f", e.Rank, e.Symbol, e.Candidate.Score)
			if e.RiskReward > 0 {
				fmt.Fprintf(&sb, ", R/R %.1f", e.RiskReward)
			}
			if e.Candidate.ScenarioHint != "" {
				fmt.Fprintf(&sb, ", %s", e.Candidate.ScenarioHint)
			}
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}
	if len(b.Holds) > 0 {
		sb.WriteString("## HOLD\n")
		for _, h := range b.Holds {
			fmt.Fprintf(&sb, "- %s: %s\n", h.Symbol, h.Note)
		}
		sb.WriteString("\n")
	}
	if len(b.Advisories) > 0 {
		sb.WriteString("## ADVISORIES\n")
		for _, a := range b.Advisories {
			fmt.Fprintf(&sb, "- [%s] %s: %s\n", a.Severity, a.Symbol, a.Message)
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## RISK\n")
	fmt.Fprintf(&sb, "- per-trade risk: %s\n", passFail(b.RiskChecks.PerTradeRisk))
	fmt.Fprintf(&sb, "- total exposure: %s\n", passFail(b.RiskChecks.TotalExposure))
	fmt.Fprintf(&sb, "- not overtrading: %s\n", passFail(b.RiskChecks.NotOvertrading))
	sb.WriteString("\n")

	sb.WriteString("## CAPACITY\n")
	fmt.Fprintf(&sb, "- %d/%d slots used, %d open\n", b.Slots.ActiveCount, b.Slots.TotalCapacity, b.Slots.OpenSlots)
	for _, row := range b.Slots.PerCategory {
		if row.Unquoted {
			fmt.Fprintf(&sb, "- %s: %d (no quota)\n", row.Category, row.Occupied)
			continue
		}
		fmt.Fprintf(&sb, "- %s: %d/%d", row.Category, row.Occupied, row.Quota)
		if row.OverQuota {
			sb.WriteString(" OVER QUOTA")
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func passFail(ok bool) string {
	if ok {
		return "ok"
	}
	return "FAIL"
}
