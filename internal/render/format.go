package render

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/pulseline/pulseline/internal/metrics"
)

// Placeholder returns the neutral value shown for a category with no
// usable cache entry.
func Placeholder(cat metrics.Category) string {
	switch cat {
	case metrics.CategoryCost:
		return "$0.00"
	case metrics.CategoryContext:
		return "ctx —"
	case metrics.CategoryLimits:
		return "ses 0% wk 0%"
	default:
		return "—"
	}
}

// FormatPayload renders one payload as a status line segment.
func FormatPayload(p metrics.Payload, noColor bool) (string, error) {
	switch v := p.(type) {
	case metrics.CostPayload:
		return Money(v.TodayUSD), nil
	case metrics.ContextPayload:
		return "ctx " + colorPct(v.UsedPct, noColor), nil
	case metrics.LimitsPayload:
		seg := "ses " + colorPct(v.SessionPct, noColor) + " wk " + colorPct(v.WeekPct, noColor)
		if reset := FormatResetCountdown(v.SessionResetsAt); reset != "" {
			seg += " (" + reset + ")"
		}
		return seg, nil
	default:
		return "", fmt.Errorf("no formatter for category %q", p.Category())
	}
}

// Money formats a dollar amount as the status line shows it.
func Money(usd float64) string {
	return fmt.Sprintf("$%.2f", usd)
}

// FormatResetCountdown formats time-until-reset as a compact countdown
// (e.g. "2h 5m", "42m"). Nil or past timestamps render empty.
func FormatResetCountdown(resetsAt *time.Time) string {
	if resetsAt == nil {
		return ""
	}
	total := int(time.Until(*resetsAt).Seconds())
	if total <= 0 {
		return ""
	}
	hours := total / 3600
	minutes := (total % 3600) / 60
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}

var (
	greenStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	yellowStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	redStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

// colorPct renders a utilization percentage, colored by how close it is
// to exhaustion unless color is disabled.
func colorPct(pct int, noColor bool) string {
	text := fmt.Sprintf("%d%%", pct)
	if noColor {
		return text
	}
	return utilizationStyle(pct).Render(text)
}

func utilizationStyle(pct int) lipgloss.Style {
	switch {
	case pct < 50:
		return greenStyle
	case pct < 80:
		return yellowStyle
	default:
		return redStyle
	}
}
