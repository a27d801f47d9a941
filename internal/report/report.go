// Package report aggregates the archived session and break records for
// a period into a compliance summary. Read-only: it never touches the
// enforcement state and makes no external calls.
package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/cadence-flow/cadence/internal/archive"
)

// Thresholds for the qualitative feedback lines.
const (
	lowComplianceThreshold  = 0.50
	goodComplianceThreshold = 0.80
)

// Summary is the aggregated view of one month.
type Summary struct {
	Month          archive.Month
	WorkSessions   int
	EarlyStops     int
	WorkSeconds    int
	BreaksTaken    int
	BreaksComplete int
	BreakSeconds   int

	// ComplianceRate = breaks taken / work sessions (capped at 1).
	ComplianceRate float64
	// CompletionRate = breaks fully completed / breaks taken.
	CompletionRate float64
}

// Aggregate computes the summary over one month's records.
func Aggregate(month archive.Month, work []archive.WorkRecord, breaks []archive.BreakRecord) Summary {
	summary := Summary{Month: month}
	for _, record := range work {
		summary.WorkSessions++
		summary.WorkSeconds += record.Duration
		if record.EarlyStop {
			summary.EarlyStops++
		}
	}
	for _, record := range breaks {
		summary.BreaksTaken++
		summary.BreakSeconds += record.Duration
		if record.CompletedFully {
			summary.BreaksComplete++
		}
	}
	if summary.WorkSessions > 0 {
		summary.ComplianceRate = float64(summary.BreaksTaken) / float64(summary.WorkSessions)
		if summary.ComplianceRate > 1 {
			summary.ComplianceRate = 1
		}
	}
	if summary.BreaksTaken > 0 {
		summary.CompletionRate = float64(summary.BreaksComplete) / float64(summary.BreaksTaken)
	}
	return summary
}

// Feedback returns the qualitative lines for the summary.
func (s Summary) Feedback() []string {
	var lines []string
	if s.WorkSessions == 0 {
		return []string{"No work sessions recorded this period."}
	}
	switch {
	case s.ComplianceRate < lowComplianceThreshold:
		lines = append(lines,
			"Fewer than half of your sessions were followed by a break.",
			"Consider enabling blocking mode (enforcement.blocking_enabled) to make breaks stick.")
	case s.ComplianceRate < goodComplianceThreshold:
		lines = append(lines, "Break compliance is improving; aim for a break after every session.")
	default:
		lines = append(lines, "Solid break compliance. Keep it up.")
	}
	if s.BreaksTaken > 0 && s.CompletionRate < lowComplianceThreshold {
		lines = append(lines, "Most breaks were cut short; a shorter configured break you finish beats a long one you skip.")
	}
	return lines
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	labelStyle  = lipgloss.NewStyle().Width(22)
	valueStyle  = lipgloss.NewStyle().Bold(true)
	hintStyle   = lipgloss.NewStyle().Faint(true)
)

// Render formats the summary for the terminal.
func Render(s Summary) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("Compliance report — %s", s.Month)))
	b.WriteString("\n\n")

	row := func(label, value string) {
		b.WriteString(labelStyle.Render(label))
		b.WriteString(valueStyle.Render(value))
		b.WriteString("\n")
	}
	row("Work sessions", fmt.Sprintf("%d (%s focused)", s.WorkSessions, formatHours(s.WorkSeconds)))
	row("Early stops", fmt.Sprintf("%d", s.EarlyStops))
	row("Breaks taken", fmt.Sprintf("%d (%s resting)", s.BreaksTaken, formatHours(s.BreakSeconds)))
	row("Breaks completed", fmt.Sprintf("%d", s.BreaksComplete))
	row("Compliance rate", formatPercent(s.ComplianceRate))
	row("Completion rate", formatPercent(s.CompletionRate))

	b.WriteString("\n")
	for _, line := range s.Feedback() {
		b.WriteString(hintStyle.Render("• " + line))
		b.WriteString("\n")
	}
	return b.String()
}

func formatPercent(ratio float64) string {
	return fmt.Sprintf("%.0f%%", ratio*100)
}

func formatHours(seconds int) string {
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	if hours == 0 {
		return fmt.Sprintf("%dm", minutes)
	}
	return fmt.Sprintf("%dh%02dm", hours, minutes)
}
