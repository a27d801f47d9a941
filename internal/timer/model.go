// Package timer implements the break countdown that runs in its own
// process. The model owns no persistent state: its only output is the
// process exit status, which the break manager translates back into
// the enforcement record. Interrupts are handled as ordinary messages
// in the update loop, so a refused skip simply resumes the countdown
// with nothing lost.
package timer

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/cadence-flow/cadence/internal/clock"
)

// Outcome is what the countdown ended with.
type Outcome int

const (
	// OutcomeCompleted means the countdown ran to natural expiry.
	OutcomeCompleted Outcome = iota
	// OutcomeSkipped means a policy-permitted interrupt ended it early.
	OutcomeSkipped
)

const (
	tickInterval = time.Second
	// completionPause keeps the done screen visible briefly before the
	// process exits.
	completionPause = 2 * time.Second
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	clockStyle  = lipgloss.NewStyle().Bold(true)
	noticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	doneStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	helpStyle   = lipgloss.NewStyle().Faint(true)
)

type tickMsg time.Time

type exitMsg struct{}

// Model is the bubbletea model for the countdown.
type Model struct {
	breakType string
	total     time.Duration
	skipMode  SkipMode
	clock     clock.Clock
	notifier  Notifier

	start    time.Time
	elapsed  time.Duration
	notice   string
	finished bool
	outcome  Outcome

	bar   progress.Model
	width int
}

// NewModel builds a countdown for the given break. skipMode must
// already be resolved (never type-based).
func NewModel(breakType string, total time.Duration, skipMode SkipMode, clk clock.Clock, notifier Notifier) Model {
	if clk == nil {
		clk = clock.Real()
	}
	if notifier == nil {
		notifier = DesktopNotifier{}
	}
	return Model{
		breakType: breakType,
		total:     total,
		skipMode:  skipMode,
		clock:     clk,
		notifier:  notifier,
		start:     clk.Now(),
		bar:       progress.New(progress.WithDefaultGradient()),
		width:     60,
	}
}

// Outcome reports how the countdown ended. Valid once the program has
// quit.
func (m Model) Outcome() Outcome { return m.outcome }

// Finished reports whether the countdown reached a terminal state.
func (m Model) Finished() bool { return m.finished }

// Init starts the once-per-second tick loop.
func (m Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update advances the countdown. Elapsed time is sampled from the
// injected clock against the start reading, so it stays monotonic and
// an interrupt never resets it.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = min(msg.Width-8, 60)
		return m, nil

	case tickMsg:
		if m.finished {
			return m, nil
		}
		m.elapsed = m.clock.Since(m.start)
		if m.elapsed >= m.total {
			return m.complete()
		}
		return m, tick()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "s":
			return m.interrupt()
		}
		return m, nil

	case tea.InterruptMsg:
		return m.interrupt()

	case exitMsg:
		return m, tea.Quit
	}
	return m, nil
}

// interrupt re-evaluates the skip policy at the current elapsed point.
// A refusal leaves the countdown running; the accrued time is kept
// because the next tick samples the same clock.
func (m Model) interrupt() (tea.Model, tea.Cmd) {
	if m.finished {
		return m, nil
	}
	m.elapsed = m.clock.Since(m.start)
	if m.elapsed >= m.total {
		return m.complete()
	}
	if !m.skipMode.CanSkip(m.elapsed, m.total) {
		m.notice = m.skipNotice()
		return m, nil
	}
	m.finished = true
	m.outcome = OutcomeSkipped
	return m, tea.Quit
}

func (m Model) complete() (tea.Model, tea.Cmd) {
	m.finished = true
	m.outcome = OutcomeCompleted
	m.elapsed = m.total
	// Best effort; a missing notification tool never aborts the timer.
	_ = m.notifier.Notify("Break complete", fmt.Sprintf("Your %s break is over. Back to work!", m.breakType))
	return m, tea.Tick(completionPause, func(time.Time) tea.Msg {
		return exitMsg{}
	})
}

func (m Model) skipNotice() string {
	switch m.skipMode {
	case SkipNever:
		return "This break cannot be skipped."
	case SkipAfter50:
		pct := 0.0
		if m.total > 0 {
			pct = float64(m.elapsed) / float64(m.total) * 100
		}
		return fmt.Sprintf("Skip available at 50%% — you are at %.0f%%.", pct)
	default:
		return ""
	}
}

// View renders the countdown, or the completion screen once done.
func (m Model) View() string {
	if m.finished && m.outcome == OutcomeCompleted {
		return doneStyle.Render("✓ Break complete.") + "\n" +
			helpStyle.Render("Returning you to work...") + "\n"
	}

	remaining := m.total - m.elapsed
	if remaining < 0 {
		remaining = 0
	}
	pct := 0.0
	if m.total > 0 {
		pct = float64(m.elapsed) / float64(m.total)
	}

	view := titleStyle.Render(fmt.Sprintf("%s break", titleCase(m.breakType))) + "\n\n" +
		clockStyle.Render(formatClock(remaining)) + "\n\n" +
		m.bar.ViewAs(pct) + "\n"
	if m.notice != "" {
		view += "\n" + noticeStyle.Render(m.notice) + "\n"
	}
	view += "\n" + helpStyle.Render(m.helpLine()) + "\n"
	return view
}

func (m Model) helpLine() string {
	switch m.skipMode {
	case SkipAlways:
		return "ctrl+c to skip"
	case SkipAfter50:
		return "ctrl+c to skip (after 50%)"
	default:
		return "this break cannot be skipped"
	}
}

func formatClock(d time.Duration) string {
	d = d.Round(time.Second)
	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}

func titleCase(s string) string {
	if s == "" || s[0] < 'a' || s[0] > 'z' {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}
