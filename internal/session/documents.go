// Package session implements the work and break session managers. They
// are the only writers of the enforcement record: the work manager owns
// it while a session is active, the break manager while a break is.
package session

import "time"

const (
	workSessionDoc  = "work-session.json"
	breakSessionDoc = "break-session.json"
)

// earlyStopRatio is the fraction of the planned duration under which a
// stop counts as early (for work) or a break as not fully completed.
// Exactly 0.8 is not early, and exactly 0.8 is fully completed.
const earlyStopRatio = 0.8

// WorkSession is the transient document for the active work session.
// While it exists it is the sole source of truth for "a session is
// running".
type WorkSession struct {
	StartTime       time.Time `json:"start_time"`
	Goal            string    `json:"goal,omitempty"`
	Project         string    `json:"project,omitempty"`
	PomodoroCount   int       `json:"pomodoro_count"`
	PlannedDuration int       `json:"planned_duration_seconds"`
}

// BreakSession is the transient document for the active break.
type BreakSession struct {
	StartTime       time.Time `json:"start_time"`
	Type            string    `json:"type"`
	PlannedDuration int       `json:"planned_duration_seconds"`
	Scheduled       bool      `json:"scheduled"`
}

// isEarlyStop reports whether duration falls short of 80% of planned.
func isEarlyStop(duration, planned int) bool {
	return float64(duration) < earlyStopRatio*float64(planned)
}

// isCompletedFully reports whether duration reached 80% of planned.
func isCompletedFully(duration, planned int) bool {
	return float64(duration) >= earlyStopRatio*float64(planned)
}
