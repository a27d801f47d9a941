// Package enforcement models the persisted work/break enforcement state
// machine. The State record is the only entity in the system mutated in
// place; every mutation goes through the transition methods here, and
// every byte that reaches disk goes through the statestore.
package enforcement

import "time"

// BreakType classifies the break obligation attached to the state.
type BreakType string

const (
	BreakNone  BreakType = "none"
	BreakShort BreakType = "short"
	BreakLong  BreakType = "long"
)

// Phase enumerates the coarse states of the enforcement machine.
type Phase string

const (
	PhaseIdle         Phase = "idle"
	PhaseWorking      Phase = "working"
	PhaseBreakPending Phase = "break_pending"
	PhaseOnBreak      Phase = "on_break"
)

// State is the single persisted enforcement record, one per machine.
//
// Invariant: BreakRequired == true implies BreakTypeRequired != none.
// The transition methods maintain it; Validate checks it on load.
type State struct {
	Phase             Phase     `json:"phase"`
	Project           string    `json:"project,omitempty"`
	Violations        uint      `json:"violations"`
	BreakRequired     bool      `json:"break_required"`
	BreakTypeRequired BreakType `json:"break_type_required"`
	PomodoroCount     int       `json:"pomodoro_count"`
	LastSessionEnd    time.Time `json:"last_session_end,omitempty"`
	LastBreakEnd      time.Time `json:"last_break_end,omitempty"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// NewState returns the initial state for a machine that has never run
// a session.
func NewState() State {
	return State{
		Phase:             PhaseIdle,
		BreakTypeRequired: BreakNone,
	}
}

// Validate reports whether the record satisfies the machine invariants.
// Called after every load so a hand-edited file fails loudly instead of
// driving the policy layer with nonsense.
func (s State) Validate() error {
	switch s.Phase {
	case PhaseIdle, PhaseWorking, PhaseBreakPending, PhaseOnBreak:
	case "":
		// Zero value from a pre-phase state file; treated as idle.
	default:
		return &StateConflictError{Op: "load", Reason: "unknown phase " + string(s.Phase)}
	}
	if s.BreakRequired && s.BreakTypeRequired == BreakNone {
		return &StateConflictError{Op: "load", Reason: "break required but no break type recorded"}
	}
	if !s.BreakRequired && s.BreakTypeRequired != BreakNone && s.BreakTypeRequired != "" {
		return &StateConflictError{Op: "load", Reason: "break type recorded without a pending break"}
	}
	return nil
}

// BeginWork transitions Idle -> Working, binding the session project.
// A pending break obligation blocks the transition.
func (s *State) BeginWork(project string, now time.Time) error {
	if s.BreakRequired {
		return &BreakRequiredError{Type: s.BreakTypeRequired}
	}
	if s.Phase == PhaseWorking {
		return &StateConflictError{Op: "start", Reason: "a work session is already active"}
	}
	if s.Phase == PhaseOnBreak {
		return &StateConflictError{Op: "start", Reason: "a break is in progress"}
	}
	s.Phase = PhaseWorking
	s.Project = project
	s.UpdatedAt = now
	return nil
}

// EndWork transitions Working -> BreakPending, records the obligation,
// and bumps the pomodoro counter. Every sessionsPerLongth session owes
// a long break; the rest owe short ones.
func (s *State) EndWork(now time.Time, sessionsPerLong int) error {
	if s.Phase != PhaseWorking {
		return &StateConflictError{Op: "stop", Reason: "no work session is active"}
	}
	if sessionsPerLong < 1 {
		sessionsPerLong = 4
	}
	s.PomodoroCount++
	s.Phase = PhaseBreakPending
	s.BreakRequired = true
	if s.PomodoroCount%sessionsPerLong == 0 {
		s.BreakTypeRequired = BreakLong
	} else {
		s.BreakTypeRequired = BreakShort
	}
	s.Project = ""
	s.LastSessionEnd = now
	s.UpdatedAt = now
	return nil
}

// BeginBreak transitions into OnBreak. Starting a break with no pending
// obligation is allowed (the caller decides whether to warn); starting
// one during an active work session or another break is not.
func (s *State) BeginBreak(now time.Time) error {
	switch s.Phase {
	case PhaseWorking:
		return &StateConflictError{Op: "break", Reason: "stop the work session before taking a break"}
	case PhaseOnBreak:
		return &StateConflictError{Op: "break", Reason: "a break is already in progress"}
	}
	s.Phase = PhaseOnBreak
	s.UpdatedAt = now
	return nil
}

// EndBreak finalizes a break. A fully completed break clears the
// obligation and returns the machine to Idle; a partial one leaves the
// obligation pending.
func (s *State) EndBreak(completedFully bool, now time.Time) error {
	if s.Phase != PhaseOnBreak {
		return &StateConflictError{Op: "break", Reason: "no break is in progress"}
	}
	s.LastBreakEnd = now
	s.UpdatedAt = now
	if completedFully {
		s.Phase = PhaseIdle
		s.BreakRequired = false
		s.BreakTypeRequired = BreakNone
		return nil
	}
	if s.BreakRequired {
		s.Phase = PhaseBreakPending
	} else {
		// Unscheduled break cut short; nothing was owed.
		s.Phase = PhaseIdle
	}
	return nil
}

// RecordViolation bumps the violation counter on a disallowed or
// warned-about project switch.
func (s *State) RecordViolation(now time.Time) {
	s.Violations++
	s.UpdatedAt = now
}
