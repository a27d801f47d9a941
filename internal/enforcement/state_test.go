package enforcement

import (
	"errors"
	"testing"
	"time"
)

var t0 = time.Date(2026, 8, 25, 9, 0, 0, 0, time.UTC)

func TestWorkBreakCycleEndsIdle(t *testing.T) {
	state := NewState()
	if err := state.BeginWork("cadence", t0); err != nil {
		t.Fatalf("begin work: %v", err)
	}
	if state.Phase != PhaseWorking || state.Project != "cadence" {
		t.Fatalf("after begin: phase=%s project=%q", state.Phase, state.Project)
	}
	if err := state.EndWork(t0.Add(25*time.Minute), 4); err != nil {
		t.Fatalf("end work: %v", err)
	}
	if state.Phase != PhaseBreakPending || !state.BreakRequired || state.BreakTypeRequired != BreakShort {
		t.Fatalf("after end: phase=%s required=%t type=%s", state.Phase, state.BreakRequired, state.BreakTypeRequired)
	}
	if err := state.BeginBreak(t0.Add(26 * time.Minute)); err != nil {
		t.Fatalf("begin break: %v", err)
	}
	if err := state.EndBreak(true, t0.Add(31*time.Minute)); err != nil {
		t.Fatalf("end break: %v", err)
	}
	if state.Phase != PhaseIdle || state.BreakRequired || state.BreakTypeRequired != BreakNone {
		t.Fatalf("after full break: phase=%s required=%t type=%s", state.Phase, state.BreakRequired, state.BreakTypeRequired)
	}
	if err := state.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestPartialBreakKeepsObligation(t *testing.T) {
	state := NewState()
	if err := state.BeginWork("cadence", t0); err != nil {
		t.Fatalf("begin work: %v", err)
	}
	if err := state.EndWork(t0.Add(time.Hour), 4); err != nil {
		t.Fatalf("end work: %v", err)
	}
	if err := state.BeginBreak(t0.Add(61 * time.Minute)); err != nil {
		t.Fatalf("begin break: %v", err)
	}
	if err := state.EndBreak(false, t0.Add(62*time.Minute)); err != nil {
		t.Fatalf("end break: %v", err)
	}
	if state.Phase != PhaseBreakPending || !state.BreakRequired {
		t.Fatalf("partial break cleared the obligation: phase=%s required=%t", state.Phase, state.BreakRequired)
	}
}

func TestEveryFourthSessionOwesLongBreak(t *testing.T) {
	state := NewState()
	for i := 1; i <= 4; i++ {
		if err := state.BeginWork("p", t0); err != nil {
			t.Fatalf("session %d begin: %v", i, err)
		}
		if err := state.EndWork(t0, 4); err != nil {
			t.Fatalf("session %d end: %v", i, err)
		}
		want := BreakShort
		if i == 4 {
			want = BreakLong
		}
		if state.BreakTypeRequired != want {
			t.Fatalf("session %d: break type = %s, want %s", i, state.BreakTypeRequired, want)
		}
		if err := state.BeginBreak(t0); err != nil {
			t.Fatalf("session %d break: %v", i, err)
		}
		if err := state.EndBreak(true, t0); err != nil {
			t.Fatalf("session %d break end: %v", i, err)
		}
	}
	if state.PomodoroCount != 4 {
		t.Fatalf("pomodoro count = %d, want 4", state.PomodoroCount)
	}
}

func TestBeginWorkBlockedWhileBreakPending(t *testing.T) {
	state := NewState()
	state.BeginWork("p", t0)
	state.EndWork(t0, 4)

	err := state.BeginWork("p", t0)
	var breakErr *BreakRequiredError
	if !errors.As(err, &breakErr) {
		t.Fatalf("begin work during pending break: err = %v, want BreakRequiredError", err)
	}
	if breakErr.Type != BreakShort {
		t.Fatalf("required type = %s, want short", breakErr.Type)
	}
}

func TestStopWithoutSessionIsConflict(t *testing.T) {
	state := NewState()
	err := state.EndWork(t0, 4)
	var conflict *StateConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("end work on idle: err = %v, want StateConflictError", err)
	}
}

func TestUnscheduledPartialBreakReturnsIdle(t *testing.T) {
	state := NewState()
	if err := state.BeginBreak(t0); err != nil {
		t.Fatalf("begin break: %v", err)
	}
	if err := state.EndBreak(false, t0.Add(time.Minute)); err != nil {
		t.Fatalf("end break: %v", err)
	}
	if state.Phase != PhaseIdle {
		t.Fatalf("phase = %s, want idle (nothing was owed)", state.Phase)
	}
}

func TestValidateRejectsInconsistentObligation(t *testing.T) {
	state := State{Phase: PhaseBreakPending, BreakRequired: true, BreakTypeRequired: BreakNone}
	if err := state.Validate(); err == nil {
		t.Fatal("validate accepted break_required with no break type")
	}
	state = State{Phase: PhaseIdle, BreakRequired: false, BreakTypeRequired: BreakLong}
	if err := state.Validate(); err == nil {
		t.Fatal("validate accepted a break type with no pending break")
	}
}
