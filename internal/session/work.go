package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/cadence-flow/cadence/internal/archive"
	"github.com/cadence-flow/cadence/internal/clock"
	"github.com/cadence-flow/cadence/internal/config"
	"github.com/cadence-flow/cadence/internal/enforcement"
	"github.com/cadence-flow/cadence/internal/logbook"
	"github.com/cadence-flow/cadence/internal/logging"
	"github.com/cadence-flow/cadence/internal/statestore"
)

// ErrStopCancelled is returned when the user declines the early-stop
// confirmation. The session keeps running.
var ErrStopCancelled = errors.New("session: stop cancelled")

// WorkManager starts and stops work sessions.
type WorkManager struct {
	store    *statestore.Store
	archive  *archive.Archive
	audit    *logbook.Logbook
	log      *logging.Logger
	clock    clock.Clock
	prompter Prompter
}

// NewWorkManager wires a work manager. A nil clock defaults to the
// real one; a nil prompter to the silent one.
func NewWorkManager(store *statestore.Store, arch *archive.Archive, audit *logbook.Logbook, log *logging.Logger, clk clock.Clock, prompter Prompter) *WorkManager {
	if clk == nil {
		clk = clock.Real()
	}
	if prompter == nil {
		prompter = NullPrompter{}
	}
	return &WorkManager{
		store:    store,
		archive:  arch,
		audit:    audit,
		log:      log,
		clock:    clk,
		prompter: prompter,
	}
}

// Start begins a work session bound to project. The break gate and the
// duplicate-session check run under the state lock so two racing
// starts cannot both succeed.
func (m *WorkManager) Start(goal, project string, planned time.Duration, cfg config.Enforcement) error {
	if planned < time.Minute {
		return fmt.Errorf("session: planned duration %s is shorter than a minute", planned)
	}
	now := m.clock.Now()
	err := m.store.Mutate(func(state *enforcement.State) error {
		if !cfg.BreakRequired && state.BreakRequired {
			state.BreakRequired = false
			state.BreakTypeRequired = enforcement.BreakNone
			if state.Phase == enforcement.PhaseBreakPending {
				state.Phase = enforcement.PhaseIdle
			}
			m.audit.Event(logbook.KindPolicy, "break obligation waived: break requirement disabled in config")
		}
		if state.BreakRequired {
			return &enforcement.BreakRequiredError{Type: state.BreakTypeRequired}
		}
		active, err := m.store.HasDoc(workSessionDoc)
		if err != nil {
			return err
		}
		if active {
			return &enforcement.StateConflictError{Op: "start", Reason: "a work session is already active (cadence stop to end it)"}
		}
		if err := state.BeginWork(project, now); err != nil {
			return err
		}
		session := WorkSession{
			StartTime:       now,
			Goal:            goal,
			Project:         project,
			PomodoroCount:   state.PomodoroCount + 1,
			PlannedDuration: int(planned.Seconds()),
		}
		return m.store.SaveDoc(workSessionDoc, session)
	})
	if err != nil {
		return err
	}
	m.audit.Event(logbook.KindSession, "started session %q on %q (planned %s)", goal, project, planned)
	m.log.Printf("work session started: project=%s planned=%s", project, planned)
	return nil
}

// Stop ends the active session, archives its record, and records the
// break obligation. The archive append happens before the enforcement
// record is updated: a session is not considered closed until its
// record has persisted.
func (m *WorkManager) Stop(reason string, cfg config.Enforcement, sessionsPerLong int) (archive.WorkRecord, error) {
	// Confirmation happens before the lock is taken; holding the state
	// lock across an interactive prompt would starve other commands.
	var session WorkSession
	if err := m.store.LoadDoc(workSessionDoc, &session); err != nil {
		if errors.Is(err, statestore.ErrNotFound) {
			return archive.WorkRecord{}, &enforcement.StateConflictError{Op: "stop", Reason: "no work session is active (cadence start to begin one)"}
		}
		return archive.WorkRecord{}, err
	}

	elapsed := m.clock.Now().Sub(session.StartTime)
	if cfg.ConfirmEarlyStop && isEarlyStop(int(elapsed.Seconds()), session.PlannedDuration) {
		proceed, promptReason, err := m.prompter.ConfirmEarlyStop(elapsed, time.Duration(session.PlannedDuration)*time.Second)
		if err != nil {
			return archive.WorkRecord{}, err
		}
		if !proceed {
			return archive.WorkRecord{}, ErrStopCancelled
		}
		if reason == "" {
			reason = promptReason
		}
	}

	var record archive.WorkRecord
	err := m.store.Mutate(func(state *enforcement.State) error {
		// Re-check under the lock: a concurrent stop may have won.
		if err := m.store.LoadDoc(workSessionDoc, &session); err != nil {
			if errors.Is(err, statestore.ErrNotFound) {
				return &enforcement.StateConflictError{Op: "stop", Reason: "no work session is active"}
			}
			return err
		}
		now := m.clock.Now()
		duration := int(now.Sub(session.StartTime).Seconds())
		record = archive.WorkRecord{
			StartTime:       session.StartTime,
			EndTime:         now,
			Goal:            session.Goal,
			Project:         session.Project,
			PomodoroCount:   session.PomodoroCount,
			PlannedDuration: session.PlannedDuration,
			Duration:        duration,
			EarlyStop:       isEarlyStop(duration, session.PlannedDuration),
			Reason:          reason,
		}
		// Append first; the enforcement record only moves if the
		// archive write succeeded.
		if err := m.archive.AppendWork(record); err != nil {
			return err
		}
		if err := state.EndWork(now, sessionsPerLong); err != nil {
			return err
		}
		return m.store.RemoveDoc(workSessionDoc)
	})
	if err != nil {
		return archive.WorkRecord{}, err
	}

	m.audit.Event(logbook.KindSession, "stopped session (duration %ds, early=%t)", record.Duration, record.EarlyStop)
	m.log.Printf("work session stopped: duration=%ds early=%t", record.Duration, record.EarlyStop)
	return record, nil
}

// Active returns the current work session document, or ErrNotFound via
// statestore when none exists.
func (m *WorkManager) Active() (WorkSession, error) {
	var session WorkSession
	err := m.store.LoadDoc(workSessionDoc, &session)
	return session, err
}
