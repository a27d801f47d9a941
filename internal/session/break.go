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
	"github.com/cadence-flow/cadence/internal/timer"
)

// BreakManager starts breaks, runs the countdown process, and
// finalizes the resulting record. The timer process itself never
// touches the state store; everything it knows comes in on its
// command line and everything it reports comes back as an exit code.
type BreakManager struct {
	store    *statestore.Store
	archive  *archive.Archive
	audit    *logbook.Logbook
	log      *logging.Logger
	clock    clock.Clock
	launcher TimerLauncher
}

// NewBreakManager wires a break manager.
func NewBreakManager(store *statestore.Store, arch *archive.Archive, audit *logbook.Logbook, log *logging.Logger, clk clock.Clock, launcher TimerLauncher) *BreakManager {
	if clk == nil {
		clk = clock.Real()
	}
	if launcher == nil {
		launcher = ExecLauncher{}
	}
	return &BreakManager{
		store:    store,
		archive:  arch,
		audit:    audit,
		log:      log,
		clock:    clk,
		launcher: launcher,
	}
}

// Start begins a break, spawns the countdown process, blocks until it
// terminates, and finalizes the record. requestedType may be empty to
// take whatever the enforcement record requires (defaulting to short),
// "short", "long", or "custom" with an explicit duration.
func (m *BreakManager) Start(requestedType string, customDuration time.Duration, cfg *config.Config) (archive.BreakRecord, error) {
	skip, err := timer.ParseSkipMode(cfg.Settings.Cadence.SkipMode)
	if err != nil {
		return archive.BreakRecord{}, err
	}

	now := m.clock.Now()
	var session BreakSession

	err = m.store.Mutate(func(state *enforcement.State) error {
		active, err := m.store.HasDoc(workSessionDoc)
		if err != nil {
			return err
		}
		if active {
			return &enforcement.StateConflictError{Op: "break", Reason: "stop the work session first (cadence stop)"}
		}
		if inBreak, err := m.store.HasDoc(breakSessionDoc); err != nil {
			return err
		} else if inBreak {
			return &enforcement.StateConflictError{Op: "break", Reason: "a break is already in progress (cadence break --finalize if its timer is gone)"}
		}

		breakType, planned, err := resolveBreak(requestedType, customDuration, state, cfg)
		if err != nil {
			return err
		}
		scheduled := state.BreakRequired
		if !scheduled {
			// Unscheduled breaks are allowed; they just clear nothing.
			m.audit.Event(logbook.KindWarning, "break started with no pending obligation")
		}
		if err := state.BeginBreak(now); err != nil {
			return err
		}
		session = BreakSession{
			StartTime:       now,
			Type:            breakType,
			PlannedDuration: int(planned.Seconds()),
			Scheduled:       scheduled,
		}
		return m.store.SaveDoc(breakSessionDoc, session)
	})
	if err != nil {
		return archive.BreakRecord{}, err
	}

	m.audit.Event(logbook.KindBreak, "break started: type=%s planned=%ds", session.Type, session.PlannedDuration)
	m.log.Printf("break timer launching: type=%s planned=%ds skip=%s", session.Type, session.PlannedDuration, cfg.Settings.Cadence.SkipMode)

	result, err := m.launcher.Run(
		time.Duration(session.PlannedDuration)*time.Second,
		session.Type,
		skip.Resolve(session.Type),
	)
	if err != nil {
		// The countdown never ran to a verdict. The break document
		// stays so a later --finalize can settle it from elapsed time.
		m.log.Printf("break timer failed: %v", err)
		return archive.BreakRecord{}, err
	}
	m.log.Printf("break timer exited: result=%d", result)

	return m.Finish(cfg, result == TimerSkipped)
}

// Finish computes the break's completion from elapsed time, archives
// the record, and updates the enforcement state. It is called by Start
// when the timer exits, or directly when a break was terminated
// out-of-band and needs settling.
func (m *BreakManager) Finish(cfg *config.Config, skipped bool) (archive.BreakRecord, error) {
	var record archive.BreakRecord
	err := m.store.Mutate(func(state *enforcement.State) error {
		var session BreakSession
		if err := m.store.LoadDoc(breakSessionDoc, &session); err != nil {
			if errors.Is(err, statestore.ErrNotFound) {
				return &enforcement.StateConflictError{Op: "break", Reason: "no break is in progress"}
			}
			return err
		}
		now := m.clock.Now()
		duration := int(now.Sub(session.StartTime).Seconds())
		if duration > session.PlannedDuration {
			duration = session.PlannedDuration
		}
		record = archive.BreakRecord{
			StartTime:       session.StartTime,
			EndTime:         now,
			Type:            session.Type,
			PlannedDuration: session.PlannedDuration,
			Duration:        duration,
			CompletedFully:  isCompletedFully(duration, session.PlannedDuration),
		}
		if cfg.Settings.Enforcement.TrackBreaks {
			if err := m.archive.AppendBreak(record); err != nil {
				return err
			}
		}
		if err := state.EndBreak(record.CompletedFully, now); err != nil {
			return err
		}
		return m.store.RemoveDoc(breakSessionDoc)
	})
	if err != nil {
		return archive.BreakRecord{}, err
	}

	m.audit.Event(logbook.KindBreak, "break finished: type=%s duration=%ds completed=%t skipped=%t",
		record.Type, record.Duration, record.CompletedFully, skipped)
	m.log.Printf("break finished: completed=%t skipped=%t", record.CompletedFully, skipped)
	return record, nil
}

// Active returns the current break document if one exists.
func (m *BreakManager) Active() (BreakSession, error) {
	var session BreakSession
	err := m.store.LoadDoc(breakSessionDoc, &session)
	return session, err
}

// resolveBreak picks the break type and planned duration from the
// request, the pending obligation, and the configured lengths.
func resolveBreak(requested string, customDuration time.Duration, state *enforcement.State, cfg *config.Config) (string, time.Duration, error) {
	breakType := requested
	if breakType == "" {
		switch state.BreakTypeRequired {
		case enforcement.BreakLong:
			breakType = "long"
		default:
			breakType = "short"
		}
	}
	switch breakType {
	case "short", "long":
		return breakType, cfg.BreakDuration(breakType), nil
	case "custom":
		if customDuration < time.Second {
			return "", 0, fmt.Errorf("session: custom breaks need --minutes")
		}
		return breakType, customDuration, nil
	}
	return "", 0, fmt.Errorf("session: unknown break type %q (want short, long, or custom)", requested)
}
