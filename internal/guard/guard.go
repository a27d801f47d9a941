// Package guard decides whether a directory change to another project
// is allowed while a work session is bound to one. The decision itself
// is a pure function over the enforcement state and the blocking
// toggle; the Guard wrapper adds the two permitted side effects, the
// violation counter and the audit-log append. Guard never touches
// processes: the shell front end is responsible for honoring a deny by
// reverting the change.
package guard

import (
	"fmt"

	"github.com/cadence-flow/cadence/internal/clock"
	"github.com/cadence-flow/cadence/internal/enforcement"
	"github.com/cadence-flow/cadence/internal/logbook"
	"github.com/cadence-flow/cadence/internal/statestore"
)

// Verdict is the action the shell front end should take.
type Verdict string

const (
	VerdictAllow Verdict = "allow"
	VerdictWarn  Verdict = "warn"
	VerdictDeny  Verdict = "deny"
)

// Decision is the guard's answer for one directory-change event.
type Decision struct {
	Verdict Verdict
	// Message is printed to the user for warn and deny verdicts.
	Message string
}

// Evaluate applies the switch policy. No side effects; callers that
// need the violation recorded go through Guard.Check.
func Evaluate(state enforcement.State, destination string, blocking bool) Decision {
	if state.Project == "" || state.Project == destination {
		return Decision{Verdict: VerdictAllow}
	}
	if blocking {
		return Decision{
			Verdict: VerdictDeny,
			Message: fmt.Sprintf(
				"switch to %q denied: a work session is bound to %q; stop it first (cadence stop) or finish the session",
				destination, state.Project),
		}
	}
	return Decision{
		Verdict: VerdictWarn,
		Message: fmt.Sprintf(
			"warning: a work session is bound to %q; switching to %q counts as a focus violation",
			state.Project, destination),
	}
}

// Guard evaluates switch attempts and persists their consequences.
type Guard struct {
	store *statestore.Store
	audit *logbook.Logbook
	clock clock.Clock
}

// New creates a guard over the given store and audit sink.
func New(store *statestore.Store, audit *logbook.Logbook, clk clock.Clock) *Guard {
	if clk == nil {
		clk = clock.Real()
	}
	return &Guard{store: store, audit: audit, clock: clk}
}

// Check evaluates a switch to destination and, for warn and deny
// verdicts, increments the violation counter and records the event.
// The bound project is never changed here.
func (g *Guard) Check(destination string, blocking bool) (Decision, error) {
	var decision Decision
	err := g.store.Mutate(func(state *enforcement.State) error {
		decision = Evaluate(*state, destination, blocking)
		if decision.Verdict == VerdictAllow {
			return nil
		}
		state.RecordViolation(g.clock.Now())
		return nil
	})
	if err != nil {
		return Decision{}, fmt.Errorf("guard: %w", err)
	}
	switch decision.Verdict {
	case VerdictWarn:
		g.audit.Event(logbook.KindViolation, "warned: switch to %q during bound session", destination)
	case VerdictDeny:
		g.audit.Event(logbook.KindViolation, "denied: switch to %q during bound session", destination)
	}
	return decision, nil
}
