package guard

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/cadence-flow/cadence/internal/clock"
	"github.com/cadence-flow/cadence/internal/enforcement"
	"github.com/cadence-flow/cadence/internal/logbook"
	"github.com/cadence-flow/cadence/internal/statestore"
)

func TestEvaluateMatrix(t *testing.T) {
	cases := []struct {
		name        string
		project     string
		destination string
		blocking    bool
		want        Verdict
	}{
		{"no bound project", "", "anything", true, VerdictAllow},
		{"same project", "api", "api", true, VerdictAllow},
		{"different project warn mode", "api", "frontend", false, VerdictWarn},
		{"different project block mode", "api", "frontend", true, VerdictDeny},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			state := enforcement.State{Project: tc.project}
			decision := Evaluate(state, tc.destination, tc.blocking)
			if decision.Verdict != tc.want {
				t.Fatalf("verdict = %s, want %s", decision.Verdict, tc.want)
			}
			if tc.want != VerdictAllow && decision.Message == "" {
				t.Fatal("warn/deny verdicts need a message")
			}
		})
	}
}

func newTestGuard(t *testing.T) (*Guard, *statestore.Store) {
	t.Helper()
	dir := t.TempDir()
	store := statestore.New(filepath.Join(dir, "state"))
	audit, err := logbook.New(filepath.Join(dir, "logs", "audit.log"))
	if err != nil {
		t.Fatalf("logbook: %v", err)
	}
	clk := clock.NewFake(time.Date(2026, 8, 25, 9, 0, 0, 0, time.UTC))
	return New(store, audit, clk), store
}

func seedProject(t *testing.T, store *statestore.Store, project string) {
	t.Helper()
	if err := store.Mutate(func(state *enforcement.State) error {
		return state.BeginWork(project, time.Now())
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func TestDenyIncrementsViolationsByExactlyOne(t *testing.T) {
	g, store := newTestGuard(t)
	seedProject(t, store, "api")

	for i := 1; i <= 3; i++ {
		decision, err := g.Check("frontend", true)
		if err != nil {
			t.Fatalf("check %d: %v", i, err)
		}
		if decision.Verdict != VerdictDeny {
			t.Fatalf("check %d verdict = %s, want deny", i, decision.Verdict)
		}
		var state enforcement.State
		if err := store.View(func(s enforcement.State) error { state = s; return nil }); err != nil {
			t.Fatalf("view: %v", err)
		}
		if state.Violations != uint(i) {
			t.Fatalf("after %d denials: violations = %d", i, state.Violations)
		}
	}
}

func TestWarnAllowsButCountsAndKeepsProject(t *testing.T) {
	g, store := newTestGuard(t)
	seedProject(t, store, "api")

	decision, err := g.Check("frontend", false)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if decision.Verdict != VerdictWarn {
		t.Fatalf("verdict = %s, want warn", decision.Verdict)
	}

	var state enforcement.State
	if err := store.View(func(s enforcement.State) error { state = s; return nil }); err != nil {
		t.Fatalf("view: %v", err)
	}
	if state.Violations != 1 {
		t.Fatalf("violations = %d, want 1", state.Violations)
	}
	if state.Project != "api" {
		t.Fatalf("bound project changed to %q", state.Project)
	}
}

func TestAllowLeavesStateUntouched(t *testing.T) {
	g, store := newTestGuard(t)
	seedProject(t, store, "api")

	if _, err := g.Check("api", true); err != nil {
		t.Fatalf("check: %v", err)
	}
	var state enforcement.State
	if err := store.View(func(s enforcement.State) error { state = s; return nil }); err != nil {
		t.Fatalf("view: %v", err)
	}
	if state.Violations != 0 {
		t.Fatalf("violations = %d, want 0", state.Violations)
	}
}
