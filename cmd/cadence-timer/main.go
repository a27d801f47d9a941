// cmd/cadence-timer/main.go
//
// The break countdown process. Launched by `cadence break` with the
// resolved duration, break type, and skip mode; runs autonomously in
// its own terminal session and reports back only through its exit
// status:
//
//	0 — countdown ran to natural expiry
//	1 — skipped by a policy-permitted interrupt
//	2 — invalid arguments
//
// It deliberately never opens the state store: single-writer
// discipline over the enforcement record stays with the launching
// break manager.

package main

import (
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"

	"github.com/cadence-flow/cadence/internal/clock"
	"github.com/cadence-flow/cadence/internal/timer"
)

func main() {
	flags := pflag.NewFlagSet("cadence-timer", pflag.ContinueOnError)
	duration := flags.Int("duration", 0, "break length in seconds (>= 1)")
	breakType := flags.String("type", "", "break type: short, long, or custom")
	skipFlag := flags.String("skip", "type-based", "skip mode: never, after50, always, type-based")

	if err := flags.Parse(os.Args[1:]); err != nil {
		die("%v", err)
	}
	if *duration < 1 {
		die("--duration must be a positive number of seconds")
	}
	switch *breakType {
	case "short", "long", "custom":
	default:
		die("--type must be short, long, or custom")
	}
	mode, err := timer.ParseSkipMode(*skipFlag)
	if err != nil {
		die("%v", err)
	}

	model := timer.NewModel(
		*breakType,
		time.Duration(*duration)*time.Second,
		mode.Resolve(*breakType),
		clock.Real(),
		timer.DesktopNotifier{},
	)

	program := tea.NewProgram(model, tea.WithAltScreen())
	final, err := program.Run()
	if err != nil {
		// The countdown could not run (no usable terminal, killed
		// out-of-band). Treat it as an interrupted break.
		fmt.Fprintf(os.Stderr, "cadence-timer: %v\n", err)
		os.Exit(1)
	}

	if m, ok := final.(timer.Model); ok && m.Outcome() == timer.OutcomeCompleted {
		os.Exit(0)
	}
	os.Exit(1)
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "cadence-timer: "+format+"\n", args...)
	os.Exit(2)
}
