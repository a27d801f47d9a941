// cmd/cadence/main.go
//
// This is the entry point for the cadence CLI.
//
// Flow:
// 1. Resolve the cadence home directory (~/.cadence or CADENCE_HOME)
// 2. Make sure the directory tree and default config exist
// 3. Dispatch the subcommand against the shared internal packages
//
// Exit codes: 0 success (including warn-mode guard verdicts),
// 1 operational/state/policy failure (a guard deny lands here so the
// shell hook can revert on any nonzero status), 2 usage errors.

package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/cadence-flow/cadence/internal/archive"
	"github.com/cadence-flow/cadence/internal/clock"
	"github.com/cadence-flow/cadence/internal/config"
	"github.com/cadence-flow/cadence/internal/enforcement"
	"github.com/cadence-flow/cadence/internal/guard"
	"github.com/cadence-flow/cadence/internal/logbook"
	"github.com/cadence-flow/cadence/internal/logging"
	"github.com/cadence-flow/cadence/internal/report"
	"github.com/cadence-flow/cadence/internal/session"
	"github.com/cadence-flow/cadence/internal/statestore"
)

const usage = `cadence — work/break enforcement for focused sessions

Usage:
  cadence init                       create ~/.cadence and the default config
  cadence start [flags]              start a work session
  cadence stop [flags]               stop the active session (break becomes due)
  cadence break [flags]              take the pending break (runs the countdown)
  cadence guard <destination>        evaluate a project switch (shell hook)
  cadence status                     show the current enforcement state
  cadence report [flags]             monthly compliance summary

Run 'cadence <command> --help' for command flags.`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "-h", "--help", "help":
		fmt.Println(usage)
		return
	}

	app, err := newApp()
	if err != nil {
		fail(err)
	}
	defer app.close()

	switch command {
	case "init":
		fmt.Printf("cadence initialized at %s\n", app.cfg.HomeDir)
	case "start":
		err = runStart(app, args)
	case "stop":
		err = runStop(app, args)
	case "break":
		err = runBreak(app, args)
	case "guard":
		err = runGuard(app, args)
	case "status":
		err = runStatus(app, args)
	case "report":
		err = runReport(app, args)
	default:
		fmt.Fprintf(os.Stderr, "cadence: unknown command %q\n\n%s\n", command, usage)
		os.Exit(2)
	}
	if err != nil {
		fail(err)
	}
}

// app bundles the shared wiring every command needs. Config is loaded
// fresh here on every invocation; nothing is cached across runs.
type app struct {
	cfg     *config.Config
	store   *statestore.Store
	archive *archive.Archive
	audit   *logbook.Logbook
	log     *logging.Logger
	clock   clock.Clock
}

func newApp() (*app, error) {
	home, err := config.ResolveHome()
	if err != nil {
		return nil, err
	}
	if err := config.InitCadenceDir(home); err != nil {
		return nil, fmt.Errorf("init %s: %w", home, err)
	}
	cfg, err := config.Load(home)
	if err != nil {
		return nil, err
	}
	audit, err := logbook.New(filepath.Join(cfg.LogsDir(), "audit.log"))
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.LogsDir())
	if err != nil {
		return nil, err
	}
	return &app{
		cfg:     cfg,
		store:   statestore.New(cfg.StateDir()),
		archive: archive.New(cfg.ArchiveDir()),
		audit:   audit,
		log:     logger,
		clock:   clock.Real(),
	}, nil
}

func (a *app) close() {
	_ = a.log.Close()
}

func runStart(a *app, args []string) error {
	flags := pflag.NewFlagSet("start", pflag.ExitOnError)
	goal := flags.StringP("goal", "g", "", "what this session is for")
	minutes := flags.Int("minutes", 0, "planned length (defaults to the configured pomodoro)")
	project := flags.String("project", "", "project to bind (defaults to the current directory name)")
	flags.Parse(args)

	planned := a.cfg.PomodoroDuration()
	if *minutes > 0 {
		planned = time.Duration(*minutes) * time.Minute
	}
	boundProject := *project
	if boundProject == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("resolve current directory: %w", err)
		}
		boundProject = filepath.Base(cwd)
	}

	manager := session.NewWorkManager(a.store, a.archive, a.audit, a.log, a.clock, session.DetectPrompter())
	if err := manager.Start(*goal, boundProject, planned, a.cfg.Settings.Enforcement); err != nil {
		return err
	}
	fmt.Printf("Session started on %q for %s.", boundProject, planned)
	if *goal != "" {
		fmt.Printf(" Goal: %s", *goal)
	}
	fmt.Println()
	return nil
}

func runStop(a *app, args []string) error {
	flags := pflag.NewFlagSet("stop", pflag.ExitOnError)
	reason := flags.String("reason", "", "why the session is ending early")
	flags.Parse(args)

	manager := session.NewWorkManager(a.store, a.archive, a.audit, a.log, a.clock, session.DetectPrompter())
	record, err := manager.Stop(*reason, a.cfg.Settings.Enforcement, a.cfg.Settings.Cadence.SessionsPerLongBreak)
	if errors.Is(err, session.ErrStopCancelled) {
		fmt.Println("Stop cancelled; the session keeps running.")
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Printf("Session stopped after %s", (time.Duration(record.Duration) * time.Second).Round(time.Second))
	if record.EarlyStop {
		fmt.Print(" (early)")
	}
	fmt.Println(".")
	fmt.Println("A break is now due — run: cadence break")
	return nil
}

func runBreak(a *app, args []string) error {
	flags := pflag.NewFlagSet("break", pflag.ExitOnError)
	breakType := flags.String("type", "", "short, long, or custom (defaults to what is owed)")
	minutes := flags.Int("minutes", 0, "length for custom breaks")
	finalize := flags.Bool("finalize", false, "settle a break whose timer is gone")
	flags.Parse(args)

	manager := session.NewBreakManager(a.store, a.archive, a.audit, a.log, a.clock, nil)

	if *finalize {
		record, err := manager.Finish(a.cfg, true)
		if err != nil {
			return err
		}
		printBreakResult(record)
		return nil
	}

	record, err := manager.Start(*breakType, time.Duration(*minutes)*time.Minute, a.cfg)
	if err != nil {
		return err
	}
	printBreakResult(record)
	return nil
}

func printBreakResult(record archive.BreakRecord) {
	if record.CompletedFully {
		fmt.Println("Break completed. You're clear to start the next session.")
		return
	}
	fmt.Println("Break cut short — the obligation is still pending. Run: cadence break")
}

func runGuard(a *app, args []string) error {
	flags := pflag.NewFlagSet("guard", pflag.ExitOnError)
	flags.Parse(args)
	rest := flags.Args()
	if len(rest) != 1 || strings.TrimSpace(rest[0]) == "" {
		fmt.Fprintln(os.Stderr, "usage: cadence guard <destination-project>")
		os.Exit(2)
	}
	destination := strings.TrimSpace(rest[0])

	g := guard.New(a.store, a.audit, a.clock)
	decision, err := g.Check(destination, a.cfg.Settings.Enforcement.BlockingEnabled)
	if err != nil {
		return err
	}
	switch decision.Verdict {
	case guard.VerdictAllow:
		return nil
	case guard.VerdictWarn:
		fmt.Fprintln(os.Stderr, decision.Message)
		return nil
	default:
		// Nonzero exit tells the shell hook to revert the change.
		fmt.Fprintln(os.Stderr, decision.Message)
		os.Exit(1)
		return nil
	}
}

func runStatus(a *app, args []string) error {
	flags := pflag.NewFlagSet("status", pflag.ExitOnError)
	flags.Parse(args)

	var state enforcement.State
	if err := a.store.View(func(s enforcement.State) error {
		state = s
		return nil
	}); err != nil {
		return err
	}

	phase := state.Phase
	if phase == "" {
		phase = enforcement.PhaseIdle
	}
	fmt.Printf("Phase:          %s\n", phase)
	if state.Project != "" {
		fmt.Printf("Bound project:  %s\n", state.Project)
	}
	if state.BreakRequired {
		fmt.Printf("Break owed:     %s\n", state.BreakTypeRequired)
	}
	fmt.Printf("Pomodoros:      %d\n", state.PomodoroCount)
	fmt.Printf("Violations:     %d\n", state.Violations)
	if !state.LastSessionEnd.IsZero() {
		fmt.Printf("Last session:   %s\n", state.LastSessionEnd.Local().Format(time.RFC822))
	}
	if !state.LastBreakEnd.IsZero() {
		fmt.Printf("Last break:     %s\n", state.LastBreakEnd.Local().Format(time.RFC822))
	}
	return nil
}

func runReport(a *app, args []string) error {
	flags := pflag.NewFlagSet("report", pflag.ExitOnError)
	monthFlag := flags.String("month", "", "month to report on (YYYY-MM, defaults to the current month)")
	flags.Parse(args)

	month := archive.MonthOf(a.clock.Now())
	if *monthFlag != "" {
		parsed, err := archive.ParseMonth(*monthFlag)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		month = parsed
	}

	work, err := a.archive.WorkRecords(month)
	if err != nil {
		return err
	}
	breaks, err := a.archive.BreakRecords(month)
	if err != nil {
		return err
	}
	fmt.Print(report.Render(report.Aggregate(month, work, breaks)))
	return nil
}

// fail prints the error with its remediation text and exits nonzero.
// Policy and state-conflict errors are user-facing and expected; lock
// timeouts are fatal and never retried here because a blind retry may
// act on stale state.
func fail(err error) {
	if errors.Is(err, statestore.ErrLockTimeout) {
		fmt.Fprintf(os.Stderr, "cadence: %v (another cadence command is holding the state lock)\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "cadence: %v\n", err)
	os.Exit(1)
}
