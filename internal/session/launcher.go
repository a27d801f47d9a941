package session

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"github.com/cadence-flow/cadence/internal/timer"
)

// TimerResult is the break timer's verdict, decoded from its exit
// status. The timer never writes to the state store; the exit status
// is its entire result channel.
type TimerResult int

const (
	// TimerCompleted: the countdown ran to natural expiry (exit 0).
	TimerCompleted TimerResult = iota
	// TimerSkipped: a policy-permitted interrupt ended it (exit 1).
	TimerSkipped
)

// TimerLauncher runs the break timer process to termination.
type TimerLauncher interface {
	Run(duration time.Duration, breakType string, skip timer.SkipMode) (TimerResult, error)
}

// timerBinary is the name of the countdown executable.
const timerBinary = "cadence-timer"

// ExecLauncher launches cadence-timer as an attached child process,
// inheriting the terminal, and blocks until it exits.
type ExecLauncher struct{}

// Run launches the timer and maps its exit code per the process
// contract: 0 completed, 1 skipped, 2 invalid arguments (a bug in the
// caller), anything else a launch failure.
func (ExecLauncher) Run(duration time.Duration, breakType string, skip timer.SkipMode) (TimerResult, error) {
	path, err := resolveTimerBinary()
	if err != nil {
		return 0, err
	}
	cmd := exec.Command(path,
		"--duration", strconv.Itoa(int(duration.Seconds())),
		"--type", breakType,
		"--skip", string(skip),
	)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	err = cmd.Run()
	if err == nil {
		return TimerCompleted, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		switch exitErr.ExitCode() {
		case 1:
			return TimerSkipped, nil
		case 2:
			return 0, fmt.Errorf("session: timer rejected its arguments: %w", err)
		}
	}
	return 0, fmt.Errorf("session: run %s: %w", timerBinary, err)
}

// resolveTimerBinary prefers a cadence-timer sitting next to the
// running executable, falling back to PATH.
func resolveTimerBinary() (string, error) {
	if self, err := os.Executable(); err == nil {
		sibling := filepath.Join(filepath.Dir(self), timerBinary)
		if info, err := os.Stat(sibling); err == nil && !info.IsDir() {
			return sibling, nil
		}
	}
	path, err := exec.LookPath(timerBinary)
	if err != nil {
		return "", fmt.Errorf("session: %s not found next to the cadence binary or on PATH: %w", timerBinary, err)
	}
	return path, nil
}
