package session

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/term"
)

// Prompter is the interactive-confirmation capability consulted when a
// session is stopped early. It is selected once at startup: terminal
// sessions get the real prompt, everything else gets the silent
// implementation so automation is never blocked on input.
type Prompter interface {
	// ConfirmEarlyStop asks whether to stop anyway and for an optional
	// reason. proceed=false cancels the stop.
	ConfirmEarlyStop(elapsed, planned time.Duration) (proceed bool, reason string, err error)
}

// DetectPrompter returns the terminal prompter when stdin is a TTY and
// the null prompter otherwise.
func DetectPrompter() Prompter {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		return &TerminalPrompter{In: os.Stdin, Out: os.Stdout}
	}
	return NullPrompter{}
}

// TerminalPrompter reads the confirmation from an interactive terminal.
type TerminalPrompter struct {
	In  io.Reader
	Out io.Writer
}

// ConfirmEarlyStop prints the shortfall and reads a y/n answer plus an
// optional reason.
func (p *TerminalPrompter) ConfirmEarlyStop(elapsed, planned time.Duration) (bool, string, error) {
	fmt.Fprintf(p.Out, "You are stopping after %s of a planned %s session.\n",
		elapsed.Round(time.Second), planned.Round(time.Second))
	fmt.Fprint(p.Out, "Stop anyway? [y/N]: ")

	reader := bufio.NewReader(p.In)
	answer, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, "", fmt.Errorf("session: read confirmation: %w", err)
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	if answer != "y" && answer != "yes" {
		return false, "", nil
	}

	fmt.Fprint(p.Out, "Reason (optional): ")
	reason, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, "", fmt.Errorf("session: read reason: %w", err)
	}
	return true, strings.TrimSpace(reason), nil
}

// NullPrompter always proceeds without asking. Non-interactive
// contexts must never block on a prompt.
type NullPrompter struct{}

func (NullPrompter) ConfirmEarlyStop(time.Duration, time.Duration) (bool, string, error) {
	return true, "", nil
}
