package timer

import (
	"fmt"
	"os/exec"
)

// Notifier delivers the end-of-break desktop notification. Delivery is
// best effort: a missing notification tool must never abort the timer.
type Notifier interface {
	Notify(title, body string) error
}

// DesktopNotifier shells out to notify-send.
type DesktopNotifier struct{}

// Notify sends a desktop notification, returning an error only for the
// caller's log; the timer ignores it.
func (DesktopNotifier) Notify(title, body string) error {
	path, err := exec.LookPath("notify-send")
	if err != nil {
		return fmt.Errorf("timer: notify-send not available: %w", err)
	}
	if err := exec.Command(path, "--urgency=normal", title, body).Run(); err != nil {
		return fmt.Errorf("timer: notify-send: %w", err)
	}
	return nil
}

// NullNotifier drops notifications; used in tests and headless runs.
type NullNotifier struct{}

func (NullNotifier) Notify(string, string) error { return nil }
