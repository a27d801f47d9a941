package timer

import (
	"fmt"
	"strings"
	"time"
)

// SkipMode controls whether and when the countdown may be interrupted
// before it expires.
type SkipMode string

const (
	// SkipNever refuses every interrupt; only natural expiry ends the
	// break.
	SkipNever SkipMode = "never"
	// SkipAlways lets an interrupt end the break immediately.
	SkipAlways SkipMode = "always"
	// SkipAfter50 refuses interrupts in the first half of the break
	// and accepts them from the 50% mark onward.
	SkipAfter50 SkipMode = "after50"
	// SkipTypeBased resolves to SkipAlways for short breaks and
	// SkipAfter50 for long ones. Resolved before the timer launches.
	SkipTypeBased SkipMode = "type-based"
)

// ParseSkipMode validates a flag value.
func ParseSkipMode(value string) (SkipMode, error) {
	switch SkipMode(strings.ToLower(strings.TrimSpace(value))) {
	case SkipNever:
		return SkipNever, nil
	case SkipAlways:
		return SkipAlways, nil
	case SkipAfter50:
		return SkipAfter50, nil
	case SkipTypeBased:
		return SkipTypeBased, nil
	}
	return "", fmt.Errorf("timer: unknown skip mode %q", value)
}

// Resolve maps type-based onto a concrete mode for the given break
// type. Concrete modes pass through unchanged.
func (m SkipMode) Resolve(breakType string) SkipMode {
	if m != SkipTypeBased {
		return m
	}
	if breakType == "long" {
		return SkipAfter50
	}
	return SkipAlways
}

// CanSkip reports whether an interrupt at the given elapsed point may
// end the countdown. The 50% boundary itself allows the skip.
func (m SkipMode) CanSkip(elapsed, total time.Duration) bool {
	switch m {
	case SkipAlways:
		return true
	case SkipAfter50:
		return total > 0 && elapsed*2 >= total
	default:
		return false
	}
}
