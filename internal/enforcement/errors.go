package enforcement

import "fmt"

// BreakRequiredError blocks a new work session until the pending break
// obligation is satisfied. Recoverable: complete the break.
type BreakRequiredError struct {
	Type BreakType
}

func (e *BreakRequiredError) Error() string {
	return fmt.Sprintf("a %s break is required before starting a new session (run: cadence break)", e.Type)
}

// StateConflictError reports an operation that does not fit the current
// machine state, e.g. stopping when nothing is running. Recoverable;
// the Reason doubles as the corrective suggestion.
type StateConflictError struct {
	Op     string
	Reason string
}

func (e *StateConflictError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}
