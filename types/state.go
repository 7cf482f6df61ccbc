package types

import "fmt"

// RunState represents the refinement loop lifecycle state.
//
// A run starts in StateRunning and ends in exactly one terminal state:
//
//	StateRunning → StateConverged | StateTimedOut | StateCancelled | StateExhausted | StateFailed
type RunState int32

const (
	// StateRunning indicates refinement iterations are still executing.
	StateRunning RunState = iota

	// StateConverged indicates the arrangement was proven optimal and the loop stopped early.
	StateConverged

	// StateTimedOut indicates the run-time budget was used up, or stagnation exceeded
	// its threshold once past that budget.
	StateTimedOut

	// StateCancelled indicates the run context was cancelled.
	StateCancelled

	// StateExhausted indicates the maximum iteration count was reached.
	StateExhausted

	// StateFailed indicates a fatal solver or entity error aborted the run.
	StateFailed
)

// String returns the string representation of the state.
func (s RunState) String() string {
	switch s {
	case StateRunning:
		return "Running"
	case StateConverged:
		return "Converged"
	case StateTimedOut:
		return "TimedOut"
	case StateCancelled:
		return "Cancelled"
	case StateExhausted:
		return "Exhausted"
	case StateFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// IsTerminal reports whether no further transitions can occur from s.
func (s RunState) IsTerminal() bool {
	return s != StateRunning
}

// MarshalText encodes the state by name.
func (s RunState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a state name produced by MarshalText.
func (s *RunState) UnmarshalText(text []byte) error {
	for st := StateRunning; st <= StateFailed; st++ {
		if st.String() == string(text) {
			*s = st
			return nil
		}
	}

	return fmt.Errorf("unknown run state %q", text)
}
