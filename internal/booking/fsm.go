// Package booking implements the lifecycle of one booking attempt.
package booking

// Phase is the lifecycle phase of a booking session.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseSubmitting Phase = "submitting"
	PhaseSucceeded  Phase = "succeeded"
	PhaseFailed     Phase = "failed"
)

// FSM holds the allowed phase transitions. Reset to idle is always allowed
// and is not listed here.
type FSM struct {
	transitions map[Phase][]Phase
}

// NewFSM creates the booking transition table.
func NewFSM() *FSM {
	return &FSM{
		transitions: map[Phase][]Phase{
			PhaseIdle:       {PhaseSubmitting},
			PhaseSubmitting: {PhaseSucceeded, PhaseFailed},
			PhaseFailed:     {PhaseSubmitting},
			PhaseSucceeded:  {},
		},
	}
}

// CanTransition checks if the transition is allowed.
func (f *FSM) CanTransition(from, to Phase) bool {
	if to == PhaseIdle {
		return true
	}
	for _, p := range f.transitions[from] {
		if p == to {
			return true
		}
	}
	return false
}
