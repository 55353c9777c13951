package engine

import "fmt"

// Phase is the engine's position in the reconciliation cycle.
type Phase string

const (
	PhaseIdle                 Phase = "idle"
	PhaseSubmitting           Phase = "submitting"
	PhaseAwaitingConfirmation Phase = "awaiting_confirmation"
	PhaseRefetching           Phase = "refetching"
	PhaseFailed               Phase = "failed"
)

// transitions lists the legal successors of each phase.
var transitions = map[Phase][]Phase{
	PhaseIdle:                 {PhaseSubmitting},
	PhaseSubmitting:           {PhaseAwaitingConfirmation, PhaseFailed},
	PhaseAwaitingConfirmation: {PhaseRefetching, PhaseFailed},
	PhaseRefetching:           {PhaseIdle, PhaseFailed},
	PhaseFailed:               {PhaseIdle},
}

// CanTransition reports whether from -> to is a legal phase change.
func CanTransition(from, to Phase) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Busy reports whether a cycle is running.
func (p Phase) Busy() bool {
	return p != PhaseIdle
}

func checkTransition(from, to Phase) error {
	if !CanTransition(from, to) {
		return fmt.Errorf("illegal phase transition %s -> %s", from, to)
	}
	return nil
}
