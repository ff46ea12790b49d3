package orchestrator

import "fmt"

// State is a refactor job's position in its pipeline
type State string

const (
	StatePending         State = "Pending"
	StateAnalyzingSource State = "AnalyzingSource"
	StatePacking         State = "Packing"
	StateProcessingChunk State = "ProcessingChunk"
	StateCompleted       State = "Completed"
	StateAborted         State = "Aborted"
)

// transitions lists the allowed successors of every non-terminal state.
// ProcessingChunk follows itself once per chunk. Packing may complete
// directly when nothing was classified.
var transitions = map[State][]State{
	StatePending:         {StateAnalyzingSource, StateAborted},
	StateAnalyzingSource: {StatePacking, StateAborted},
	StatePacking:         {StateProcessingChunk, StateCompleted, StateAborted},
	StateProcessingChunk: {StateProcessingChunk, StateCompleted, StateAborted},
}

// Terminal reports whether no further transition is possible
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateAborted
}

// CanTransition reports whether to is an allowed successor of s
func (s State) CanTransition(to State) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// TransitionError is returned for a backward or skipping transition
type TransitionError struct {
	From State
	To   State
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid job state transition %s -> %s", e.From, e.To)
}
