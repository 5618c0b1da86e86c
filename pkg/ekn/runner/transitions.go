package runner

import "fmt"

// transitionTable enumerates every legal (from, to) State pair (spec.md
// §4.1): the happy path initialized→running→completed, pause/resume,
// failure and retry-driven re-entry, and resume-after-fix back to
// completed. Mirrors the teacher's phase transition table shape.
var transitionTable = map[State]map[State]bool{
	StateInitialized: {StateRunning: true},
	StateRunning: {
		StatePaused:    true,
		StateFailed:    true,
		StateCompleted: true,
	},
	StatePaused: {
		StateRunning: true,
		StateFailed:  true,
	},
	StateFailed: {
		StateRunning:   true, // retry
		StateCompleted: true, // manual resume after external fix
	},
	StateCompleted: {},
}

// CanTransition reports whether moving from one run state to another is
// legal. Terminal states admit no outgoing transitions except the two
// explicit Failed escapes (retry, manual resume).
func CanTransition(from, to State) bool {
	allowed, ok := transitionTable[from]
	if !ok {
		return false
	}
	return allowed[to]
}

// Validate reports whether s is one of the five known run states.
func (s State) Validate() error {
	switch s {
	case StateInitialized, StateRunning, StatePaused, StateFailed, StateCompleted:
		return nil
	default:
		return fmt.Errorf("runner: invalid state %q", s)
	}
}

// Validate reports whether stage is within the fixed 0..9 range.
func (s Stage) Validate() error {
	if s < StageFrame || s > LastStage {
		return fmt.Errorf("runner: invalid stage %d", int(s))
	}
	return nil
}

// TransitionError reports an illegal state transition attempt, carrying
// enough context for the runner to classify it as a StateTransitionConflict
// (see errors.go Classify).
type TransitionError struct {
	RunID int64
	From  State
	To    State
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("runner: run %d cannot transition from %q to %q", e.RunID, e.From, e.To)
}

// NextStage returns the stage following s, and false if s is already the
// last stage (spec.md §4.1 automatic advancement).
func NextStage(s Stage) (Stage, bool) {
	if s >= LastStage {
		return s, false
	}
	return s + 1, true
}
