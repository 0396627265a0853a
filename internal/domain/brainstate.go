package domain

// BrainState is the decision loop's current phase. Exactly one value per
// agent; transitions are driven by the brain, never by callers.
type BrainState string

const (
	StateInactive   BrainState = "inactive"
	StateProcessing BrainState = "processing"
	StateDeciding   BrainState = "deciding"
	StateExecuting  BrainState = "executing"
	StateIdle       BrainState = "idle"
	StateError      BrainState = "error"
)

func ValidBrainState(s string) bool {
	switch BrainState(s) {
	case StateInactive, StateProcessing, StateDeciding, StateExecuting, StateIdle, StateError:
		return true
	}
	return false
}
