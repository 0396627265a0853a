package domain

import "errors"

var (
	ErrEmptyIntentTag       = errors.New("intent tag is empty")
	ErrConfidenceOutOfRange = errors.New("intent confidence outside [0,1]")
)

// Priority ranks how strongly an intent should preempt whatever the
// executor is currently doing.
type Priority uint8

const (
	PriorityIdle Priority = iota
	PriorityLow
	PriorityMedium
	PriorityHigh
	PriorityCritical
)

func (p Priority) String() string {
	switch p {
	case PriorityIdle:
		return "idle"
	case PriorityLow:
		return "low"
	case PriorityMedium:
		return "medium"
	case PriorityHigh:
		return "high"
	case PriorityCritical:
		return "critical"
	}
	return "unknown"
}

// Intent is the brain's decided next high-level action. It is an immutable
// value handed to the executor; the brain never mutates a published intent.
type Intent struct {
	Tag            Tag               `json:"tag"`
	Priority       Priority          `json:"priority"`
	Confidence     float32           `json:"confidence"`
	TargetActor    Ref               `json:"target_actor,omitempty"`
	TargetLocation Vec3              `json:"target_location"`
	Params         map[string]string `json:"params,omitempty"`
	CreatedAt      float64           `json:"created_at"`
}

// Validate rejects intents the executor must never see.
func (i *Intent) Validate() error {
	if !i.Tag.Valid() {
		return ErrEmptyIntentTag
	}
	if i.Confidence < 0 || i.Confidence > 1 {
		return ErrConfidenceOutOfRange
	}
	return nil
}
