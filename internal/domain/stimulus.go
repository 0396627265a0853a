package domain

// StimulusKind classifies the sensory channel a stimulus arrived on.
type StimulusKind string

const (
	StimulusVisual     StimulusKind = "visual"
	StimulusAudio      StimulusKind = "audio"
	StimulusTouch      StimulusKind = "touch"
	StimulusMemory     StimulusKind = "memory"
	StimulusWorldEvent StimulusKind = "world_event"
	StimulusInternal   StimulusKind = "internal"
)

func ValidStimulusKind(k string) bool {
	switch StimulusKind(k) {
	case StimulusVisual, StimulusAudio, StimulusTouch, StimulusMemory, StimulusWorldEvent, StimulusInternal:
		return true
	}
	return false
}

// Stimulus is a short-lived sensory signal. The perception adapter owns
// normalization: by the time a stimulus reaches the brain its intensity is
// already in [0,1] and its tag is set. Stimuli live only in the brain's
// rolling buffer.
type Stimulus struct {
	Kind      StimulusKind      `json:"kind"`
	Tag       Tag               `json:"tag"`
	Intensity float32           `json:"intensity"`
	Location  Vec3              `json:"location"`
	Source    Ref               `json:"source,omitempty"`
	Timestamp float64           `json:"timestamp"`
	Data      map[string]string `json:"data,omitempty"`
}

// FromEvent converts a bus-delivered event into a world-event stimulus.
func FromEvent(e Event) Stimulus {
	return Stimulus{
		Kind:      StimulusWorldEvent,
		Tag:       e.Type,
		Intensity: e.Strength,
		Location:  e.Location,
		Source:    e.Instigator,
		Timestamp: e.Timestamp,
		Data:      e.Payload,
	}
}
