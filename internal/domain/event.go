package domain

import (
	"errors"

	"github.com/google/uuid"
)

var (
	ErrEmptyEventType     = errors.New("event type tag is empty")
	ErrStrengthOutOfRange = errors.New("event strength outside [0,1]")
)

// Event is a durable, bus-distributed occurrence in the world: combat,
// trade, a death, a zone change. Events carry spatial reach (Radius) or
// world-wide reach (Global) and live in the bus history until they expire
// or are evicted.
type Event struct {
	ID         uuid.UUID         `json:"id"`
	Type       Tag               `json:"type"`
	Location   Vec3              `json:"location"`
	Instigator Ref               `json:"instigator"`
	Target     Ref               `json:"target,omitempty"`
	Strength   float32           `json:"strength"`
	Radius     float64           `json:"radius"`
	Global     bool              `json:"global"`
	Timestamp  float64           `json:"timestamp"`
	Duration   float64           `json:"duration"`
	Payload    map[string]string `json:"payload,omitempty"`
}

// NewEvent builds a minimal valid event. Callers fill in reach and payload.
func NewEvent(typ Tag, loc Vec3, strength float32, now float64) Event {
	return Event{
		ID:        uuid.New(),
		Type:      typ,
		Location:  loc,
		Strength:  strength,
		Timestamp: now,
	}
}

// Validate rejects malformed events before they enter the bus.
func (e *Event) Validate() error {
	if !e.Type.Valid() {
		return ErrEmptyEventType
	}
	if e.Strength < 0 || e.Strength > 1 {
		return ErrStrengthOutOfRange
	}
	return nil
}

// Expired reports whether a finite-duration event has outlived itself.
// Events with Duration <= 0 only leave the history via TTL or capacity.
func (e *Event) Expired(now float64) bool {
	return e.Duration > 0 && now-e.Timestamp > e.Duration
}

// Reaches reports whether the event reaches a subscriber at pos: global
// events reach everyone, unbounded-radius events reach everyone too, and
// local events reach positions within Radius.
func (e *Event) Reaches(pos Vec3) bool {
	if e.Global || e.Radius <= 0 {
		return true
	}
	return Distance(e.Location, pos) <= e.Radius
}
