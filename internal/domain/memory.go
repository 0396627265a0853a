package domain

import (
	"math"

	"github.com/google/uuid"
)

// MemoryKind partitions a memory store into independent buckets.
type MemoryKind string

const (
	MemoryEvent       MemoryKind = "event"
	MemoryInteraction MemoryKind = "interaction"
	MemoryLocation    MemoryKind = "location"
	MemoryCombat      MemoryKind = "combat"
	MemorySocial      MemoryKind = "social"
	MemoryDiscovery   MemoryKind = "discovery"
)

func ValidMemoryKind(k string) bool {
	switch MemoryKind(k) {
	case MemoryEvent, MemoryInteraction, MemoryLocation, MemoryCombat, MemorySocial, MemoryDiscovery:
		return true
	}
	return false
}

func AllMemoryKinds() []MemoryKind {
	return []MemoryKind{MemoryEvent, MemoryInteraction, MemoryLocation, MemoryCombat, MemorySocial, MemoryDiscovery}
}

// Relevance is a coarse importance ranking. It biases tier promotion and
// query sorting; it does not feed the decay curve.
type Relevance uint8

const (
	RelevanceTrivial Relevance = iota
	RelevanceLow
	RelevanceMedium
	RelevanceHigh
	RelevanceCritical
)

func (r Relevance) Float() float32 {
	return float32(r) / float32(RelevanceCritical)
}

func (r Relevance) String() string {
	switch r {
	case RelevanceTrivial:
		return "trivial"
	case RelevanceLow:
		return "low"
	case RelevanceMedium:
		return "medium"
	case RelevanceHigh:
		return "high"
	case RelevanceCritical:
		return "critical"
	}
	return "unknown"
}

// MemoryTier separates recent, volatile memories from consolidated ones.
type MemoryTier string

const (
	TierShortTerm MemoryTier = "short_term"
	TierLongTerm  MemoryTier = "long_term"
)

// MemoryEntry is one remembered experience. Strength holds the base value
// set at formation (and nudged by access reinforcement); the current value
// is always derived from age via CurrentStrength, never stored.
type MemoryEntry struct {
	ID              uuid.UUID         `json:"id"`
	Kind            MemoryKind        `json:"kind"`
	Tag             Tag               `json:"tag"`
	Relevance       Relevance         `json:"relevance"`
	Strength        float32           `json:"strength"`
	DecayRate       float32           `json:"decay_rate"`
	EmotionalWeight float32           `json:"emotional_weight"`
	Location        Vec3              `json:"location"`
	PrimaryActor    Ref               `json:"primary_actor"`
	SecondaryActor  Ref               `json:"secondary_actor,omitempty"`
	Description     string            `json:"description,omitempty"`
	Data            map[string]string `json:"data,omitempty"`
	CreatedAt       float64           `json:"created_at"`
	LastAccessedAt  float64           `json:"last_accessed_at"`
	AccessCount     uint32            `json:"access_count"`
	Vivid           bool              `json:"is_vivid"`
	Permanent       bool              `json:"is_permanent"`
}

// EffectiveDecayRate folds vividness and emotional charge into the base
// decay rate. Vivid memories decay at half speed; emotionally loaded ones
// (either direction) slower still. Floored so nothing is accidentally
// immortal through arithmetic.
func (m *MemoryEntry) EffectiveDecayRate() float32 {
	rate := m.DecayRate
	if m.Vivid {
		rate *= 0.5
	}
	rate -= 2.0 * float32(math.Abs(float64(m.EmotionalWeight)))
	if rate < 0.01 {
		rate = 0.01
	}
	return rate
}

// CurrentStrength derives the present strength from age. Decay runs on an
// hours scale: an entry with decay rate 1.0 loses ~63% per hour.
func (m *MemoryEntry) CurrentStrength(now float64) float32 {
	if m.Permanent {
		return m.Strength
	}
	ageHours := (now - m.CreatedAt) / 3600.0
	if ageHours <= 0 {
		return m.Strength
	}
	s := float64(m.Strength) * math.Exp(-float64(m.EffectiveDecayRate())*ageHours)
	return float32(s)
}

// AgeSeconds returns how long ago the memory was formed.
func (m *MemoryEntry) AgeSeconds(now float64) float64 {
	return now - m.CreatedAt
}

// Reinforce applies the access boost: each recall nudges the base strength
// up, saturating both per-access (after 5 accesses) and absolutely (at 1).
func (m *MemoryEntry) Reinforce(now float64) {
	boostSteps := m.AccessCount
	if boostSteps > 5 {
		boostSteps = 5
	}
	m.Strength += 0.02 * float32(boostSteps)
	if m.Strength > 1 {
		m.Strength = 1
	}
	m.AccessCount++
	m.LastAccessedAt = now
}
