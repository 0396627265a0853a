package domain

// NeedKind enumerates the drives an agent simulates.
type NeedKind string

const (
	NeedHunger    NeedKind = "hunger"
	NeedFatigue   NeedKind = "fatigue"
	NeedSafety    NeedKind = "safety"
	NeedSocial    NeedKind = "social"
	NeedCuriosity NeedKind = "curiosity"
	NeedComfort   NeedKind = "comfort"
)

func ValidNeedKind(k string) bool {
	switch NeedKind(k) {
	case NeedHunger, NeedFatigue, NeedSafety, NeedSocial, NeedCuriosity, NeedComfort:
		return true
	}
	return false
}

func AllNeedKinds() []NeedKind {
	return []NeedKind{NeedHunger, NeedFatigue, NeedSafety, NeedSocial, NeedCuriosity, NeedComfort}
}

// Need is one drive. Level 0 is fully met, 1 is maximally pressing;
// ChangeRate is the signed drift per second before the global multiplier.
// Urgency is edge-triggered: the flag flips at the thresholds and stays.
type Need struct {
	Kind               NeedKind `json:"kind"`
	Level              float32  `json:"level"`
	ChangeRate         float32  `json:"change_rate"`
	UrgentThreshold    float32  `json:"urgent_threshold"`
	SatisfiedThreshold float32  `json:"satisfied_threshold"`
	Urgent             bool     `json:"is_urgent"`
	Active             bool     `json:"is_active"`
}

// DefaultNeed returns a need with the conventional thresholds.
func DefaultNeed(kind NeedKind, changeRate float32) Need {
	return Need{
		Kind:               kind,
		Level:              0.5,
		ChangeRate:         changeRate,
		UrgentThreshold:    0.8,
		SatisfiedThreshold: 0.2,
		Active:             true,
	}
}

// SuggestedIntent maps a need to the high-level action that would satisfy it.
func (n *Need) SuggestedIntent() Tag {
	switch n.Kind {
	case NeedHunger:
		return "survival.eat"
	case NeedFatigue:
		return "survival.rest"
	case NeedSafety:
		return "defense.seek_shelter"
	case NeedSocial:
		return "social.seek_company"
	case NeedCuriosity:
		return "explore.wander"
	case NeedComfort:
		return "survival.seek_comfort"
	}
	return ""
}
