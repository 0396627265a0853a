package domain

// TraitKind enumerates personality axes. Strength 0.5 is the neutral
// default returned for any trait an agent does not carry.
type TraitKind string

const (
	TraitAggression   TraitKind = "aggression"
	TraitCaution      TraitKind = "caution"
	TraitCuriosity    TraitKind = "curiosity"
	TraitSociability  TraitKind = "sociability"
	TraitLoyalty      TraitKind = "loyalty"
	TraitGreed        TraitKind = "greed"
	TraitCourage      TraitKind = "courage"
	TraitIntelligence TraitKind = "intelligence"
)

func ValidTraitKind(k string) bool {
	switch TraitKind(k) {
	case TraitAggression, TraitCaution, TraitCuriosity, TraitSociability,
		TraitLoyalty, TraitGreed, TraitCourage, TraitIntelligence:
		return true
	}
	return false
}

func AllTraitKinds() []TraitKind {
	return []TraitKind{
		TraitAggression, TraitCaution, TraitCuriosity, TraitSociability,
		TraitLoyalty, TraitGreed, TraitCourage, TraitIntelligence,
	}
}

// NeutralTraitStrength is what absent traits read as.
const NeutralTraitStrength float32 = 0.5

// Trait is one personality axis. Flexibility scales how far experience can
// move the trait; a flexibility of 0 makes it fixed for life.
type Trait struct {
	Kind        TraitKind `json:"kind"`
	Strength    float32   `json:"strength"`
	Flexibility float32   `json:"flexibility"`
}
