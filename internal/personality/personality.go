// Package personality implements the per-agent trait model: a small set
// of bounded trait strengths that drift with experience and weight the
// brain's action choices.
package personality

import (
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/hollowmere/npcmind/internal/domain"
)

const (
	DefaultChangeRate  = 1.0
	DefaultFlexibility = 0.5

	minActionWeight = 0.1
	maxActionWeight = 2.0
)

// Config tunes one agent's modulator.
type Config struct {
	// AllowChange gates ApplyExperience entirely.
	AllowChange bool
	// EnableInfluence gates action weighting and intent modulation;
	// when off, weights are neutral and intents pass through untouched.
	EnableInfluence bool
	// ChangeRate scales every experience-driven drift uniformly.
	ChangeRate float32
}

func DefaultConfig() Config {
	return Config{
		AllowChange:     true,
		EnableInfluence: true,
		ChangeRate:      DefaultChangeRate,
	}
}

// Modulator owns one agent's traits. Exclusively owned by that agent and
// not safe for concurrent use.
type Modulator struct {
	cfg    Config
	logger *zap.Logger

	traits map[domain.TraitKind]*domain.Trait
}

func NewModulator(cfg Config, logger *zap.Logger) *Modulator {
	if cfg.ChangeRate <= 0 {
		cfg.ChangeRate = DefaultChangeRate
	}
	return &Modulator{
		cfg:    cfg,
		logger: logger,
		traits: make(map[domain.TraitKind]*domain.Trait),
	}
}

// TraitStrength reports a trait's strength, neutral 0.5 when absent.
func (m *Modulator) TraitStrength(kind domain.TraitKind) float32 {
	if t, ok := m.traits[kind]; ok {
		return t.Strength
	}
	return domain.NeutralTraitStrength
}

// SetTraitStrength clamps and stores a trait, creating it with the
// default flexibility if missing.
func (m *Modulator) SetTraitStrength(kind domain.TraitKind, strength float32) {
	t, ok := m.traits[kind]
	if !ok {
		t = &domain.Trait{Kind: kind, Flexibility: DefaultFlexibility}
		m.traits[kind] = t
	}
	t.Strength = clamp01(strength)
}

// SetTrait installs a fully specified trait.
func (m *Modulator) SetTrait(trait domain.Trait) {
	trait.Strength = clamp01(trait.Strength)
	trait.Flexibility = clamp01(trait.Flexibility)
	t := trait
	m.traits[t.Kind] = &t
}

// experienceDelta is the base drift per (experience family, trait) pair,
// scaled by stimulus intensity before flexibility and the change rate.
func experienceDelta(family domain.Tag, kind domain.TraitKind, intensity float32) float32 {
	switch family.Root() {
	case "combat":
		switch kind {
		case domain.TraitAggression:
			return intensity * 0.05
		case domain.TraitCaution:
			return intensity * 0.03
		case domain.TraitCourage:
			return intensity * 0.02
		}
	case "social":
		if kind == domain.TraitSociability {
			return intensity * 0.04
		}
	case "explore", "discovery":
		if kind == domain.TraitCuriosity {
			return intensity * 0.03
		}
	case "trade":
		if kind == domain.TraitGreed {
			return intensity * 0.02
		}
	}
	return 0
}

// ApplyExperience drifts traits in response to a lived experience. Drift
// is bounded by the trait's own flexibility and the global change rate,
// so rigid personalities barely move.
func (m *Modulator) ApplyExperience(tag domain.Tag, intensity float32) {
	if !m.cfg.AllowChange || !tag.Valid() {
		return
	}
	intensity = clamp01(intensity)
	for kind, t := range m.traits {
		delta := experienceDelta(tag, kind, intensity)
		if delta == 0 {
			continue
		}
		effective := delta * t.Flexibility * m.cfg.ChangeRate
		t.Strength = clamp01(t.Strength + effective)
		m.logger.Debug("trait drifted",
			zap.String("trait", string(kind)),
			zap.String("experience", string(tag)),
			zap.Float32("delta", effective))
	}
}

// influence is the signed coefficient a trait applies to an action family.
func influence(kind domain.TraitKind, family string) float32 {
	switch kind {
	case domain.TraitAggression:
		if family == "combat" {
			return 0.5
		}
	case domain.TraitCaution:
		switch family {
		case "combat":
			return -0.3
		case "defense", "flee":
			return 0.4
		}
	case domain.TraitCuriosity:
		if family == "explore" {
			return 0.6
		}
	case domain.TraitSociability:
		if family == "social" {
			return 0.4
		}
	case domain.TraitGreed:
		if family == "trade" {
			return 0.4
		}
	case domain.TraitCourage:
		if family == "flee" {
			return -0.3
		}
	case domain.TraitLoyalty:
		if family == "defense" {
			return 0.2
		}
	}
	return 0
}

// ActionWeight multiplies (1 + influence*strength) across traits for the
// tag's action family, clamped so stacked traits cannot blow up or zero
// out an intent.
func (m *Modulator) ActionWeight(tag domain.Tag) float32 {
	if !m.cfg.EnableInfluence {
		return 1.0
	}
	family := string(tag.Root())
	weight := float32(1.0)
	for kind, t := range m.traits {
		if inf := influence(kind, family); inf != 0 {
			weight *= 1 + inf*t.Strength
		}
	}
	if weight < minActionWeight {
		return minActionWeight
	}
	if weight > maxActionWeight {
		return maxActionWeight
	}
	return weight
}

// ModifyIntent scales an intent's confidence by the action weight, then
// applies per-trait boosts for the matching family, clamped to [0,1].
// The intent's tag and targets are never altered.
func (m *Modulator) ModifyIntent(intent domain.Intent) domain.Intent {
	if !m.cfg.EnableInfluence {
		return intent
	}
	conf := intent.Confidence * m.ActionWeight(intent.Tag)

	family := string(intent.Tag.Root())
	switch family {
	case "combat":
		if a := m.TraitStrength(domain.TraitAggression); a > 0 {
			conf *= 1 + a*0.5
		}
	case "defense", "flee":
		if c := m.TraitStrength(domain.TraitCaution); c > 0 {
			conf *= 1 + c*0.3
		}
	case "explore":
		if c := m.TraitStrength(domain.TraitCuriosity); c > 0 {
			conf *= 1 + c*0.4
		}
	case "social":
		if s := m.TraitStrength(domain.TraitSociability); s > 0 {
			conf *= 1 + s*0.3
		}
	}

	intent.Confidence = clamp01(conf)
	return intent
}

// Compatibility scores how well two personalities get along, in [0,1].
// Sociability rewards joint-high values, aggression and greed reward
// similarity at full weight, everything else similarity at reduced weight.
func (m *Modulator) Compatibility(other *Modulator) float32 {
	if other == nil {
		return 0.5
	}
	kinds := domain.AllTraitKinds()
	var sum float32
	for _, kind := range kinds {
		a := m.TraitStrength(kind)
		b := other.TraitStrength(kind)
		switch kind {
		case domain.TraitSociability:
			sum += (a + b) / 2
		case domain.TraitAggression, domain.TraitGreed:
			sum += 1 - abs32(a-b)
		default:
			sum += 0.5 + 0.5*(1-abs32(a-b))/2
		}
	}
	return clamp01(sum / float32(len(kinds)))
}

// IntentSuggestions lists action families this personality leans toward:
// every trait strictly above neutral contributes its signature intent,
// strongest trait first. Advisory only.
func (m *Modulator) IntentSuggestions() []domain.Tag {
	type lean struct {
		tag      domain.Tag
		strength float32
	}
	var leans []lean
	for kind, t := range m.traits {
		if t.Strength <= domain.NeutralTraitStrength {
			continue
		}
		var tag domain.Tag
		switch kind {
		case domain.TraitAggression:
			tag = "combat.seek"
		case domain.TraitCuriosity:
			tag = "explore.wander"
		case domain.TraitSociability:
			tag = "social.seek_company"
		case domain.TraitGreed:
			tag = "trade.barter"
		case domain.TraitCaution:
			tag = "defense.patrol"
		default:
			continue
		}
		leans = append(leans, lean{tag, t.Strength})
	}
	sort.SliceStable(leans, func(i, j int) bool {
		if leans[i].strength != leans[j].strength {
			return leans[i].strength > leans[j].strength
		}
		return leans[i].tag < leans[j].tag
	})
	out := make([]domain.Tag, 0, len(leans))
	for _, l := range leans {
		out = append(out, l.tag)
	}
	return out
}

// Traits snapshots the trait map for the brain's input vector.
func (m *Modulator) Traits() map[domain.TraitKind]float32 {
	out := make(map[domain.TraitKind]float32, len(m.traits))
	for kind, t := range m.traits {
		out[kind] = t.Strength
	}
	return out
}

// Export snapshots every trait for persistence.
func (m *Modulator) Export() []domain.Trait {
	out := make([]domain.Trait, 0, len(m.traits))
	for _, t := range m.traits {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Kind < out[j].Kind })
	return out
}

// Import restores traits from a snapshot, replacing any existing set.
func (m *Modulator) Import(traits []domain.Trait) {
	m.traits = make(map[domain.TraitKind]*domain.Trait, len(traits))
	for _, t := range traits {
		m.SetTrait(t)
	}
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func abs32(v float32) float32 {
	return float32(math.Abs(float64(v)))
}
