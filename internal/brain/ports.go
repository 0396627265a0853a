package brain

import "github.com/hollowmere/npcmind/internal/domain"

// NeedsSource is the slice of the needs simulation the brain reads.
type NeedsSource interface {
	Levels() map[domain.NeedKind]float32
	HasUrgent() bool
	OverallWellbeing() float32
}

// PersonalitySource is the slice of the trait model the brain reads.
// ModifyIntent is applied to every candidate intent before validation.
type PersonalitySource interface {
	Traits() map[domain.TraitKind]float32
	ModifyIntent(intent domain.Intent) domain.Intent
}

// MemorySource lets the brain fold remembered experience into a decision.
type MemorySource interface {
	Recall(tag domain.Tag) []domain.MemoryEntry
}

// Strategy is the overridable decision hook. Either method may decline by
// returning false, which falls the brain back to its built-in rule.
type Strategy interface {
	DecideIntent(vec InputVector) (domain.Intent, bool)
	CuriosityIntent() (domain.Intent, bool)
}

// Executor consumes decided intents. If it declines an intent the brain
// settles to idle rather than erroring.
type Executor interface {
	CanExecute(intent domain.Intent) bool
	StartExecution(intent domain.Intent)
}

// IntentFunc observes adopted intents in subscription order.
type IntentFunc func(intent domain.Intent)

// Collaborators are resolved once at agent construction. Any field may be
// nil; the brain substitutes neutral defaults rather than failing.
type Collaborators struct {
	Needs       NeedsSource
	Personality PersonalitySource
	Memory      MemorySource
	Strategy    Strategy
	Executor    Executor
}
