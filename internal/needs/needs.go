// Package needs implements the per-agent drive model. Each need drifts
// every tick at its own signed rate, and threshold crossings are
// edge-triggered so a need screams once, not every frame.
package needs

import (
	"sort"

	"go.uber.org/zap"

	"github.com/hollowmere/npcmind/internal/domain"
)

const (
	DefaultGlobalMultiplier = 1.0
	changeEpsilon           = 0.01
)

// Change classifies a need notification.
type Change string

const (
	ChangeLevel     Change = "changed"
	ChangeUrgent    Change = "became_urgent"
	ChangeSatisfied Change = "satisfied"
)

// NotifyFunc observes need transitions. Runs on the ticking goroutine.
type NotifyFunc func(need domain.Need, change Change)

// Config tunes one agent's simulation.
type Config struct {
	// GlobalMultiplier scales every need's drift rate uniformly.
	GlobalMultiplier float32
}

func DefaultConfig() Config {
	return Config{GlobalMultiplier: DefaultGlobalMultiplier}
}

// Simulation owns one agent's needs. Exclusively owned by that agent and
// not safe for concurrent use.
type Simulation struct {
	cfg    Config
	logger *zap.Logger

	needs  map[domain.NeedKind]*domain.Need
	notify NotifyFunc
}

func NewSimulation(cfg Config, logger *zap.Logger) *Simulation {
	if cfg.GlobalMultiplier <= 0 {
		cfg.GlobalMultiplier = DefaultGlobalMultiplier
	}
	return &Simulation{
		cfg:    cfg,
		logger: logger,
		needs:  make(map[domain.NeedKind]*domain.Need),
	}
}

// DefaultRates are per-second drift rates tuned so hunger presses within
// minutes of sim time and curiosity builds over a longer horizon.
func DefaultRates() map[domain.NeedKind]float32 {
	return map[domain.NeedKind]float32{
		domain.NeedHunger:    0.002,
		domain.NeedFatigue:   0.0015,
		domain.NeedSafety:    0.0005,
		domain.NeedSocial:    0.001,
		domain.NeedCuriosity: 0.0008,
		domain.NeedComfort:   0.0006,
	}
}

// NewDefaultSimulation installs every known need at its default rate.
func NewDefaultSimulation(cfg Config, logger *zap.Logger) *Simulation {
	s := NewSimulation(cfg, logger)
	for kind, rate := range DefaultRates() {
		s.Add(domain.DefaultNeed(kind, rate))
	}
	return s
}

// SetNotifyFunc installs the transition observer.
func (s *Simulation) SetNotifyFunc(fn NotifyFunc) {
	s.notify = fn
}

// Add installs or replaces a need.
func (s *Simulation) Add(need domain.Need) {
	need.Level = clamp01(need.Level)
	n := need
	s.needs[n.Kind] = &n
}

// SetActive toggles a need without losing its level.
func (s *Simulation) SetActive(kind domain.NeedKind, active bool) {
	if n, ok := s.needs[kind]; ok {
		n.Active = active
	}
}

// Tick advances every active need by dt seconds. Urgency and satisfaction
// notifications fire only on the rising edge of their threshold crossings.
func (s *Simulation) Tick(dt float64) {
	for _, n := range s.needs {
		if !n.Active {
			continue
		}
		before := n.Level
		satisfiedBefore := before <= n.SatisfiedThreshold

		n.Level = clamp01(before + n.ChangeRate*s.cfg.GlobalMultiplier*float32(dt))

		wasUrgent := n.Urgent
		n.Urgent = n.Level >= n.UrgentThreshold
		if n.Urgent && !wasUrgent {
			s.logger.Debug("need became urgent",
				zap.String("kind", string(n.Kind)),
				zap.Float32("level", n.Level))
			s.emit(*n, ChangeUrgent)
		}

		satisfiedNow := n.Level <= n.SatisfiedThreshold
		if satisfiedNow && !satisfiedBefore {
			s.emit(*n, ChangeSatisfied)
		}

		if delta := n.Level - before; delta > changeEpsilon || delta < -changeEpsilon {
			s.emit(*n, ChangeLevel)
		}
	}
}

// Satisfy drops the need to its satisfied threshold, not to zero: the
// agent is relieved, not gorged.
func (s *Simulation) Satisfy(kind domain.NeedKind) {
	n, ok := s.needs[kind]
	if !ok {
		return
	}
	satisfiedBefore := n.Level <= n.SatisfiedThreshold
	n.Level = n.SatisfiedThreshold
	n.Urgent = false
	if !satisfiedBefore {
		s.emit(*n, ChangeSatisfied)
	}
}

// Level reports a need's current level, defaulting to a neutral 0.5 for
// needs this agent does not simulate.
func (s *Simulation) Level(kind domain.NeedKind) float32 {
	if n, ok := s.needs[kind]; ok {
		return n.Level
	}
	return 0.5
}

// Levels snapshots every active need for the brain's input vector.
func (s *Simulation) Levels() map[domain.NeedKind]float32 {
	out := make(map[domain.NeedKind]float32, len(s.needs))
	for kind, n := range s.needs {
		if n.Active {
			out[kind] = n.Level
		}
	}
	return out
}

// MostUrgent returns the urgent need with the highest level, if any.
func (s *Simulation) MostUrgent() (domain.NeedKind, bool) {
	var (
		best  domain.NeedKind
		level float32 = -1
	)
	for kind, n := range s.needs {
		if n.Active && n.Urgent && n.Level > level {
			best, level = kind, n.Level
		}
	}
	return best, level >= 0
}

// HasUrgent reports whether any active need is urgent.
func (s *Simulation) HasUrgent() bool {
	for _, n := range s.needs {
		if n.Active && n.Urgent {
			return true
		}
	}
	return false
}

// OverallWellbeing is the mean headroom across active needs: 1 means
// everything is met, 0 means everything is maximally pressing.
func (s *Simulation) OverallWellbeing() float32 {
	var sum float32
	count := 0
	for _, n := range s.needs {
		if !n.Active {
			continue
		}
		sum += 1 - n.Level
		count++
	}
	if count == 0 {
		return 1
	}
	return sum / float32(count)
}

// IntentSuggestions lists the intents that would relieve urgent needs,
// most pressing first. Advisory only; a planner may consult it but the
// brain does not.
func (s *Simulation) IntentSuggestions() []domain.Tag {
	var urgent []*domain.Need
	for _, n := range s.needs {
		if n.Active && n.Urgent {
			urgent = append(urgent, n)
		}
	}
	sort.SliceStable(urgent, func(i, j int) bool {
		if urgent[i].Level != urgent[j].Level {
			return urgent[i].Level > urgent[j].Level
		}
		return urgent[i].Kind < urgent[j].Kind
	})
	out := make([]domain.Tag, 0, len(urgent))
	for _, n := range urgent {
		if tag := n.SuggestedIntent(); tag.Valid() {
			out = append(out, tag)
		}
	}
	return out
}

// Export snapshots every need for persistence.
func (s *Simulation) Export() []domain.Need {
	out := make([]domain.Need, 0, len(s.needs))
	for _, n := range s.needs {
		out = append(out, *n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Kind < out[j].Kind })
	return out
}

// Import restores needs from a snapshot, replacing any existing set.
func (s *Simulation) Import(needs []domain.Need) {
	s.needs = make(map[domain.NeedKind]*domain.Need, len(needs))
	for _, need := range needs {
		s.Add(need)
	}
}

// Reset returns every need to its neutral starting level.
func (s *Simulation) Reset() {
	for _, n := range s.needs {
		n.Level = 0.5
		n.Urgent = false
	}
}

func (s *Simulation) emit(n domain.Need, change Change) {
	if s.notify != nil {
		s.notify(n, change)
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
