// Package brain implements the per-agent decision loop: a rolling
// stimulus buffer, an input vector summarizing the agent's situation,
// and a tiered rule (overridable by a strategy hook) that turns the
// strongest signal into an intent.
package brain

import (
	"math/rand"

	"go.uber.org/zap"

	"github.com/hollowmere/npcmind/internal/domain"
)

const (
	DefaultStimuliMemoryDuration = 10.0 // sim seconds a stimulus stays "active"
	DefaultCuriosityThreshold    = 30.0 // sim seconds of silence before curiosity
	DefaultMaxTrackedStimuli     = 32
	DefaultIdleIntent            = domain.Tag("idle.wait")

	highIntensityThreshold = 0.8
	curiosityConfidence    = 0.6
	idleConfidence         = 0.8
)

// DefaultCuriosityIntents is the uniform pool the curiosity fallback
// draws from when no strategy hook supplies one.
func DefaultCuriosityIntents() []domain.Tag {
	return []domain.Tag{"explore.wander", "explore.investigate_area", "social.seek_company", "idle.observe"}
}

// Config tunes one agent's brain.
type Config struct {
	StimuliMemoryDuration float64
	CuriosityThreshold    float64
	MaxTrackedStimuli     int
	IdleIntent            domain.Tag
	CuriosityIntents      []domain.Tag
	// Seed fixes the curiosity picker; 0 seeds arbitrarily.
	Seed int64
}

func DefaultConfig() Config {
	return Config{
		StimuliMemoryDuration: DefaultStimuliMemoryDuration,
		CuriosityThreshold:    DefaultCuriosityThreshold,
		MaxTrackedStimuli:     DefaultMaxTrackedStimuli,
		IdleIntent:            DefaultIdleIntent,
		CuriosityIntents:      DefaultCuriosityIntents(),
	}
}

// InputVector summarizes everything the decision rule looks at for one
// cycle. Stimulus signals keep the max effective value per kind; a strong
// recent hit dominates a kind, sums would let noise drown it.
type InputVector struct {
	Signals       map[domain.StimulusKind]float32
	StrongestKind domain.StimulusKind
	StrongestTag  domain.Tag
	Strongest     float32

	Needs          map[domain.NeedKind]float32
	HasUrgentNeeds bool
	Wellbeing      float32

	Traits map[domain.TraitKind]float32

	// Familiarity is the best relevance-weighted strength among memories
	// recalled for the strongest stimulus tag.
	Familiarity float32

	Time              float64
	TimeSinceStimulus float64
}

// Brain owns one agent's decision state. Exclusively owned by that agent
// and not safe for concurrent use; the owning tick loop serializes access.
type Brain struct {
	cfg    Config
	clock  func() float64
	logger *zap.Logger
	rng    *rand.Rand

	collab Collaborators

	state             domain.BrainState
	stimuli           []domain.Stimulus
	timeSinceStimulus float64
	lastIntent        domain.Intent
	hasIntent         bool
	decidedThisTick   bool

	subscribers []IntentFunc
}

func NewBrain(cfg Config, clock func() float64, collab Collaborators, logger *zap.Logger) *Brain {
	if cfg.StimuliMemoryDuration <= 0 {
		cfg.StimuliMemoryDuration = DefaultStimuliMemoryDuration
	}
	if cfg.CuriosityThreshold <= 0 {
		cfg.CuriosityThreshold = DefaultCuriosityThreshold
	}
	if cfg.MaxTrackedStimuli <= 0 {
		cfg.MaxTrackedStimuli = DefaultMaxTrackedStimuli
	}
	if !cfg.IdleIntent.Valid() {
		cfg.IdleIntent = DefaultIdleIntent
	}
	if len(cfg.CuriosityIntents) == 0 {
		cfg.CuriosityIntents = DefaultCuriosityIntents()
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Int63()
	}
	return &Brain{
		cfg:    cfg,
		clock:  clock,
		logger: logger,
		rng:    rand.New(rand.NewSource(seed)),
		collab: collab,
		state:  domain.StateInactive,
	}
}

// State reports the current phase of the decision loop.
func (b *Brain) State() domain.BrainState {
	return b.state
}

// CurrentIntent returns the last adopted intent and whether one exists.
func (b *Brain) CurrentIntent() (domain.Intent, bool) {
	return b.lastIntent, b.hasIntent
}

// OnIntentChanged registers an observer. Observers run synchronously in
// subscription order whenever a new intent is adopted.
func (b *Brain) OnIntentChanged(fn IntentFunc) {
	b.subscribers = append(b.subscribers, fn)
}

// Enable wakes the brain from inactive.
func (b *Brain) Enable() {
	if b.state == domain.StateInactive {
		b.setState(domain.StateProcessing)
	}
}

// Disable halts the loop from any state. While disabled every operation
// is a no-op returning the last intent unchanged; that is idle behavior,
// not an error.
func (b *Brain) Disable() {
	b.setState(domain.StateInactive)
}

// Ingest appends a stimulus to the rolling buffer, re-stamped at the
// brain's clock. A high-intensity stimulus interrupts: it forces a full
// decision cycle synchronously inside this call.
func (b *Brain) Ingest(st domain.Stimulus) domain.Intent {
	if b.state == domain.StateInactive {
		return b.lastIntent
	}
	st.Timestamp = b.clock()
	b.stimuli = append(b.stimuli, st)
	if over := len(b.stimuli) - b.cfg.MaxTrackedStimuli; over > 0 {
		b.stimuli = b.stimuli[over:]
	}
	b.timeSinceStimulus = 0

	if st.Intensity >= highIntensityThreshold {
		b.logger.Debug("high intensity interrupt",
			zap.String("tag", string(st.Tag)),
			zap.Float32("intensity", st.Intensity))
		return b.decide()
	}
	if b.state == domain.StateIdle {
		b.setState(domain.StateProcessing)
	}
	return b.lastIntent
}

// Update advances the loop by dt sim seconds: ages the silence timer,
// prunes stimuli past 1.5x the active window, and runs the curiosity
// fallback. It does not regenerate the intent unconditionally; decisions
// are driven by interrupts, curiosity, or Force.
func (b *Brain) Update(dt float64) {
	if b.state == domain.StateInactive {
		return
	}
	b.decidedThisTick = false
	b.timeSinceStimulus += dt
	b.prune()

	if b.timeSinceStimulus > b.cfg.CuriosityThreshold {
		b.activateCuriosity()
	}

	if b.state == domain.StateExecuting && !b.decidedThisTick {
		b.setState(domain.StateIdle)
	}
}

// Force runs a decision cycle immediately regardless of pending input.
func (b *Brain) Force() domain.Intent {
	if b.state == domain.StateInactive {
		return b.lastIntent
	}
	return b.decide()
}

// GenerateIntent runs the rule path once and returns the decided intent
// without waiting for the next update.
func (b *Brain) GenerateIntent() domain.Intent {
	return b.Force()
}

// BuildInputVector snapshots the agent's situation. Absent collaborators
// contribute neutral values instead of failing the cycle.
func (b *Brain) BuildInputVector() InputVector {
	now := b.clock()
	vec := InputVector{
		Signals:           make(map[domain.StimulusKind]float32),
		Wellbeing:         0.5,
		Time:              now,
		TimeSinceStimulus: b.timeSinceStimulus,
	}

	for i := range b.stimuli {
		st := &b.stimuli[i]
		age := now - st.Timestamp
		if age > b.cfg.StimuliMemoryDuration {
			continue
		}
		decay := 1 - age/b.cfg.StimuliMemoryDuration
		if decay < 0 {
			decay = 0
		}
		effective := st.Intensity * float32(decay)
		if effective > vec.Signals[st.Kind] {
			vec.Signals[st.Kind] = effective
		}
		if effective > vec.Strongest {
			vec.Strongest = effective
			vec.StrongestKind = st.Kind
			vec.StrongestTag = st.Tag
		}
	}

	if n := b.collab.Needs; n != nil {
		vec.Needs = n.Levels()
		vec.HasUrgentNeeds = n.HasUrgent()
		vec.Wellbeing = n.OverallWellbeing()
	}
	if p := b.collab.Personality; p != nil {
		vec.Traits = p.Traits()
	}
	if m := b.collab.Memory; m != nil && vec.StrongestTag.Valid() {
		for _, e := range m.Recall(vec.StrongestTag) {
			if f := e.Relevance.Float() * e.CurrentStrength(now); f > vec.Familiarity {
				vec.Familiarity = f
			}
		}
	}
	return vec
}

// decide runs one full cycle: build, choose, modulate, validate, adopt.
// A candidate that fails validation is discarded; the brain returns to
// processing with the previous intent intact and no broadcast.
func (b *Brain) decide() domain.Intent {
	b.setState(domain.StateDeciding)
	vec := b.BuildInputVector()

	candidate, ok := b.strategyIntent(vec)
	if !ok {
		candidate = b.ruleIntent(vec)
	}
	candidate = b.modulate(candidate)
	candidate.CreatedAt = vec.Time

	if err := candidate.Validate(); err != nil {
		b.logger.Warn("intent rejected",
			zap.String("tag", string(candidate.Tag)),
			zap.Error(err))
		b.setState(domain.StateProcessing)
		return b.lastIntent
	}

	b.adopt(candidate)
	return candidate
}

func (b *Brain) strategyIntent(vec InputVector) (domain.Intent, bool) {
	if b.collab.Strategy == nil {
		return domain.Intent{}, false
	}
	intent, ok := b.collab.Strategy.DecideIntent(vec)
	if !ok || !intent.Tag.Valid() {
		return domain.Intent{}, false
	}
	return intent, true
}

// ruleIntent is the built-in tiered decision rule. Confidence follows the
// driving signal except at idle, where the agent is confidently idle
// rather than uncertain.
func (b *Brain) ruleIntent(vec InputVector) domain.Intent {
	switch {
	case vec.Strongest > 0.7:
		tag, priority := highUrgencyMapping(vec.StrongestKind)
		return domain.Intent{Tag: tag, Priority: priority, Confidence: vec.Strongest}
	case vec.Strongest >= 0.3:
		return domain.Intent{Tag: "idle.observe", Priority: domain.PriorityMedium, Confidence: vec.Strongest}
	default:
		return domain.Intent{Tag: b.cfg.IdleIntent, Priority: domain.PriorityIdle, Confidence: idleConfidence}
	}
}

func highUrgencyMapping(kind domain.StimulusKind) (domain.Tag, domain.Priority) {
	switch kind {
	case domain.StimulusWorldEvent:
		return "react.world_event", domain.PriorityHigh
	case domain.StimulusAudio:
		return "investigate.sound", domain.PriorityHigh
	case domain.StimulusVisual:
		return "idle.observe", domain.PriorityMedium
	default:
		return "alert.general", domain.PriorityMedium
	}
}

func (b *Brain) modulate(intent domain.Intent) domain.Intent {
	if p := b.collab.Personality; p != nil {
		return p.ModifyIntent(intent)
	}
	return intent
}

// adopt publishes a validated intent and hands it to the executor. A
// declined or absent executor settles the brain to idle.
func (b *Brain) adopt(intent domain.Intent) {
	b.lastIntent = intent
	b.hasIntent = true
	b.decidedThisTick = true
	b.logger.Debug("intent adopted",
		zap.String("tag", string(intent.Tag)),
		zap.String("priority", intent.Priority.String()),
		zap.Float32("confidence", intent.Confidence))

	if ex := b.collab.Executor; ex != nil && ex.CanExecute(intent) {
		b.setState(domain.StateExecuting)
		ex.StartExecution(intent)
	} else {
		b.setState(domain.StateIdle)
	}

	for _, fn := range b.subscribers {
		fn(intent)
	}
}

// ExecuteIntent hands an externally supplied intent to the executor. A
// declined or absent executor settles the brain to idle; neither is an
// error.
func (b *Brain) ExecuteIntent(intent domain.Intent) {
	if b.state == domain.StateInactive {
		return
	}
	if err := intent.Validate(); err != nil {
		b.logger.Warn("external intent rejected", zap.Error(err))
		return
	}
	b.adopt(intent)
}

// activateCuriosity decides a low-stakes intent after prolonged silence:
// the strategy hook gets first refusal, otherwise a uniform pick from the
// configured set. The candidate skips personality modulation; curiosity
// carries a fixed low confidence rather than a trait-weighted one.
// Resets the silence timer so boredom builds up again before the next
// wander.
func (b *Brain) activateCuriosity() {
	candidate, ok := b.curiosityCandidate()
	if !ok {
		return
	}
	candidate.CreatedAt = b.clock()
	if err := candidate.Validate(); err != nil {
		b.logger.Warn("curiosity intent rejected", zap.Error(err))
		return
	}
	b.timeSinceStimulus = 0
	b.adopt(candidate)
}

func (b *Brain) curiosityCandidate() (domain.Intent, bool) {
	if s := b.collab.Strategy; s != nil {
		if intent, ok := s.CuriosityIntent(); ok && intent.Tag.Valid() {
			return intent, true
		}
	}
	if len(b.cfg.CuriosityIntents) == 0 {
		return domain.Intent{}, false
	}
	tag := b.cfg.CuriosityIntents[b.rng.Intn(len(b.cfg.CuriosityIntents))]
	return domain.Intent{
		Tag:        tag,
		Priority:   domain.PriorityLow,
		Confidence: curiosityConfidence,
	}, true
}

// prune drops stimuli past 1.5x the active window. Entries between 1x
// and 1.5x stay buffered but contribute nothing to the input vector.
func (b *Brain) prune() {
	cutoff := b.clock() - 1.5*b.cfg.StimuliMemoryDuration
	kept := b.stimuli[:0]
	for _, st := range b.stimuli {
		if st.Timestamp >= cutoff {
			kept = append(kept, st)
		}
	}
	b.stimuli = kept
}

// StimulusCount reports the buffer size, for the inspection surface.
func (b *Brain) StimulusCount() int {
	return len(b.stimuli)
}

func (b *Brain) setState(next domain.BrainState) {
	if b.state == next {
		return
	}
	b.logger.Debug("brain state",
		zap.String("from", string(b.state)),
		zap.String("to", string(next)))
	b.state = next
}
