// Package agent assembles one NPC's cognition set and wires it to the
// shared event bus. All cross-component references are resolved here,
// once, at construction; the components themselves never look each other
// up.
package agent

import (
	"sync"

	"go.uber.org/zap"

	"github.com/hollowmere/npcmind/internal/brain"
	"github.com/hollowmere/npcmind/internal/domain"
	"github.com/hollowmere/npcmind/internal/eventbus"
	"github.com/hollowmere/npcmind/internal/memory"
	"github.com/hollowmere/npcmind/internal/needs"
	"github.com/hollowmere/npcmind/internal/personality"
)

const (
	// DefaultDecayInterval is sim seconds between memory maintenance sweeps.
	DefaultDecayInterval = 30.0
	// recallWindow bounds how far back the brain's familiarity lookup reaches.
	recallWindow = 3600.0
)

// Config assembles one agent.
type Config struct {
	Name          string
	Position      domain.Vec3
	Subscriptions []domain.Tag // nil subscribes to everything
	DecayInterval float64

	Brain       brain.Config
	Memory      memory.Config
	Needs       needs.Config
	Personality personality.Config
}

// Agent owns one cognition set. Components are single-owner and
// unlocked; only the event inbox is shared with the bus's publishing
// goroutine and guarded accordingly.
type Agent struct {
	ref    domain.Ref
	name   string
	logger *zap.Logger
	clock  func() float64

	bus   *eventbus.Bus
	table *domain.Table

	brain       *brain.Brain
	memory      *memory.Store
	needs       *needs.Simulation
	personality *personality.Modulator

	mu       sync.Mutex
	inbox    []domain.Event
	position domain.Vec3

	decayInterval float64
	lastDecayAt   float64
}

// New registers the agent in the table, builds its components, resolves
// collaborator wiring, and subscribes it to the bus.
func New(cfg Config, bus *eventbus.Bus, table *domain.Table, clock func() float64, logger *zap.Logger) *Agent {
	if cfg.DecayInterval <= 0 {
		cfg.DecayInterval = DefaultDecayInterval
	}
	ref := table.Register(cfg.Name)
	log := logger.With(zap.String("agent", cfg.Name))

	a := &Agent{
		ref:           ref,
		name:          cfg.Name,
		logger:        log,
		clock:         clock,
		bus:           bus,
		table:         table,
		memory:        memory.NewStore(cfg.Memory, clock, table, log),
		needs:         needs.NewDefaultSimulation(cfg.Needs, log),
		personality:   personality.NewModulator(cfg.Personality, log),
		position:      cfg.Position,
		decayInterval: cfg.DecayInterval,
	}

	a.brain = brain.NewBrain(cfg.Brain, clock, brain.Collaborators{
		Needs:       a.needs,
		Personality: a.personality,
		Memory:      &memoryRecaller{store: a.memory},
	}, log)

	a.needs.SetNotifyFunc(a.onNeedChange)
	a.memory.SetForgottenFunc(func(e domain.MemoryEntry, reason memory.ForgetReason) {
		log.Debug("memory forgotten",
			zap.String("tag", string(e.Tag)),
			zap.String("reason", string(reason)))
	})

	bus.Subscribe(ref.ID, cfg.Subscriptions, a.Position, a.enqueue)
	a.brain.Enable()
	return a
}

// onNeedChange feeds drive transitions back into cognition: an urgent
// need arrives as an internal stimulus whose intensity is the need level,
// so a pressing drive can interrupt the same way a loud noise does.
func (a *Agent) onNeedChange(n domain.Need, change needs.Change) {
	switch change {
	case needs.ChangeUrgent:
		a.brain.Ingest(domain.Stimulus{
			Kind:      domain.StimulusInternal,
			Tag:       n.SuggestedIntent(),
			Intensity: n.Level,
			Location:  a.Position(),
		})
	case needs.ChangeSatisfied:
		a.logger.Debug("need satisfied", zap.String("kind", string(n.Kind)))
	}
}

// memoryRecaller narrows the store to the brain's recall port.
type memoryRecaller struct {
	store *memory.Store
}

func (r *memoryRecaller) Recall(tag domain.Tag) []domain.MemoryEntry {
	return r.store.Query(memory.Filter{
		Tag:        tag,
		TimeWindow: recallWindow,
		Sort:       memory.SortRelevance,
		Limit:      8,
		Touch:      true,
	})
}

// Ref returns the agent's stable handle.
func (a *Agent) Ref() domain.Ref { return a.ref }

// Name returns the agent's display name.
func (a *Agent) Name() string { return a.name }

// Brain exposes the decision loop for strategy and executor binding.
func (a *Agent) Brain() *brain.Brain { return a.brain }

// Memory exposes the store for inspection.
func (a *Agent) Memory() *memory.Store { return a.memory }

// Needs exposes the drive simulation for inspection.
func (a *Agent) Needs() *needs.Simulation { return a.needs }

// Personality exposes the trait model for inspection.
func (a *Agent) Personality() *personality.Modulator { return a.personality }

// Position is safe to call from the bus's delivery path.
func (a *Agent) Position() domain.Vec3 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.position
}

// SetPosition moves the agent; the bus reads it on the next delivery.
func (a *Agent) SetPosition(p domain.Vec3) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.position = p
}

// enqueue is the bus delivery callback. Events are only queued here;
// cognition sees them when the owning tick drains the inbox.
func (a *Agent) enqueue(e domain.Event) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.inbox = append(a.inbox, e)
}

// Tick advances the whole cognition set by dt sim seconds: drain the
// inbox into stimuli/memories/experience, drift needs, update the brain,
// and run memory maintenance on its own cadence.
func (a *Agent) Tick(dt float64) {
	now := a.clock()

	a.mu.Lock()
	pending := a.inbox
	a.inbox = nil
	a.mu.Unlock()

	for _, e := range pending {
		a.absorb(e)
	}

	a.needs.Tick(dt)
	a.brain.Update(dt)

	if now-a.lastDecayAt >= a.decayInterval {
		a.memory.DecayTick(now)
		a.lastDecayAt = now
	}
}

// absorb routes one bus event into every interested component: the brain
// gets a stimulus, the store gets a memory, and the trait model gets the
// experience.
func (a *Agent) absorb(e domain.Event) {
	if e.Expired(a.clock()) {
		return
	}
	a.brain.Ingest(domain.FromEvent(e))
	a.memory.Form(memoryFromEvent(e))
	a.personality.ApplyExperience(e.Type, e.Strength)
}

// memoryFromEvent shapes a bus event into a memory entry. Relevance and
// emotional weight follow event strength; kind follows the tag family.
func memoryFromEvent(e domain.Event) domain.MemoryEntry {
	return domain.MemoryEntry{
		Kind:            memoryKindFor(e.Type),
		Tag:             e.Type,
		Relevance:       relevanceFor(e.Strength),
		Strength:        e.Strength,
		EmotionalWeight: emotionalWeightFor(e.Type, e.Strength),
		Location:        e.Location,
		PrimaryActor:    e.Instigator,
		SecondaryActor:  e.Target,
		Data:            e.Payload,
		Vivid:           e.Strength >= 0.9,
	}
}

func memoryKindFor(tag domain.Tag) domain.MemoryKind {
	switch tag.Root() {
	case "combat", "attack", "death":
		return domain.MemoryCombat
	case "social", "trade", "dialogue":
		return domain.MemorySocial
	case "explore", "discovery":
		return domain.MemoryDiscovery
	case "zone", "location":
		return domain.MemoryLocation
	case "interaction":
		return domain.MemoryInteraction
	default:
		return domain.MemoryEvent
	}
}

func relevanceFor(strength float32) domain.Relevance {
	switch {
	case strength >= 0.9:
		return domain.RelevanceCritical
	case strength >= 0.7:
		return domain.RelevanceHigh
	case strength >= 0.4:
		return domain.RelevanceMedium
	case strength >= 0.2:
		return domain.RelevanceLow
	default:
		return domain.RelevanceTrivial
	}
}

// emotionalWeightFor marks threatening families negative and social ones
// positive, scaled by strength. Neutral families carry no charge.
func emotionalWeightFor(tag domain.Tag, strength float32) float32 {
	switch tag.Root() {
	case "combat", "attack", "death":
		return -strength
	case "social", "trade":
		return strength * 0.5
	case "discovery", "explore":
		return strength * 0.3
	default:
		return 0
	}
}

// Snapshot captures the agent's persistent state.
func (a *Agent) Snapshot() *domain.AgentSnapshot {
	return &domain.AgentSnapshot{
		AgentName: a.name,
		SimTime:   a.clock(),
		Memories:  a.memory.Export(),
		Needs:     a.needs.Export(),
		Traits:    a.personality.Export(),
	}
}

// Restore loads a snapshot over the current state.
func (a *Agent) Restore(snap *domain.AgentSnapshot) {
	a.memory.ClearAll(false)
	a.memory.Import(snap.Memories)
	a.needs.Import(snap.Needs)
	a.personality.Import(snap.Traits)
	a.logger.Info("agent restored",
		zap.Int("memories", len(snap.Memories)),
		zap.Float64("snapshot_time", snap.SimTime))
}

// Shutdown unsubscribes from the bus and releases the agent's handle:
// any refs other agents still hold go stale rather than dangling.
func (a *Agent) Shutdown() {
	a.brain.Disable()
	a.bus.Unsubscribe(a.ref.ID)
	a.table.Release(a.ref)
}
