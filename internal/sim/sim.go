// Package sim runs the world: a fixed-step tick loop that owns the
// event bus, the agent table, and every agent's cognition set. The
// inspection API reads the world through this package; ticking and
// reading are serialized with a coarse lock.
package sim

import (
	"context"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/hollowmere/npcmind/internal/agent"
	"github.com/hollowmere/npcmind/internal/domain"
	"github.com/hollowmere/npcmind/internal/eventbus"
)

const (
	DefaultTickRate     = 10.0 // ticks per wall-clock second
	DefaultSnapshotKeep = 5
	snapshotSaveTimeout = 10 * time.Second
)

// Config tunes the world loop.
type Config struct {
	TickRate         float64
	SnapshotInterval float64 // sim seconds; 0 disables persistence
	SnapshotKeep     int

	Bus   eventbus.Config
	Agent agent.Config // template; Name and Position set per spawn
}

// World owns the shared simulation state.
type World struct {
	cfg    Config
	logger *zap.Logger

	// simTime is float64 bits; atomic so the bus clock never contends
	// with the tick lock.
	simTime   atomic.Uint64
	tickCount atomic.Uint64

	bus   *eventbus.Bus
	table *domain.Table

	mu     sync.RWMutex
	agents map[string]*agent.Agent

	snapshots      domain.SnapshotStore // may be nil
	lastSnapshotAt float64

	stopCh chan struct{}
	wg     sync.WaitGroup
}

func New(cfg Config, snapshots domain.SnapshotStore, logger *zap.Logger) *World {
	if cfg.TickRate <= 0 {
		cfg.TickRate = DefaultTickRate
	}
	if cfg.SnapshotKeep <= 0 {
		cfg.SnapshotKeep = DefaultSnapshotKeep
	}
	w := &World{
		cfg:       cfg,
		logger:    logger,
		table:     domain.NewTable(),
		agents:    make(map[string]*agent.Agent),
		snapshots: snapshots,
		stopCh:    make(chan struct{}),
	}
	w.bus = eventbus.New(cfg.Bus, w.Now, logger)
	return w
}

// Now is the world clock in sim seconds. Safe from any goroutine.
func (w *World) Now() float64 {
	return math.Float64frombits(w.simTime.Load())
}

// TickCount reports how many steps the world has run.
func (w *World) TickCount() uint64 {
	return w.tickCount.Load()
}

// Bus exposes the shared event bus.
func (w *World) Bus() *eventbus.Bus {
	return w.bus
}

// Spawn creates an agent from the config template and, when persistence
// is wired, restores its most recent snapshot.
func (w *World) Spawn(ctx context.Context, name string, pos domain.Vec3) *agent.Agent {
	cfg := w.cfg.Agent
	cfg.Name = name
	cfg.Position = pos

	w.mu.Lock()
	a := agent.New(cfg, w.bus, w.table, w.Now, w.logger)
	w.agents[name] = a
	w.mu.Unlock()

	if w.snapshots != nil {
		snap, err := w.snapshots.Load(ctx, name)
		if err == nil {
			a.Restore(snap)
		} else {
			w.logger.Debug("no snapshot restored",
				zap.String("agent", name), zap.Error(err))
		}
	}
	w.logger.Info("agent spawned", zap.String("agent", name))
	return a
}

// Despawn shuts an agent down and removes it from the world.
func (w *World) Despawn(name string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	a, ok := w.agents[name]
	if !ok {
		return false
	}
	a.Shutdown()
	delete(w.agents, name)
	return true
}

// WithAgent runs fn on a live agent under the world lock, serialized
// against ticking. Components are single-owner, so this is the only safe
// way for another goroutine to touch them.
func (w *World) WithAgent(name string, fn func(*agent.Agent)) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	a, ok := w.agents[name]
	if !ok {
		return false
	}
	fn(a)
	return true
}

// AgentNames lists the live agents.
func (w *World) AgentNames() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]string, 0, len(w.agents))
	for name := range w.agents {
		out = append(out, name)
	}
	return out
}

// Publish puts an event on the bus. Exposed so the inspection API and
// outer game code can inject world occurrences.
func (w *World) Publish(e domain.Event) error {
	return w.bus.Publish(e)
}

// Start launches the tick loop and the bus sweeper.
func (w *World) Start() {
	w.bus.Start()
	w.wg.Add(1)
	go w.run()
	w.logger.Info("world started", zap.Float64("tick_rate", w.cfg.TickRate))
}

// Stop halts the loop, takes a final snapshot pass, and stops the bus.
func (w *World) Stop() {
	close(w.stopCh)
	w.wg.Wait()
	w.bus.Stop()
	if w.snapshots != nil {
		w.saveSnapshots()
	}
	w.logger.Info("world stopped", zap.Uint64("ticks", w.tickCount.Load()))
}

func (w *World) run() {
	defer w.wg.Done()
	dt := 1.0 / w.cfg.TickRate
	ticker := time.NewTicker(time.Duration(float64(time.Second) * dt))
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.step(dt)
		case <-w.stopCh:
			return
		}
	}
}

// step advances sim time and ticks every agent. Agents are independent
// and could fan out across workers; a single pass is enough at the
// populations this harness runs.
func (w *World) step(dt float64) {
	now := w.Now() + dt
	w.simTime.Store(math.Float64bits(now))
	w.tickCount.Add(1)

	w.mu.Lock()
	for _, a := range w.agents {
		a.Tick(dt)
	}
	w.mu.Unlock()

	if w.snapshots != nil && w.cfg.SnapshotInterval > 0 &&
		now-w.lastSnapshotAt >= w.cfg.SnapshotInterval {
		w.lastSnapshotAt = now
		go w.saveSnapshots()
	}
}

// saveSnapshots persists every agent's state. Runs off the tick loop so
// database latency never stalls cognition.
func (w *World) saveSnapshots() {
	ctx, cancel := context.WithTimeout(context.Background(), snapshotSaveTimeout)
	defer cancel()

	w.mu.RLock()
	snaps := make([]*domain.AgentSnapshot, 0, len(w.agents))
	for _, a := range w.agents {
		snaps = append(snaps, a.Snapshot())
	}
	w.mu.RUnlock()

	for _, snap := range snaps {
		if err := w.snapshots.Save(ctx, snap); err != nil {
			w.logger.Warn("snapshot save failed",
				zap.String("agent", snap.AgentName), zap.Error(err))
			continue
		}
		if _, err := w.snapshots.DeleteOlderThan(ctx, snap.AgentName, w.cfg.SnapshotKeep); err != nil {
			w.logger.Warn("snapshot trim failed",
				zap.String("agent", snap.AgentName), zap.Error(err))
		}
	}
}
