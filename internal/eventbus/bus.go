// Package eventbus is the world-scoped publish/subscribe hub for AI events.
// One bus per world; agents subscribe with tag filters and receive events
// whose reach covers their position. History is bounded and swept.
package eventbus

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hollowmere/npcmind/internal/domain"
)

const (
	DefaultMaxHistory    = 1000
	DefaultHistoryTTL    = 300.0 // sim seconds
	DefaultSweepInterval = 5 * time.Second
)

// Config bounds the bus history.
type Config struct {
	MaxHistory    int
	HistoryTTL    float64 // sim seconds an event stays queryable
	SweepInterval time.Duration
}

func DefaultConfig() Config {
	return Config{
		MaxHistory:    DefaultMaxHistory,
		HistoryTTL:    DefaultHistoryTTL,
		SweepInterval: DefaultSweepInterval,
	}
}

// DeliverFunc receives one event. It runs on the publisher's goroutine and
// must not call back into the bus; deliver into a queue and return.
type DeliverFunc func(domain.Event)

type subscriber struct {
	id      domain.AgentID
	filters []domain.Tag // nil means all types
	locate  func() domain.Vec3
	deliver DeliverFunc
}

func (s *subscriber) wants(t domain.Tag) bool {
	if s.filters == nil {
		return true
	}
	return t.MatchesAny(s.filters)
}

// Bus is the shared event hub. All state is guarded by one mutex; expected
// event volumes do not justify anything finer (publishes are appends plus
// queue handoffs).
type Bus struct {
	mu sync.Mutex

	cfg    Config
	clock  func() float64
	logger *zap.Logger

	history []domain.Event // insertion order == timestamp order
	byType  map[domain.Tag][]uuid.UUID
	subs    []*subscriber // delivery order == subscription order

	published uint64
	dropped   uint64

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// New creates a bus. clock returns the current sim time in seconds and must
// be monotonic non-decreasing.
func New(cfg Config, clock func() float64, logger *zap.Logger) *Bus {
	if cfg.MaxHistory <= 0 {
		cfg.MaxHistory = DefaultMaxHistory
	}
	if cfg.HistoryTTL <= 0 {
		cfg.HistoryTTL = DefaultHistoryTTL
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = DefaultSweepInterval
	}
	return &Bus{
		cfg:    cfg,
		clock:  clock,
		logger: logger,
		byType: make(map[domain.Tag][]uuid.UUID),
		stopCh: make(chan struct{}),
	}
}

// Subscribe registers a subscriber. A nil or empty filter set means "all
// types". Re-subscribing with the same id replaces the old filters but
// keeps the original delivery position.
func (b *Bus) Subscribe(id domain.AgentID, filters []domain.Tag, locate func() domain.Vec3, deliver DeliverFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(filters) == 0 {
		filters = nil
	}
	for _, s := range b.subs {
		if s.id == id {
			s.filters = filters
			s.locate = locate
			s.deliver = deliver
			return
		}
	}
	b.subs = append(b.subs, &subscriber{id: id, filters: filters, locate: locate, deliver: deliver})
}

// Unsubscribe removes a subscriber. Unknown ids are a no-op.
func (b *Bus) Unsubscribe(id domain.AgentID) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, s := range b.subs {
		if s.id == id {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			return
		}
	}
}

// Publish validates the event, stores it in history, and fans it out to
// matching subscribers in subscription order. Invalid events are dropped
// whole: no partial delivery.
func (b *Bus) Publish(e domain.Event) error {
	if err := e.Validate(); err != nil {
		b.mu.Lock()
		b.dropped++
		b.mu.Unlock()
		b.logger.Warn("event rejected",
			zap.String("type", string(e.Type)),
			zap.Float32("strength", e.Strength),
			zap.Error(err))
		return err
	}
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	// Stamped here regardless of what the caller set: Query's reverse
	// scan relies on history being timestamp-ordered.
	e.Timestamp = b.clock()

	b.mu.Lock()
	defer b.mu.Unlock()

	b.history = append(b.history, e)
	b.byType[e.Type] = append(b.byType[e.Type], e.ID)
	b.published++

	for _, s := range b.subs {
		if !e.Global && !s.wants(e.Type) {
			continue
		}
		if s.locate != nil && !e.Reaches(s.locate()) {
			continue
		}
		s.deliver(e)
	}
	return nil
}

// Query returns history events matching the tag hierarchy within the time
// window, most recent first. Pure read: no access counts, no mutation.
// A non-nil location restricts results to events within radius of it.
func (b *Bus) Query(typ domain.Tag, window float64, location *domain.Vec3, radius float64) []domain.Event {
	now := b.clock()
	cutoff := now - window

	b.mu.Lock()
	defer b.mu.Unlock()

	var out []domain.Event
	for i := len(b.history) - 1; i >= 0; i-- {
		e := &b.history[i]
		if e.Timestamp < cutoff {
			break // history is timestamp-ordered
		}
		if typ.Valid() && !e.Type.Matches(typ) {
			continue
		}
		if location != nil && radius > 0 && domain.Distance(e.Location, *location) > radius {
			continue
		}
		out = append(out, *e)
	}
	return out
}

// Sweep removes expired and TTL-aged events, then enforces the history cap
// oldest-first. History is insertion-ordered, so eviction only ever walks
// from the front. Safe and idempotent to call at any time.
func (b *Bus) Sweep(now float64) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	removed := 0

	// TTL and explicit expiry. Expired events can sit mid-history, so this
	// pass compacts in place; the TTL cut alone would only trim the front.
	kept := b.history[:0]
	for i := range b.history {
		e := b.history[i]
		if e.Expired(now) || now-e.Timestamp > b.cfg.HistoryTTL {
			b.unindex(e)
			removed++
			continue
		}
		kept = append(kept, e)
	}
	b.history = kept

	// Capacity: oldest-by-timestamp first, which is the front.
	for len(b.history) > b.cfg.MaxHistory {
		b.unindex(b.history[0])
		b.history = b.history[1:]
		removed++
	}

	if removed > 0 {
		b.logger.Debug("bus sweep", zap.Int("removed", removed), zap.Int("remaining", len(b.history)))
	}
	return removed
}

func (b *Bus) unindex(e domain.Event) {
	ids := b.byType[e.Type]
	for i, id := range ids {
		if id == e.ID {
			ids = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	if len(ids) == 0 {
		delete(b.byType, e.Type)
	} else {
		b.byType[e.Type] = ids
	}
}

// Start launches the periodic sweep worker.
func (b *Bus) Start() {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		ticker := time.NewTicker(b.cfg.SweepInterval)
		defer ticker.Stop()

		b.logger.Info("bus sweep worker started", zap.Duration("interval", b.cfg.SweepInterval))

		for {
			select {
			case <-ticker.C:
				b.Sweep(b.clock())
			case <-b.stopCh:
				b.logger.Info("bus sweep worker stopped")
				return
			}
		}
	}()
}

// Stop terminates the sweep worker and waits for it.
func (b *Bus) Stop() {
	close(b.stopCh)
	b.wg.Wait()
}

// Stats reports counters for the inspection surface.
type Stats struct {
	HistoryLen  int    `json:"history_len"`
	Subscribers int    `json:"subscribers"`
	Published   uint64 `json:"published"`
	Dropped     uint64 `json:"dropped"`
}

func (b *Bus) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Stats{
		HistoryLen:  len(b.history),
		Subscribers: len(b.subs),
		Published:   b.published,
		Dropped:     b.dropped,
	}
}

// TypeCounts returns how many live history events each tag currently has,
// straight off the type index.
func (b *Bus) TypeCounts() map[domain.Tag]int {
	b.mu.Lock()
	defer b.mu.Unlock()

	counts := make(map[domain.Tag]int, len(b.byType))
	for tag, ids := range b.byType {
		counts[tag] = len(ids)
	}
	return counts
}
