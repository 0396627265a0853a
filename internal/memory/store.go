// Package memory implements a per-agent, two-tier decaying memory store.
// Entries are bucketed by (tier, kind); strength is always derived from
// age at read time, never eagerly recomputed, so a decay tick only moves,
// forgets, and evicts.
package memory

import (
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hollowmere/npcmind/internal/domain"
)

const (
	DefaultMaxShortTerm      = 50
	DefaultShortTermDuration = 600.0 // sim seconds an entry is considered "recent"
	DefaultLongTermThreshold = 0.75
	DefaultForgetThreshold   = 0.05
	DefaultDecayRate         = 0.5 // per hour, before vividness/emotion adjustment
)

// Config bounds and tunes one agent's store.
type Config struct {
	MaxShortTerm      int     // per (short-term, kind) bucket
	MaxLongTerm       int     // per (long-term, kind) bucket; 0 = unlimited
	ShortTermDuration float64 // sim seconds
	LongTermThreshold float32
	ForgetThreshold   float32
}

func DefaultConfig() Config {
	return Config{
		MaxShortTerm:      DefaultMaxShortTerm,
		MaxLongTerm:       0,
		ShortTermDuration: DefaultShortTermDuration,
		LongTermThreshold: DefaultLongTermThreshold,
		ForgetThreshold:   DefaultForgetThreshold,
	}
}

// ForgetReason says why an entry left the store.
type ForgetReason string

const (
	ForgetDecayed ForgetReason = "decayed"
	ForgetEvicted ForgetReason = "evicted"
	ForgetCleared ForgetReason = "cleared"
)

// ForgottenFunc observes removals. Runs on the caller's goroutine.
type ForgottenFunc func(entry domain.MemoryEntry, reason ForgetReason)

// SortMode orders query results.
type SortMode string

const (
	SortNone      SortMode = "none"
	SortRelevance SortMode = "relevance" // relevance weight x current strength, descending
	SortRecency   SortMode = "recency"   // created_at descending
)

// Filter selects entries for Query. Zero values mean "don't filter on this".
type Filter struct {
	Kind         domain.MemoryKind
	Tag          domain.Tag
	MinRelevance domain.Relevance
	TimeWindow   float64 // seconds back from now; 0 = unlimited
	Location     *domain.Vec3
	Radius       float64
	Actor        *domain.Ref
	MinStrength  float32
	Sort         SortMode
	Limit        int
	Touch        bool
}

type bucket []*domain.MemoryEntry

// Store holds one agent's memories. It is exclusively owned by that agent
// and not safe for concurrent use; the owning tick loop serializes access.
type Store struct {
	cfg    Config
	clock  func() float64
	table  *domain.Table // may be nil; enables stale-ref checks
	logger *zap.Logger

	buckets     map[domain.MemoryTier]map[domain.MemoryKind]bucket
	onForgotten ForgottenFunc
}

func NewStore(cfg Config, clock func() float64, table *domain.Table, logger *zap.Logger) *Store {
	if cfg.MaxShortTerm <= 0 {
		cfg.MaxShortTerm = DefaultMaxShortTerm
	}
	if cfg.ShortTermDuration <= 0 {
		cfg.ShortTermDuration = DefaultShortTermDuration
	}
	if cfg.LongTermThreshold <= 0 {
		cfg.LongTermThreshold = DefaultLongTermThreshold
	}
	if cfg.ForgetThreshold <= 0 {
		cfg.ForgetThreshold = DefaultForgetThreshold
	}
	return &Store{
		cfg:    cfg,
		clock:  clock,
		table:  table,
		logger: logger,
		buckets: map[domain.MemoryTier]map[domain.MemoryKind]bucket{
			domain.TierShortTerm: make(map[domain.MemoryKind]bucket),
			domain.TierLongTerm:  make(map[domain.MemoryKind]bucket),
		},
	}
}

// SetForgottenFunc installs the removal observer.
func (s *Store) SetForgottenFunc(fn ForgottenFunc) {
	s.onForgotten = fn
}

// Form stamps and stores a new entry, deciding its tier up front: entries
// that already qualify unconditionally (permanent, critical) skip the
// short-term stage entirely. Returns the new entry's id.
func (s *Store) Form(entry domain.MemoryEntry) uuid.UUID {
	now := s.clock()
	entry.ID = uuid.New()
	entry.CreatedAt = now
	entry.LastAccessedAt = now
	if entry.DecayRate <= 0 {
		entry.DecayRate = DefaultDecayRate
	}
	if entry.Strength < 0 {
		entry.Strength = 0
	}
	if entry.Strength > 1 {
		entry.Strength = 1
	}

	tier := domain.TierShortTerm
	if entry.Permanent || entry.Relevance >= domain.RelevanceCritical {
		tier = domain.TierLongTerm
	}

	e := entry
	s.buckets[tier][e.Kind] = append(s.buckets[tier][e.Kind], &e)

	s.logger.Debug("memory formed",
		zap.String("kind", string(e.Kind)),
		zap.String("tag", string(e.Tag)),
		zap.String("tier", string(tier)),
		zap.String("relevance", e.Relevance.String()))
	return e.ID
}

// Query returns copies of matching entries. With Touch set, matched entries
// are access-reinforced before copying. A filter on a stale actor reference
// matches nothing.
func (s *Store) Query(f Filter) []domain.MemoryEntry {
	now := s.clock()

	if f.Actor != nil && s.stale(*f.Actor) {
		return nil
	}

	var matched []*domain.MemoryEntry
	s.each(func(_ domain.MemoryTier, _ domain.MemoryKind, e *domain.MemoryEntry) {
		if !s.matches(e, f, now) {
			return
		}
		matched = append(matched, e)
	})

	switch f.Sort {
	case SortRelevance:
		sort.SliceStable(matched, func(i, j int) bool {
			ki := matched[i].Relevance.Float() * matched[i].CurrentStrength(now)
			kj := matched[j].Relevance.Float() * matched[j].CurrentStrength(now)
			return ki > kj
		})
	case SortRecency:
		sort.SliceStable(matched, func(i, j int) bool {
			return matched[i].CreatedAt > matched[j].CreatedAt
		})
	}

	if f.Limit > 0 && len(matched) > f.Limit {
		matched = matched[:f.Limit]
	}

	out := make([]domain.MemoryEntry, 0, len(matched))
	for _, e := range matched {
		if f.Touch {
			e.Reinforce(now)
		}
		out = append(out, *e)
	}
	return out
}

func (s *Store) matches(e *domain.MemoryEntry, f Filter, now float64) bool {
	if f.Kind != "" && e.Kind != f.Kind {
		return false
	}
	if f.Tag.Valid() && !e.Tag.Matches(f.Tag) {
		return false
	}
	if e.Relevance < f.MinRelevance {
		return false
	}
	if f.TimeWindow > 0 && now-e.CreatedAt > f.TimeWindow {
		return false
	}
	if f.Location != nil && f.Radius > 0 && domain.Distance(e.Location, *f.Location) > f.Radius {
		return false
	}
	if f.Actor != nil && e.PrimaryActor != *f.Actor && e.SecondaryActor != *f.Actor {
		return false
	}
	if f.MinStrength > 0 && e.CurrentStrength(now) < f.MinStrength {
		return false
	}
	return true
}

// DecayTick runs the maintenance passes in order: promotion, forgetting,
// then capacity eviction. Strength itself is lazy, so running this twice
// back to back changes nothing the second time.
func (s *Store) DecayTick(now float64) {
	s.sweepStaleRefs()
	s.promote(now)
	s.forgetWeak(now)
	s.evict(now, domain.TierShortTerm, s.cfg.MaxShortTerm)
	if s.cfg.MaxLongTerm > 0 {
		s.evict(now, domain.TierLongTerm, s.cfg.MaxLongTerm)
	}
}

// promote moves qualifying short-term entries into long-term. Permanent and
// critical entries promote unconditionally; the rest need the strength or
// relevance bar plus enough age (vivid entries settle sooner).
func (s *Store) promote(now float64) {
	short := s.buckets[domain.TierShortTerm]
	long := s.buckets[domain.TierLongTerm]

	promoted := 0
	for kind, entries := range short {
		kept := entries[:0]
		for _, e := range entries {
			if s.shouldPromote(e, now) {
				long[kind] = append(long[kind], e)
				promoted++
				continue
			}
			kept = append(kept, e)
		}
		short[kind] = kept
	}
	if promoted > 0 {
		s.logger.Debug("memories promoted", zap.Int("count", promoted))
	}
}

func (s *Store) shouldPromote(e *domain.MemoryEntry, now float64) bool {
	if e.Permanent || e.Relevance >= domain.RelevanceCritical {
		return true
	}
	qualifies := e.CurrentStrength(now) >= s.cfg.LongTermThreshold || e.Relevance >= domain.RelevanceHigh
	if !qualifies {
		return false
	}
	age := e.AgeSeconds(now)
	if age >= 0.5*s.cfg.ShortTermDuration {
		return true
	}
	return e.Vivid && age >= 0.3*s.cfg.ShortTermDuration
}

// forgetWeak drops entries whose computed strength fell under the forget
// threshold. Permanent entries never decay out.
func (s *Store) forgetWeak(now float64) {
	for _, kinds := range s.buckets {
		for kind, entries := range kinds {
			kept := entries[:0]
			for _, e := range entries {
				if !e.Permanent && e.CurrentStrength(now) < s.cfg.ForgetThreshold {
					s.notifyForgotten(*e, ForgetDecayed)
					continue
				}
				kept = append(kept, e)
			}
			kinds[kind] = kept
		}
	}
}

// evict enforces a per-bucket cap: weakest current strength goes first,
// oldest first among equals.
func (s *Store) evict(now float64, tier domain.MemoryTier, limit int) {
	for kind, entries := range s.buckets[tier] {
		over := len(entries) - limit
		if over <= 0 {
			continue
		}
		sort.SliceStable(entries, func(i, j int) bool {
			si, sj := entries[i].CurrentStrength(now), entries[j].CurrentStrength(now)
			if si != sj {
				return si < sj
			}
			return entries[i].CreatedAt < entries[j].CreatedAt
		})
		for _, e := range entries[:over] {
			s.notifyForgotten(*e, ForgetEvicted)
		}
		s.buckets[tier][kind] = entries[over:]
	}
}

// sweepStaleRefs nulls out actor references whose agents are gone, so later
// queries and snapshots do not carry dead handles around.
func (s *Store) sweepStaleRefs() {
	if s.table == nil {
		return
	}
	s.each(func(_ domain.MemoryTier, _ domain.MemoryKind, e *domain.MemoryEntry) {
		if !e.PrimaryActor.IsNil() && !s.table.Alive(e.PrimaryActor) {
			e.PrimaryActor = domain.NilRef
		}
		if !e.SecondaryActor.IsNil() && !s.table.Alive(e.SecondaryActor) {
			e.SecondaryActor = domain.NilRef
		}
	})
}

// ForgetAbout removes every memory involving the actor. Stale references
// are a no-op, not an error.
func (s *Store) ForgetAbout(actor domain.Ref) int {
	if actor.IsNil() || s.stale(actor) {
		return 0
	}
	return s.removeWhere(func(e *domain.MemoryEntry) bool {
		return e.PrimaryActor == actor || e.SecondaryActor == actor
	})
}

// ForgetKind drops an entire kind bucket from both tiers.
func (s *Store) ForgetKind(kind domain.MemoryKind) int {
	return s.removeWhere(func(e *domain.MemoryEntry) bool {
		return e.Kind == kind
	})
}

// ClearAll wipes the store, optionally sparing permanent entries.
func (s *Store) ClearAll(keepPermanent bool) int {
	return s.removeWhere(func(e *domain.MemoryEntry) bool {
		return !(keepPermanent && e.Permanent)
	})
}

func (s *Store) removeWhere(match func(*domain.MemoryEntry) bool) int {
	removed := 0
	for _, kinds := range s.buckets {
		for kind, entries := range kinds {
			kept := entries[:0]
			for _, e := range entries {
				if match(e) {
					s.notifyForgotten(*e, ForgetCleared)
					removed++
					continue
				}
				kept = append(kept, e)
			}
			kinds[kind] = kept
		}
	}
	return removed
}

func (s *Store) notifyForgotten(e domain.MemoryEntry, reason ForgetReason) {
	if s.onForgotten != nil {
		s.onForgotten(e, reason)
	}
}

func (s *Store) stale(r domain.Ref) bool {
	return s.table != nil && !s.table.Alive(r)
}

func (s *Store) each(fn func(domain.MemoryTier, domain.MemoryKind, *domain.MemoryEntry)) {
	for tier, kinds := range s.buckets {
		for kind, entries := range kinds {
			for _, e := range entries {
				fn(tier, kind, e)
			}
		}
	}
}

// Count returns entries per tier.
func (s *Store) Count(tier domain.MemoryTier) int {
	n := 0
	for _, entries := range s.buckets[tier] {
		n += len(entries)
	}
	return n
}

// Stats summarizes the store for the inspection surface.
type Stats struct {
	ShortTerm int `json:"short_term"`
	LongTerm  int `json:"long_term"`
	Permanent int `json:"permanent"`
}

func (s *Store) Stats() Stats {
	st := Stats{
		ShortTerm: s.Count(domain.TierShortTerm),
		LongTerm:  s.Count(domain.TierLongTerm),
	}
	s.each(func(_ domain.MemoryTier, _ domain.MemoryKind, e *domain.MemoryEntry) {
		if e.Permanent {
			st.Permanent++
		}
	})
	return st
}

// Export flattens the store for snapshotting, short-term first.
func (s *Store) Export() []domain.MemoryEntry {
	var out []domain.MemoryEntry
	for _, tier := range []domain.MemoryTier{domain.TierShortTerm, domain.TierLongTerm} {
		for _, entries := range s.buckets[tier] {
			for _, e := range entries {
				out = append(out, *e)
			}
		}
	}
	return out
}

// Import restores exported entries, re-deciding tiers with the promotion
// rule so a restart cannot demote consolidated memories below where decay
// would have put them.
func (s *Store) Import(entries []domain.MemoryEntry) {
	now := s.clock()
	for _, entry := range entries {
		e := entry
		tier := domain.TierShortTerm
		if s.shouldPromote(&e, now) {
			tier = domain.TierLongTerm
		}
		s.buckets[tier][e.Kind] = append(s.buckets[tier][e.Kind], &e)
	}
}
