package domain

import "sync"

// AgentID is a stable identifier for an agent slot. IDs are never reused
// with the same generation, so a Ref can be checked for liveness in O(1)
// without touching the agent it points to.
type AgentID uint64

// Ref is a weak reference to an agent: an id plus the generation the id had
// when the reference was taken. A Ref whose generation no longer matches the
// table is stale and is treated as "entity gone" everywhere.
type Ref struct {
	ID  AgentID `json:"id"`
	Gen uint32  `json:"gen"`
}

// NilRef is the zero reference; it is never alive.
var NilRef = Ref{}

func (r Ref) IsNil() bool {
	return r.ID == 0
}

// Table is the central agent registry. It owns the id/generation space;
// everything else holds Refs.
type Table struct {
	mu    sync.RWMutex
	gens  map[AgentID]uint32
	names map[AgentID]string
	next  AgentID
}

func NewTable() *Table {
	return &Table{
		gens:  make(map[AgentID]uint32),
		names: make(map[AgentID]string),
		next:  1,
	}
}

// Register allocates a live slot and returns its reference.
func (t *Table) Register(name string) Ref {
	t.mu.Lock()
	defer t.mu.Unlock()

	id := t.next
	t.next++
	t.gens[id] = 1
	t.names[id] = name
	return Ref{ID: id, Gen: 1}
}

// Release invalidates every outstanding Ref to the agent by bumping its
// generation. Releasing a stale ref is a no-op.
func (t *Table) Release(r Ref) {
	t.mu.Lock()
	defer t.mu.Unlock()

	gen, ok := t.gens[r.ID]
	if !ok || gen != r.Gen {
		return
	}
	t.gens[r.ID] = gen + 1
	delete(t.names, r.ID)
}

// Alive reports whether the reference still points at a live agent.
func (t *Table) Alive(r Ref) bool {
	if r.IsNil() {
		return false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.gens[r.ID] == r.Gen
}

// Name returns the registered name for a live reference, or "".
func (t *Table) Name(r Ref) string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.gens[r.ID] != r.Gen {
		return ""
	}
	return t.names[r.ID]
}
