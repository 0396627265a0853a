package domain

import (
	"context"

	"github.com/google/uuid"
)

// AgentSnapshot is a point-in-time capture of everything an agent's
// cognition owns. It exists for the save/load collaborator only; the
// cognition components themselves never persist anything.
type AgentSnapshot struct {
	ID        uuid.UUID     `json:"id"`
	AgentName string        `json:"agent_name"`
	SimTime   float64       `json:"sim_time"`
	Memories  []MemoryEntry `json:"memories"`
	Needs     []Need        `json:"needs"`
	Traits    []Trait       `json:"traits"`
}

// SnapshotStore persists and restores agent snapshots. Implementations live
// outside the cognition packages.
type SnapshotStore interface {
	Save(ctx context.Context, snap *AgentSnapshot) error
	Load(ctx context.Context, agentName string) (*AgentSnapshot, error)
	DeleteOlderThan(ctx context.Context, agentName string, keep int) (int64, error)
}
