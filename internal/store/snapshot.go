// Package store persists agent snapshots to Postgres. Cognition state is
// stored as jsonb documents: snapshots are point-in-time blobs read back
// whole, never queried field by field.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hollowmere/npcmind/internal/domain"
)

var ErrNotFound = errors.New("not found")

type SnapshotStore struct {
	db *pgxpool.Pool
}

func NewSnapshotStore(db *pgxpool.Pool) *SnapshotStore {
	return &SnapshotStore{db: db}
}

// Migrate creates the snapshot table if missing.
func (s *SnapshotStore) Migrate(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS agent_snapshots (
			id         UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			agent_name TEXT NOT NULL,
			sim_time   DOUBLE PRECISION NOT NULL,
			memories   JSONB NOT NULL DEFAULT '[]',
			needs      JSONB NOT NULL DEFAULT '[]',
			traits     JSONB NOT NULL DEFAULT '[]',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE INDEX IF NOT EXISTS idx_agent_snapshots_name_created
			ON agent_snapshots (agent_name, created_at DESC)`)
	if err != nil {
		return fmt.Errorf("migrate agent_snapshots: %w", err)
	}
	return nil
}

func (s *SnapshotStore) Save(ctx context.Context, snap *domain.AgentSnapshot) error {
	memories, err := json.Marshal(snap.Memories)
	if err != nil {
		return fmt.Errorf("marshal memories: %w", err)
	}
	needs, err := json.Marshal(snap.Needs)
	if err != nil {
		return fmt.Errorf("marshal needs: %w", err)
	}
	traits, err := json.Marshal(snap.Traits)
	if err != nil {
		return fmt.Errorf("marshal traits: %w", err)
	}

	return s.db.QueryRow(ctx,
		`INSERT INTO agent_snapshots (agent_name, sim_time, memories, needs, traits)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		snap.AgentName, snap.SimTime, memories, needs, traits,
	).Scan(&snap.ID)
}

// Load returns the most recent snapshot for the named agent.
func (s *SnapshotStore) Load(ctx context.Context, agentName string) (*domain.AgentSnapshot, error) {
	snap := &domain.AgentSnapshot{}
	var memories, needs, traits []byte
	err := s.db.QueryRow(ctx,
		`SELECT id, agent_name, sim_time, memories, needs, traits
		 FROM agent_snapshots
		 WHERE agent_name = $1
		 ORDER BY created_at DESC
		 LIMIT 1`,
		agentName,
	).Scan(&snap.ID, &snap.AgentName, &snap.SimTime, &memories, &needs, &traits)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if err := json.Unmarshal(memories, &snap.Memories); err != nil {
		return nil, fmt.Errorf("unmarshal memories: %w", err)
	}
	if err := json.Unmarshal(needs, &snap.Needs); err != nil {
		return nil, fmt.Errorf("unmarshal needs: %w", err)
	}
	if err := json.Unmarshal(traits, &snap.Traits); err != nil {
		return nil, fmt.Errorf("unmarshal traits: %w", err)
	}
	return snap, nil
}

// DeleteOlderThan trims an agent's history to its most recent keep
// snapshots and reports how many rows were removed.
func (s *SnapshotStore) DeleteOlderThan(ctx context.Context, agentName string, keep int) (int64, error) {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM agent_snapshots
		 WHERE agent_name = $1
		   AND id NOT IN (
			SELECT id FROM agent_snapshots
			WHERE agent_name = $1
			ORDER BY created_at DESC
			LIMIT $2
		 )`,
		agentName, keep,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
