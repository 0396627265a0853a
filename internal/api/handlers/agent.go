package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hollowmere/npcmind/internal/agent"
	"github.com/hollowmere/npcmind/internal/domain"
	"github.com/hollowmere/npcmind/internal/memory"
	"github.com/hollowmere/npcmind/internal/sim"
)

type AgentHandler struct {
	world *sim.World
}

func NewAgentHandler(world *sim.World) *AgentHandler {
	return &AgentHandler{world: world}
}

func (h *AgentHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"sim_time": h.world.Now(),
		"agents":   h.world.AgentNames(),
	})
}

type spawnAgentRequest struct {
	Name     string      `json:"name"`
	Position domain.Vec3 `json:"position"`
}

func (h *AgentHandler) Spawn(w http.ResponseWriter, r *http.Request) {
	var req spawnAgentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if ok := h.world.WithAgent(req.Name, func(*agent.Agent) {}); ok {
		writeError(w, http.StatusConflict, "agent already exists")
		return
	}

	a := h.world.Spawn(r.Context(), req.Name, req.Position)
	writeJSON(w, http.StatusCreated, map[string]any{
		"name": a.Name(),
		"ref":  a.Ref(),
	})
}

func (h *AgentHandler) Despawn(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if !h.world.Despawn(name) {
		writeError(w, http.StatusNotFound, "agent not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type agentDetail struct {
	Name        string                       `json:"name"`
	Ref         domain.Ref                   `json:"ref"`
	Position    domain.Vec3                  `json:"position"`
	BrainState  domain.BrainState            `json:"brain_state"`
	Intent      *domain.Intent               `json:"intent,omitempty"`
	Needs       map[domain.NeedKind]float32  `json:"needs"`
	Wellbeing   float32                      `json:"wellbeing"`
	Traits      map[domain.TraitKind]float32 `json:"traits"`
	MemoryStats memory.Stats                 `json:"memory_stats"`
	Stimuli     int                          `json:"tracked_stimuli"`
	Suggestions map[string][]domain.Tag      `json:"suggestions"`
}

func (h *AgentHandler) Get(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var detail agentDetail
	found := h.world.WithAgent(name, func(a *agent.Agent) {
		detail = agentDetail{
			Name:        a.Name(),
			Ref:         a.Ref(),
			Position:    a.Position(),
			BrainState:  a.Brain().State(),
			Needs:       a.Needs().Levels(),
			Wellbeing:   a.Needs().OverallWellbeing(),
			Traits:      a.Personality().Traits(),
			MemoryStats: a.Memory().Stats(),
			Stimuli:     a.Brain().StimulusCount(),
			Suggestions: map[string][]domain.Tag{
				"needs":       a.Needs().IntentSuggestions(),
				"personality": a.Personality().IntentSuggestions(),
			},
		}
		if intent, ok := a.Brain().CurrentIntent(); ok {
			detail.Intent = &intent
		}
	})
	if !found {
		writeError(w, http.StatusNotFound, "agent not found")
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (h *AgentHandler) Memories(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	q := r.URL.Query()

	filter := memory.Filter{
		Kind: domain.MemoryKind(q.Get("kind")),
		Tag:  domain.Tag(q.Get("tag")),
		Sort: memory.SortRelevance,
	}
	if limit, err := strconv.Atoi(q.Get("limit")); err == nil && limit > 0 {
		filter.Limit = limit
	}
	if window, err := strconv.ParseFloat(q.Get("window"), 64); err == nil && window > 0 {
		filter.TimeWindow = window
	}
	if filter.Kind != "" && !domain.ValidMemoryKind(string(filter.Kind)) {
		writeError(w, http.StatusBadRequest, "invalid memory kind")
		return
	}

	var entries []domain.MemoryEntry
	found := h.world.WithAgent(name, func(a *agent.Agent) {
		entries = a.Memory().Query(filter)
	})
	if !found {
		writeError(w, http.StatusNotFound, "agent not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":    len(entries),
		"memories": entries,
	})
}

func (h *AgentHandler) SatisfyNeed(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	kind := chi.URLParam(r, "kind")
	if !domain.ValidNeedKind(kind) {
		writeError(w, http.StatusBadRequest, "invalid need kind")
		return
	}

	found := h.world.WithAgent(name, func(a *agent.Agent) {
		a.Needs().Satisfy(domain.NeedKind(kind))
	})
	if !found {
		writeError(w, http.StatusNotFound, "agent not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type stimulusRequest struct {
	Kind      string            `json:"kind"`
	Tag       string            `json:"tag"`
	Intensity float32           `json:"intensity"`
	Location  domain.Vec3       `json:"location"`
	Data      map[string]string `json:"data,omitempty"`
}

// Stimulus is the perception adapter surface: it feeds one normalized
// stimulus straight into an agent's brain.
func (h *AgentHandler) Stimulus(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var req stimulusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !domain.ValidStimulusKind(req.Kind) {
		writeError(w, http.StatusBadRequest, "invalid stimulus kind")
		return
	}
	if !domain.Tag(req.Tag).Valid() {
		writeError(w, http.StatusBadRequest, "tag is required")
		return
	}
	if req.Intensity < 0 || req.Intensity > 1 {
		writeError(w, http.StatusBadRequest, "intensity outside [0,1]")
		return
	}

	var intent domain.Intent
	found := h.world.WithAgent(name, func(a *agent.Agent) {
		intent = a.Brain().Ingest(domain.Stimulus{
			Kind:      domain.StimulusKind(req.Kind),
			Tag:       domain.Tag(req.Tag),
			Intensity: req.Intensity,
			Location:  req.Location,
			Data:      req.Data,
		})
	})
	if !found {
		writeError(w, http.StatusNotFound, "agent not found")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"intent": intent})
}
