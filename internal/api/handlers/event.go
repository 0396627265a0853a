package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/hollowmere/npcmind/internal/domain"
	"github.com/hollowmere/npcmind/internal/sim"
)

type EventHandler struct {
	world *sim.World
}

func NewEventHandler(world *sim.World) *EventHandler {
	return &EventHandler{world: world}
}

type publishEventRequest struct {
	Type     string            `json:"type"`
	Location domain.Vec3       `json:"location"`
	Strength float32           `json:"strength"`
	Radius   float64           `json:"radius"`
	Global   bool              `json:"is_global"`
	Duration float64           `json:"duration"`
	Payload  map[string]string `json:"payload,omitempty"`
}

func (h *EventHandler) Publish(w http.ResponseWriter, r *http.Request) {
	var req publishEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	e := domain.NewEvent(domain.Tag(req.Type), req.Location, req.Strength, h.world.Now())
	e.Radius = req.Radius
	e.Global = req.Global
	e.Duration = req.Duration
	e.Payload = req.Payload

	if err := h.world.Publish(e); err != nil {
		if errors.Is(err, domain.ErrEmptyEventType) || errors.Is(err, domain.ErrStrengthOutOfRange) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "publish failed")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": e.ID, "timestamp": e.Timestamp})
}

// Query reads recent bus history, most recent first.
func (h *EventHandler) Query(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	typ := domain.Tag(q.Get("type"))
	window := 60.0
	if v, err := strconv.ParseFloat(q.Get("window"), 64); err == nil && v > 0 {
		window = v
	}

	var location *domain.Vec3
	radius := 0.0
	if q.Get("x") != "" || q.Get("y") != "" || q.Get("z") != "" {
		loc := domain.Vec3{}
		loc.X, _ = strconv.ParseFloat(q.Get("x"), 64)
		loc.Y, _ = strconv.ParseFloat(q.Get("y"), 64)
		loc.Z, _ = strconv.ParseFloat(q.Get("z"), 64)
		location = &loc
		radius, _ = strconv.ParseFloat(q.Get("radius"), 64)
	}

	events := h.world.Bus().Query(typ, window, location, radius)
	writeJSON(w, http.StatusOK, map[string]any{
		"count":  len(events),
		"events": events,
	})
}

func (h *EventHandler) Stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"sim_time": h.world.Now(),
		"ticks":    h.world.TickCount(),
		"bus":      h.world.Bus().Stats(),
		"by_type":  h.world.Bus().TypeCounts(),
	})
}
