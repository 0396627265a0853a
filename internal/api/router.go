// Package api exposes the running world over HTTP for inspection and
// outside stimulus injection. The cognition engine itself has no wire
// surface; everything here is harness plumbing around it.
package api

import (
	"encoding/json"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hollowmere/npcmind/internal/api/handlers"
	mw "github.com/hollowmere/npcmind/internal/api/middleware"
	"github.com/hollowmere/npcmind/internal/config"
	"github.com/hollowmere/npcmind/internal/sim"
)

// App holds the router and request counters for lifecycle management.
type App struct {
	Router       *chi.Mux
	startTime    time.Time
	requestCount atomic.Int64
	errorCount   atomic.Int64
}

func NewApp(world *sim.World, logger *zap.Logger) *App {
	agentHandler := handlers.NewAgentHandler(world)
	eventHandler := handlers.NewEventHandler(world)

	r := chi.NewRouter()
	app := &App{
		Router:    r,
		startTime: time.Now(),
	}

	// Global middleware (order matters)
	r.Use(mw.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mw.Metrics(&app.requestCount, &app.errorCount))
	r.Use(mw.Logging(logger))
	r.Use(middleware.Recoverer)
	r.Use(mw.RateLimit(config.RateLimitRPS(), config.RateLimitBurst()))

	r.Get("/health", healthHandler(world))
	r.Get("/metrics", app.metricsHandler())

	r.Route("/v1", func(r chi.Router) {
		r.Route("/agents", func(r chi.Router) {
			r.Get("/", agentHandler.List)
			r.Post("/", agentHandler.Spawn)
			r.Route("/{name}", func(r chi.Router) {
				r.Get("/", agentHandler.Get)
				r.Delete("/", agentHandler.Despawn)
				r.Get("/memories", agentHandler.Memories)
				r.Post("/needs/{kind}/satisfy", agentHandler.SatisfyNeed)
				r.Post("/stimulus", agentHandler.Stimulus)
			})
		})

		r.Route("/events", func(r chi.Router) {
			r.Get("/", eventHandler.Query)
			r.Post("/", eventHandler.Publish)
			r.Get("/stats", eventHandler.Stats)
		})
	})

	return app
}

func healthHandler(world *sim.World) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":   "ok",
			"sim_time": world.Now(),
			"ticks":    world.TickCount(),
		})
	}
}

func (app *App) metricsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var memStats runtime.MemStats
		runtime.ReadMemStats(&memStats)

		uptime := time.Since(app.startTime)

		response := map[string]any{
			"uptime_seconds": uptime.Seconds(),
			"uptime_human":   uptime.Round(time.Second).String(),
			"request_count":  app.requestCount.Load(),
			"error_count":    app.errorCount.Load(),
			"goroutines":     runtime.NumGoroutine(),
			"memory": map[string]any{
				"alloc_mb":       float64(memStats.Alloc) / 1024 / 1024,
				"total_alloc_mb": float64(memStats.TotalAlloc) / 1024 / 1024,
				"sys_mb":         float64(memStats.Sys) / 1024 / 1024,
				"num_gc":         memStats.NumGC,
			},
			"go_version": runtime.Version(),
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(response)
	}
}
