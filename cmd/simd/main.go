package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/hollowmere/npcmind/internal/agent"
	"github.com/hollowmere/npcmind/internal/api"
	"github.com/hollowmere/npcmind/internal/brain"
	"github.com/hollowmere/npcmind/internal/config"
	"github.com/hollowmere/npcmind/internal/domain"
	"github.com/hollowmere/npcmind/internal/eventbus"
	"github.com/hollowmere/npcmind/internal/memory"
	"github.com/hollowmere/npcmind/internal/needs"
	"github.com/hollowmere/npcmind/internal/personality"
	"github.com/hollowmere/npcmind/internal/sim"
	"github.com/hollowmere/npcmind/internal/store"
)

func main() {
	logger, _ := buildLogger()
	defer func() { _ = logger.Sync() }()

	if err := config.Load(); err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	ctx := context.Background()

	// Persistence is optional: without DATABASE_URL the world runs
	// purely in memory and snapshots are skipped.
	var snapshots domain.SnapshotStore
	if dbURL := config.DatabaseURL(); dbURL != "" {
		pool, err := pgxpool.New(ctx, dbURL)
		if err != nil {
			logger.Fatal("failed to connect to database", zap.Error(err))
		}
		defer pool.Close()

		if err := pool.Ping(ctx); err != nil {
			logger.Fatal("failed to ping database", zap.Error(err))
		}
		snapStore := store.NewSnapshotStore(pool)
		if err := snapStore.Migrate(ctx); err != nil {
			logger.Fatal("failed to migrate", zap.Error(err))
		}
		snapshots = snapStore
		logger.Info("connected to database")
	} else {
		logger.Info("running without persistence")
	}

	world := sim.New(worldConfig(), snapshots, logger)
	for i := 0; i < config.SimAgentCount(); i++ {
		world.Spawn(ctx, fmt.Sprintf("npc-%03d", i), domain.Vec3{X: float64(i) * 25})
	}
	world.Start()

	app := api.NewApp(world, logger)

	addr := config.ServerAddr()
	srv := &http.Server{
		Addr:    addr,
		Handler: app.Router,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("server starting", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("shutting down")

	world.Stop()

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}

func buildLogger() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if level, err := zap.ParseAtomicLevel(config.LogLevel()); err == nil {
		cfg.Level = level
	}
	return cfg.Build()
}

func worldConfig() sim.Config {
	var curiosity []domain.Tag
	for _, tag := range config.BrainCuriosityIntents() {
		curiosity = append(curiosity, domain.Tag(tag))
	}

	return sim.Config{
		TickRate:         config.SimTickRate(),
		SnapshotInterval: config.SnapshotInterval(),
		Bus: eventbus.Config{
			MaxHistory:    config.BusMaxHistory(),
			HistoryTTL:    config.BusHistoryTTL(),
			SweepInterval: time.Duration(config.BusSweepInterval() * float64(time.Second)),
		},
		Agent: agent.Config{
			DecayInterval: config.MemoryDecayInterval(),
			Brain: brain.Config{
				StimuliMemoryDuration: config.BrainStimuliDuration(),
				CuriosityThreshold:    config.BrainCuriosityThreshold(),
				MaxTrackedStimuli:     config.BrainMaxTrackedStimuli(),
				IdleIntent:            domain.Tag(config.BrainIdleIntent()),
				CuriosityIntents:      curiosity,
			},
			Memory: memory.Config{
				MaxShortTerm:      config.MemoryMaxShortTerm(),
				MaxLongTerm:       config.MemoryMaxLongTerm(),
				ShortTermDuration: config.MemoryShortTermDuration(),
				LongTermThreshold: float32(config.MemoryLongTermThreshold()),
				ForgetThreshold:   float32(config.MemoryForgetThreshold()),
			},
			Needs: needs.Config{
				GlobalMultiplier: float32(config.NeedsGlobalMultiplier()),
			},
			Personality: personality.Config{
				AllowChange:     config.PersonalityAllowChange(),
				EnableInfluence: config.PersonalityEnableInfluence(),
				ChangeRate:      float32(config.PersonalityChangeRate()),
			},
		},
	}
}
