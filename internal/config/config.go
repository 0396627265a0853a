package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Load reads the .env file specified by NPCMIND_ENV (or .env by default),
// then loads the corresponding .secret file if it exists.
// All config is flat env vars read via os.Getenv after loading.
func Load() error {
	envFile := os.Getenv("NPCMIND_ENV")
	if envFile == "" {
		envFile = ".env"
	}

	// Load main env file (ignore error if file doesn't exist)
	_ = godotenv.Load(envFile)

	// Load secret sidecar if it exists
	_ = godotenv.Load(envFile + ".secret")

	return nil
}

func ServerPort() int {
	port, err := strconv.Atoi(os.Getenv("SERVER_PORT"))
	if err != nil {
		return 8080
	}
	return port
}

func ServerAddr() string {
	return fmt.Sprintf(":%d", ServerPort())
}

func DatabaseURL() string {
	return os.Getenv("DATABASE_URL")
}

// LogLevel returns the log level (debug, info, warn, error).
// Defaults to "info" if not set.
func LogLevel() string {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		return "info"
	}
	return level
}

// RateLimitRPS returns requests per second limit for the inspection API.
// Defaults to 100 if not set.
func RateLimitRPS() float64 {
	rps, err := strconv.ParseFloat(os.Getenv("RATE_LIMIT_RPS"), 64)
	if err != nil || rps <= 0 {
		return 100
	}
	return rps
}

// RateLimitBurst returns the burst size for rate limiting.
// Defaults to 20 if not set.
func RateLimitBurst() int {
	burst, err := strconv.Atoi(os.Getenv("RATE_LIMIT_BURST"))
	if err != nil || burst <= 0 {
		return 20
	}
	return burst
}

// SimTickRate returns simulation ticks per wall-clock second.
// Defaults to 10 if not set.
func SimTickRate() float64 {
	return envFloat("SIM_TICK_RATE", 10)
}

// SimAgentCount returns how many agents the harness spawns.
// Defaults to 8 if not set.
func SimAgentCount() int {
	return envInt("SIM_AGENT_COUNT", 8)
}

// SnapshotInterval returns sim seconds between agent snapshots.
// Zero disables persistence even when DATABASE_URL is set.
func SnapshotInterval() float64 {
	return envFloat("SNAPSHOT_INTERVAL", 300)
}

func BusMaxHistory() int {
	return envInt("BUS_MAX_HISTORY", 1000)
}

func BusHistoryTTL() float64 {
	return envFloat("BUS_HISTORY_TTL", 300)
}

func BusSweepInterval() float64 {
	return envFloat("BUS_SWEEP_INTERVAL", 5)
}

func MemoryMaxShortTerm() int {
	return envInt("MEMORY_MAX_SHORT_TERM", 50)
}

// MemoryMaxLongTerm returns the optional long-term cap per bucket.
// Defaults to 0, meaning unlimited.
func MemoryMaxLongTerm() int {
	return envInt("MEMORY_MAX_LONG_TERM", 0)
}

func MemoryShortTermDuration() float64 {
	return envFloat("MEMORY_SHORT_TERM_DURATION", 600)
}

func MemoryLongTermThreshold() float64 {
	return envFloat("MEMORY_LONG_TERM_THRESHOLD", 0.75)
}

func MemoryForgetThreshold() float64 {
	return envFloat("MEMORY_FORGET_THRESHOLD", 0.05)
}

// MemoryDecayInterval returns sim seconds between decay sweeps.
func MemoryDecayInterval() float64 {
	return envFloat("MEMORY_DECAY_INTERVAL", 30)
}

func BrainStimuliDuration() float64 {
	return envFloat("BRAIN_STIMULI_DURATION", 10)
}

func BrainCuriosityThreshold() float64 {
	return envFloat("BRAIN_CURIOSITY_THRESHOLD", 30)
}

func BrainMaxTrackedStimuli() int {
	return envInt("BRAIN_MAX_TRACKED_STIMULI", 32)
}

// BrainIdleIntent returns the tag adopted when nothing demands attention.
func BrainIdleIntent() string {
	v := os.Getenv("BRAIN_IDLE_INTENT")
	if v == "" {
		return "idle.wait"
	}
	return v
}

// BrainCuriosityIntents returns the comma-separated curiosity tag set,
// or nil to use the built-in defaults.
func BrainCuriosityIntents() []string {
	v := os.Getenv("BRAIN_CURIOSITY_INTENTS")
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// NeedsGlobalMultiplier scales every need's drift rate uniformly.
func NeedsGlobalMultiplier() float64 {
	return envFloat("NEEDS_GLOBAL_MULTIPLIER", 1)
}

// PersonalityAllowChange gates experience-driven trait drift.
// Defaults to true.
func PersonalityAllowChange() bool {
	return envBool("PERSONALITY_ALLOW_CHANGE", true)
}

// PersonalityEnableInfluence gates trait weighting of intents.
// Defaults to true.
func PersonalityEnableInfluence() bool {
	return envBool("PERSONALITY_ENABLE_INFLUENCE", true)
}

func PersonalityChangeRate() float64 {
	return envFloat("PERSONALITY_CHANGE_RATE", 1)
}

func envInt(key string, def int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}

func envFloat(key string, def float64) float64 {
	v, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return def
	}
	return v
}

func envBool(key string, def bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}
