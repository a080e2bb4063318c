// Package config loads loader configuration from the environment,
// following the shape of TheSpideX-SystemSim's auth-service config
// loader (typed Config struct, getEnv/getIntEnv/... helpers, optional
// .env via godotenv).
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the component loader.
type Config struct {
	Resources ResourceConfig
	Loader    LoaderConfig
	Workspace WorkspaceConfig
}

// ResourceConfig governs ResourceMonitor budgeting. SamplerInterval is
// loaded but not read: the orchestrator starts the background sampler
// with a fixed 5-second interval.
type ResourceConfig struct {
	MinReserveMB  int
	MaxCPUPercent float64
	SamplerInterval time.Duration
}

// LoaderConfig governs ParallelLoader/ErrorIsolation/LazyLoader
// behaviour. HeavyComponentMB and StartupTargetMS are loaded but not
// read: internal/profiler uses fixed 100MB and 3000ms thresholds.
type LoaderConfig struct {
	WorkerCount          int
	MaxRetries           int
	HeavyComponentMB     int
	StartupTargetMS      int
	ComponentLoadTimeout time.Duration
}

// WorkspaceConfig points IntentDetector at the workspace to inspect.
type WorkspaceConfig struct {
	Directory string
}

// Load reads configuration from the environment, tolerating a missing
// .env file exactly as simulation-service/cmd/server/main.go does.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		// No .env file present; fall through to process environment and defaults.
	}

	return &Config{
		Resources: ResourceConfig{
			MinReserveMB:    getIntEnv("LOADER_MIN_RESERVE_MB", 512),
			MaxCPUPercent:   getFloatEnv("LOADER_MAX_CPU_PERCENT", 80.0),
			SamplerInterval: getDurationEnv("LOADER_SAMPLER_INTERVAL", 5*time.Second),
		},
		Loader: LoaderConfig{
			WorkerCount:          getIntEnv("LOADER_WORKER_COUNT", 4),
			MaxRetries:           getIntEnv("LOADER_MAX_RETRIES", 3),
			HeavyComponentMB:     getIntEnv("LOADER_HEAVY_COMPONENT_MB", 100),
			StartupTargetMS:      getIntEnv("LOADER_STARTUP_TARGET_MS", 3000),
			ComponentLoadTimeout: getDurationEnv("LOADER_COMPONENT_LOAD_TIMEOUT", 0),
		},
		Workspace: WorkspaceConfig{
			Directory: getEnv("LOADER_WORKSPACE_DIRECTORY", "."),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
