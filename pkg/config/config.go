package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/gatehouse-dev/gatehouse/pkg/observability"
)

// Config holds all engine configuration
type Config struct {
	// Evaluator configuration
	Evaluator EvaluatorConfig

	// Navigation filter configuration
	Nav NavConfig

	// Change event configuration
	Events EventsConfig

	// Observability configuration
	Observability ObservabilityConfig
}

// EvaluatorConfig holds permission cache tuning
type EvaluatorConfig struct {
	CacheCapacity int
	CacheTTL      time.Duration
	SweepInterval time.Duration
}

// NavConfig holds the navigation filter policy flags
type NavConfig struct {
	HideEmptyGroups bool
	HideDisabled    bool
}

// EventsConfig holds change-event fan-out settings
type EventsConfig struct {
	Buffer int

	// Redis bridge; disabled when Addr is empty
	RedisAddr     string
	RedisPassword string
	RedisChannel  string
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	LogLevel       observability.LogLevel
	MetricsEnabled bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Evaluator: EvaluatorConfig{
			CacheCapacity: getEnvInt("GATEHOUSE_CACHE_CAPACITY", 1024),
			CacheTTL:      getEnvDuration("GATEHOUSE_CACHE_TTL", 30*time.Second),
			SweepInterval: getEnvDuration("GATEHOUSE_CACHE_SWEEP_INTERVAL", time.Minute),
		},
		Nav: NavConfig{
			HideEmptyGroups: getEnvBool("GATEHOUSE_NAV_HIDE_EMPTY_GROUPS", false),
			HideDisabled:    getEnvBool("GATEHOUSE_NAV_HIDE_DISABLED", false),
		},
		Events: EventsConfig{
			Buffer:        getEnvInt("GATEHOUSE_EVENTS_BUFFER", 64),
			RedisAddr:     getEnv("GATEHOUSE_EVENTS_REDIS_ADDR", ""),
			RedisPassword: getEnv("GATEHOUSE_EVENTS_REDIS_PASSWORD", ""),
			RedisChannel:  getEnv("GATEHOUSE_EVENTS_REDIS_CHANNEL", "gatehouse:events"),
		},
		Observability: ObservabilityConfig{
			LogLevel:       observability.ParseLogLevel(getEnv("GATEHOUSE_LOG_LEVEL", "info")),
			MetricsEnabled: getEnvBool("GATEHOUSE_METRICS_ENABLED", true),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks configuration consistency
func (c *Config) Validate() error {
	if c.Evaluator.CacheCapacity <= 0 {
		return fmt.Errorf("cache capacity must be positive, got %d", c.Evaluator.CacheCapacity)
	}
	if c.Evaluator.CacheTTL <= 0 {
		return fmt.Errorf("cache TTL must be positive, got %s", c.Evaluator.CacheTTL)
	}
	if c.Events.Buffer <= 0 {
		return fmt.Errorf("events buffer must be positive, got %d", c.Events.Buffer)
	}
	if c.Events.RedisAddr != "" && c.Events.RedisChannel == "" {
		return fmt.Errorf("events Redis channel must be set when the Redis bridge is enabled")
	}
	return nil
}

// getEnv returns an environment variable or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
