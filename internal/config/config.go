package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"mealplan-engine/internal/validate"
)

// Config holds the configuration for the engine. One Config value is built
// per process and passed down explicitly; nothing reads the environment
// after startup.
type Config struct {
	// Generation provider: "gemini" or "groq".
	Provider     string
	GeminiAPIKey string
	GeminiModel  string
	GroqAPIKey   string

	// DatabasePath is the SQLite file used for plan history and metrics.
	DatabasePath string

	// GlobalDeadline is the wall-clock budget for one whole request.
	GlobalDeadline time.Duration
	// WindowCeiling caps the sub-deadline of a single chunk window.
	WindowCeiling time.Duration
	// MergeReserve is held back from every window for merge + validation.
	MergeReserve time.Duration
	// MinWindowTime is the minimum viable time to even start a window.
	MinWindowTime time.Duration
	// BackoffReserve keeps retry sleeps from eating the whole deadline.
	BackoffReserve time.Duration

	// MaxAttempts bounds generate-from-scratch retries.
	MaxAttempts int
	// RepairAttempts bounds targeted repair rounds per generated plan.
	RepairAttempts int

	Leniency validate.LeniencyPolicy
}

// NewFromEnv creates a new Config object from environment variables.
func NewFromEnv() (*Config, error) {
	cfg := &Config{
		Provider:       envOr("MEALPLAN_PROVIDER", "gemini"),
		GeminiAPIKey:   os.Getenv("GEMINI_API_KEY"),
		GeminiModel:    envOr("GEMINI_MODEL", "gemini-1.5-pro"),
		GroqAPIKey:     os.Getenv("GROQ_API_KEY"),
		DatabasePath:   envOr("MEALPLAN_DB_PATH", "data/mealplan.db"),
		GlobalDeadline: envDuration("MEALPLAN_GLOBAL_DEADLINE", 5*time.Minute),
		WindowCeiling:  envDuration("MEALPLAN_WINDOW_CEILING", 90*time.Second),
		MergeReserve:   envDuration("MEALPLAN_MERGE_RESERVE", 10*time.Second),
		MinWindowTime:  envDuration("MEALPLAN_MIN_WINDOW_TIME", 15*time.Second),
		BackoffReserve: envDuration("MEALPLAN_BACKOFF_RESERVE", 5*time.Second),
		MaxAttempts:    envInt("MEALPLAN_MAX_ATTEMPTS", 3),
		RepairAttempts: envInt("MEALPLAN_REPAIR_ATTEMPTS", 3),
		Leniency:       lenientFromEnv(),
	}

	switch cfg.Provider {
	case "gemini":
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY environment variable not set")
		}
	case "groq":
		if cfg.GroqAPIKey == "" {
			return nil, fmt.Errorf("GROQ_API_KEY environment variable not set")
		}
	default:
		return nil, fmt.Errorf("unknown provider %q (want gemini or groq)", cfg.Provider)
	}

	return cfg, nil
}

// lenientFromEnv reads the leniency thresholds, falling back to the defaults.
// These are tunable policy, not derived requirements.
func lenientFromEnv() validate.LeniencyPolicy {
	p := validate.DefaultLeniency()
	p.CalorieSlackKcal = envFloat("MEALPLAN_LENIENCY_CALORIES", p.CalorieSlackKcal)
	p.MacroSlackFraction = envFloat("MEALPLAN_LENIENCY_MACRO_FRACTION", p.MacroSlackFraction)
	p.DistributionMinPct = envFloat("MEALPLAN_LENIENCY_DISTRIBUTION_MIN", p.DistributionMinPct)
	p.DistributionMaxPct = envFloat("MEALPLAN_LENIENCY_DISTRIBUTION_MAX", p.DistributionMaxPct)
	return p
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
