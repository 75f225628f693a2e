// Package config provides environment-driven configuration for the pipeline.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// ATSCredentials holds optional per-ATS API credentials. A source is only
// eligible for the api submission channel when its credentials are set.
type ATSCredentials struct {
	GreenhouseAPIKey    string
	LeverAPIKey         string
	WorkdayTenantURL    string
	WorkdayClientID     string
	WorkdayClientSecret string
}

// EnabledFor reports whether api-channel submission is configured for source.
func (c *ATSCredentials) EnabledFor(source string) bool {
	switch source {
	case "greenhouse":
		return c.GreenhouseAPIKey != ""
	case "lever":
		return c.LeverAPIKey != ""
	case "workday":
		return c.WorkdayTenantURL != "" && c.WorkdayClientID != "" && c.WorkdayClientSecret != ""
	}
	return false
}

// Config is the process-wide configuration. Fatal misconfiguration is caught
// by Validate at startup; everything else has a default.
type Config struct {
	DatabaseURL  string
	RedisURL     string
	GeminiAPIKey string

	ATS ATSCredentials

	// Ingestion
	SourceConcurrency   int           // parallel source fetchers, capped at 8
	RequestDelayMin     time.Duration // per-source delay floor
	RequestDelayMax     time.Duration // per-source delay ceiling (jitter uniform)
	PerHostConcurrency  int
	DeactivateAfterDays int

	// Matching / automation
	EngineVersion     string
	MinScoreThreshold float64
	TopKPackets       int
	ExecutorWorkers   int
	CooldownDuration  time.Duration

	// Tracking
	ATSCheckInterval   time.Duration
	EmailCheckInterval time.Duration
	MaxInFlightChecks  int

	DisableBrowserAutomation bool
}

// Load reads configuration from the environment, applying defaults. A .env
// file is honored when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		RedisURL:     os.Getenv("REDIS_URL"),
		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		ATS: ATSCredentials{
			GreenhouseAPIKey:    os.Getenv("GREENHOUSE_API_KEY"),
			LeverAPIKey:         os.Getenv("LEVER_API_KEY"),
			WorkdayTenantURL:    os.Getenv("WORKDAY_TENANT_URL"),
			WorkdayClientID:     os.Getenv("WORKDAY_CLIENT_ID"),
			WorkdayClientSecret: os.Getenv("WORKDAY_CLIENT_SECRET"),
		},
		SourceConcurrency:        envInt("SOURCE_CONCURRENCY", 8),
		RequestDelayMin:          envDuration("REQUEST_DELAY_MIN", 500*time.Millisecond),
		RequestDelayMax:          envDuration("REQUEST_DELAY_MAX", 3*time.Second),
		PerHostConcurrency:       envInt("PER_HOST_CONCURRENCY", 2),
		DeactivateAfterDays:      envInt("DEACTIVATE_AFTER_DAYS", 30),
		EngineVersion:            envString("ENGINE_VERSION", "v1"),
		MinScoreThreshold:        envFloat("MIN_SCORE_THRESHOLD", 50),
		TopKPackets:              envInt("TOP_K_PACKETS", 10),
		ExecutorWorkers:          envInt("EXECUTOR_WORKERS", 4),
		CooldownDuration:         envDuration("AUTOMATION_COOLDOWN", time.Hour),
		ATSCheckInterval:         envDuration("ATS_CHECK_INTERVAL", 60*time.Minute),
		EmailCheckInterval:       envDuration("EMAIL_CHECK_INTERVAL", 3*time.Minute),
		MaxInFlightChecks:        envInt("MAX_INFLIGHT_CHECKS", 64),
		DisableBrowserAutomation: os.Getenv("DISABLE_BROWSER_AUTOMATION_DURING_TESTS") == "1",
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate refuses to start on fatal misconfiguration.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("config error: DATABASE_URL is required")
	}
	if c.SourceConcurrency < 1 || c.SourceConcurrency > 8 {
		return fmt.Errorf("config error: SOURCE_CONCURRENCY must be 1-8, got %d", c.SourceConcurrency)
	}
	if c.RequestDelayMin > c.RequestDelayMax {
		return fmt.Errorf("config error: REQUEST_DELAY_MIN exceeds REQUEST_DELAY_MAX")
	}
	if c.PerHostConcurrency < 1 {
		return fmt.Errorf("config error: PER_HOST_CONCURRENCY must be positive")
	}
	if c.DeactivateAfterDays < 1 {
		return fmt.Errorf("config error: DEACTIVATE_AFTER_DAYS must be positive")
	}
	if c.MinScoreThreshold < 0 || c.MinScoreThreshold > 100 {
		return fmt.Errorf("config error: MIN_SCORE_THRESHOLD must be 0-100")
	}
	return nil
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
