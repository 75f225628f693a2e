package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		DatabaseURL:         "postgres://localhost/jobpilot",
		SourceConcurrency:   8,
		RequestDelayMin:     500 * time.Millisecond,
		RequestDelayMax:     3 * time.Second,
		PerHostConcurrency:  2,
		DeactivateAfterDays: 30,
		MinScoreThreshold:   50,
	}
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, validConfig().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing database url", func(c *Config) { c.DatabaseURL = "" }},
		{"source concurrency zero", func(c *Config) { c.SourceConcurrency = 0 }},
		{"source concurrency above cap", func(c *Config) { c.SourceConcurrency = 9 }},
		{"delay floor above ceiling", func(c *Config) { c.RequestDelayMin = 5 * time.Second }},
		{"per host concurrency zero", func(c *Config) { c.PerHostConcurrency = 0 }},
		{"deactivate days zero", func(c *Config) { c.DeactivateAfterDays = 0 }},
		{"score threshold above 100", func(c *Config) { c.MinScoreThreshold = 120 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoad(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/jobpilot")
	t.Setenv("SOURCE_CONCURRENCY", "4")
	t.Setenv("MIN_SCORE_THRESHOLD", "65.5")
	t.Setenv("ATS_CHECK_INTERVAL", "30m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.SourceConcurrency)
	assert.Equal(t, 65.5, cfg.MinScoreThreshold)
	assert.Equal(t, 30*time.Minute, cfg.ATSCheckInterval)

	// Defaults fill everything not set.
	assert.Equal(t, "v1", cfg.EngineVersion)
	assert.Equal(t, 10, cfg.TopKPackets)
}

func TestLoad_FatalWithoutDatabase(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	_, err := Load()
	assert.Error(t, err)
}

func TestATSCredentialsEnabledFor(t *testing.T) {
	creds := &ATSCredentials{GreenhouseAPIKey: "key", LeverAPIKey: "key"}
	assert.True(t, creds.EnabledFor("greenhouse"))
	assert.True(t, creds.EnabledFor("lever"))
	assert.False(t, creds.EnabledFor("workday"))
	assert.False(t, creds.EnabledFor("indeed"))

	workday := &ATSCredentials{WorkdayTenantURL: "https://t", WorkdayClientID: "id"}
	assert.False(t, workday.EnabledFor("workday")) // secret missing
	workday.WorkdayClientSecret = "secret"
	assert.True(t, workday.EnabledFor("workday"))
}
