package tracking

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/jobpilot/internal/config"
	"github.com/jonathan/jobpilot/internal/types"
)

func TestNormalizeATSStatus(t *testing.T) {
	tests := []struct {
		raw  string
		want types.ApplicationStatus
		ok   bool
	}{
		{"active", types.StatusInReview, true},
		{"In Review", types.StatusInReview, true},
		{"  interviewing  ", types.StatusInterview, true},
		{"onsite", types.StatusInterview, true},
		{"offer", types.StatusOffer, true},
		{"hired", types.StatusAccepted, true},
		{"rejected", types.StatusRejected, true},
		{"archived", types.StatusRejected, true},
		{"something-custom", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		status, ok := NormalizeATSStatus(tt.raw)
		assert.Equal(t, tt.ok, ok, "raw %q", tt.raw)
		assert.Equal(t, tt.want, status, "raw %q", tt.raw)
	}
}

func TestNewPollers_OnlyConfiguredSystems(t *testing.T) {
	pollers := NewPollers(&config.ATSCredentials{GreenhouseAPIKey: "key"})

	assert.Contains(t, pollers, "greenhouse")
	assert.NotContains(t, pollers, "lever")
	assert.NotContains(t, pollers, "workday")

	assert.Empty(t, NewPollers(&config.ATSCredentials{}))
}
