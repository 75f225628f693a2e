package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsTransitionAllowed(t *testing.T) {
	tests := []struct {
		name string
		from ApplicationStatus
		to   ApplicationStatus
		want bool
	}{
		{"pending to applied", StatusPending, StatusApplied, true},
		{"pending to failed", StatusPending, StatusFailed, true},
		{"pending to interview skips applied", StatusPending, StatusInterview, false},
		{"applied to in_review", StatusApplied, StatusInReview, true},
		{"applied to offer", StatusApplied, StatusOffer, true},
		{"in_review to interview", StatusInReview, StatusInterview, true},
		{"interview to offer", StatusInterview, StatusOffer, true},
		{"offer to accepted", StatusOffer, StatusAccepted, true},
		{"offer to declined", StatusOffer, StatusDeclined, true},
		{"offer to rejected not allowed", StatusOffer, StatusRejected, false},
		{"same status is not a transition", StatusApplied, StatusApplied, false},
		{"backwards not allowed", StatusInterview, StatusApplied, false},
		{"failed back to pending for retry", StatusFailed, StatusPending, true},
		{"failed is not rejected", StatusFailed, StatusRejected, false},
		{"rejected is terminal", StatusRejected, StatusApplied, false},
		{"accepted is terminal", StatusAccepted, StatusWithdrawn, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransitionAllowed(tt.from, tt.to))
		})
	}
}

func TestIsTransitionAllowed_Withdrawn(t *testing.T) {
	// Withdrawing is allowed from any non-terminal state.
	for _, from := range []ApplicationStatus{
		StatusPending, StatusApplied, StatusInReview,
		StatusInterview, StatusOffer, StatusFailed,
	} {
		assert.True(t, IsTransitionAllowed(from, StatusWithdrawn), "from %s", from)
	}
	for _, from := range []ApplicationStatus{
		StatusAccepted, StatusDeclined, StatusRejected, StatusWithdrawn,
	} {
		assert.False(t, IsTransitionAllowed(from, StatusWithdrawn), "from %s", from)
	}
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, StatusAccepted.IsTerminal())
	assert.True(t, StatusDeclined.IsTerminal())
	assert.True(t, StatusRejected.IsTerminal())
	assert.True(t, StatusWithdrawn.IsTerminal())

	// failed requires a human but is not terminal.
	assert.False(t, StatusFailed.IsTerminal())
	assert.False(t, StatusPending.IsTerminal())
	assert.False(t, StatusOffer.IsTerminal())
}

func TestParseApplicationStatus(t *testing.T) {
	status, err := ParseApplicationStatus("in_review")
	assert.NoError(t, err)
	assert.Equal(t, StatusInReview, status)

	_, err = ParseApplicationStatus("ghosted")
	assert.Error(t, err)
}

func TestDeltaSourcePrecedence(t *testing.T) {
	assert.Greater(t, DeltaSourceATS.Precedence(), DeltaSourceManual.Precedence())
	assert.Greater(t, DeltaSourceManual.Precedence(), DeltaSourceEmail.Precedence())
	assert.Equal(t, 0, DeltaSource("unknown").Precedence())
}
