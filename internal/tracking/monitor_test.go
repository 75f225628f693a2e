package tracking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/jobpilot/internal/types"
)

func statusDelta(status types.ApplicationStatus, source types.DeltaSource, at time.Time) *types.StatusDelta {
	return &types.StatusDelta{Status: status, Source: source, ReceivedAt: at}
}

func TestArbitrate(t *testing.T) {
	now := time.Now().UTC()

	tests := []struct {
		name     string
		current  types.ApplicationStatus
		incoming *types.StatusDelta
		last     *types.StatusDelta
		want     bool
	}{
		{
			name:     "legal transition with no history",
			current:  types.StatusApplied,
			incoming: statusDelta(types.StatusInReview, types.DeltaSourceATS, now),
			want:     true,
		},
		{
			name:     "unchanged status",
			current:  types.StatusInReview,
			incoming: statusDelta(types.StatusInReview, types.DeltaSourceATS, now),
			want:     false,
		},
		{
			name:     "ats overturns terminal status written by email",
			current:  types.StatusRejected,
			incoming: statusDelta(types.StatusInReview, types.DeltaSourceATS, now),
			last:     statusDelta(types.StatusRejected, types.DeltaSourceEmail, now.Add(-time.Second)),
			want:     true,
		},
		{
			name:     "manual overturns terminal status written by email",
			current:  types.StatusRejected,
			incoming: statusDelta(types.StatusOffer, types.DeltaSourceManual, now),
			last:     statusDelta(types.StatusRejected, types.DeltaSourceEmail, now.Add(-time.Minute)),
			want:     true,
		},
		{
			name:     "email cannot overturn terminal status from email",
			current:  types.StatusRejected,
			incoming: statusDelta(types.StatusInReview, types.DeltaSourceEmail, now),
			last:     statusDelta(types.StatusRejected, types.DeltaSourceEmail, now.Add(-time.Minute)),
			want:     false,
		},
		{
			name:     "email cannot overturn terminal status from ats",
			current:  types.StatusRejected,
			incoming: statusDelta(types.StatusInReview, types.DeltaSourceEmail, now),
			last:     statusDelta(types.StatusRejected, types.DeltaSourceATS, now.Add(-time.Minute)),
			want:     false,
		},
		{
			name:     "illegal transition with no history stands",
			current:  types.StatusRejected,
			incoming: statusDelta(types.StatusInReview, types.DeltaSourceATS, now),
			want:     false,
		},
		{
			name:     "email loses precedence against newer ats even when legal",
			current:  types.StatusInReview,
			incoming: statusDelta(types.StatusInterview, types.DeltaSourceEmail, now),
			last:     statusDelta(types.StatusInReview, types.DeltaSourceATS, now.Add(-time.Hour)),
			want:     false,
		},
		{
			name:     "same source older delta loses the tie",
			current:  types.StatusInReview,
			incoming: statusDelta(types.StatusInterview, types.DeltaSourceATS, now.Add(-time.Hour)),
			last:     statusDelta(types.StatusInReview, types.DeltaSourceATS, now),
			want:     false,
		},
		{
			name:     "same source newer delta applies",
			current:  types.StatusInReview,
			incoming: statusDelta(types.StatusInterview, types.DeltaSourceATS, now),
			last:     statusDelta(types.StatusInReview, types.DeltaSourceATS, now.Add(-time.Hour)),
			want:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := arbitrate(tt.current, tt.incoming, tt.last)
			assert.Equal(t, tt.want, got)
		})
	}
}

// A rejection parsed from mail one second before the ATS reports in_review
// must not stick: the higher-precedence ATS view wins.
func TestArbitrate_ATSReversesStaleEmailRejection(t *testing.T) {
	atT := time.Now().UTC()
	emailReject := statusDelta(types.StatusRejected, types.DeltaSourceEmail, atT)
	atsReview := statusDelta(types.StatusInReview, types.DeltaSourceATS, atT.Add(time.Second))

	accepted, _ := arbitrate(types.StatusInReview, emailReject, nil)
	assert.True(t, accepted, "initial email rejection applies")

	accepted, _ = arbitrate(types.StatusRejected, atsReview, emailReject)
	assert.True(t, accepted, "ats view reverses the email rejection")
}
