package tracking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/jobpilot/internal/types"
)

func msg(subject, body string) *EmailMessage {
	return &EmailMessage{
		From:       "recruiting@acme.com",
		Subject:    subject,
		Body:       body,
		ReceivedAt: time.Now().UTC(),
	}
}

func TestParseEmail(t *testing.T) {
	tests := []struct {
		name       string
		subject    string
		body       string
		wantStatus types.ApplicationStatus
		wantNil    bool
	}{
		{
			name:       "confirmation",
			subject:    "Thank you for applying to Acme",
			wantStatus: types.StatusApplied,
		},
		{
			name:       "under review",
			subject:    "Your application",
			body:       "Your application is under review by our team.",
			wantStatus: types.StatusInReview,
		},
		{
			name:       "interview request",
			subject:    "Next steps",
			body:       "We would like to schedule a call to discuss the role.",
			wantStatus: types.StatusInterview,
		},
		{
			name:       "rejection",
			subject:    "Update on your application",
			body:       "Unfortunately we have decided to move forward with other candidates.",
			wantStatus: types.StatusRejected,
		},
		{
			name:       "offer",
			subject:    "Offer of employment from Acme",
			wantStatus: types.StatusOffer,
		},
		{
			name:    "unrelated newsletter",
			subject: "Weekly digest",
			body:    "Top stories this week in tech.",
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			delta := ParseEmail(msg(tt.subject, tt.body))
			if tt.wantNil {
				assert.Nil(t, delta)
				return
			}
			require.NotNil(t, delta)
			assert.Equal(t, tt.wantStatus, delta.Status)
			assert.Equal(t, types.DeltaSourceEmail, delta.Source)
			assert.Greater(t, delta.Confidence, 0.0)
			assert.Contains(t, delta.Notes, tt.subject)
		})
	}
}

func TestParseEmail_MostSpecificRuleWins(t *testing.T) {
	// Mentions both an offer and an interview; offer rules run first.
	delta := ParseEmail(msg("Good news", "We are pleased to offer you the role after your final interview."))
	require.NotNil(t, delta)
	assert.Equal(t, types.StatusOffer, delta.Status)
}

func TestMatchesCompany(t *testing.T) {
	tests := []struct {
		name    string
		from    string
		subject string
		company string
		want    bool
	}{
		{"subject mention", "noreply@ats.io", "Your Acme application", "Acme", true},
		{"sender display name", `"Acme Recruiting" <noreply@ats.io>`, "Application update", "Acme", true},
		{"sender domain", "careers@acme.com", "Application update", "Acme", true},
		{"no relation", "jobs@other.io", "Application update", "Acme", false},
		{"short company name skipped", "hr@go.com", "go update", "Go", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &EmailMessage{From: tt.from, Subject: tt.subject}
			assert.Equal(t, tt.want, MatchesCompany(m, tt.company))
		})
	}
}

func TestMatchesKeywords(t *testing.T) {
	m := msg("Re: Backend Engineer at Acme", "Thanks for your interest.")

	assert.True(t, MatchesKeywords(m, []string{"backend engineer"}))
	assert.True(t, MatchesKeywords(m, []string{"nothing", "acme"}))
	assert.False(t, MatchesKeywords(m, []string{"frontend"}))

	// Keywords under three characters never match.
	assert.False(t, MatchesKeywords(m, []string{"at"}))
	assert.False(t, MatchesKeywords(m, nil))
}

func TestWinsPrecedence(t *testing.T) {
	now := time.Now().UTC()
	earlier := now.Add(-time.Hour)

	ats := &types.StatusDelta{Source: types.DeltaSourceATS, ReceivedAt: earlier}
	email := &types.StatusDelta{Source: types.DeltaSourceEmail, ReceivedAt: now}
	manual := &types.StatusDelta{Source: types.DeltaSourceManual, ReceivedAt: now}

	// Higher precedence wins regardless of age.
	assert.True(t, winsPrecedence(ats, email))
	assert.False(t, winsPrecedence(email, ats))
	assert.True(t, winsPrecedence(manual, email))
	assert.False(t, winsPrecedence(email, manual))

	// Same source: newer received_at wins.
	older := &types.StatusDelta{Source: types.DeltaSourceEmail, ReceivedAt: earlier}
	assert.True(t, winsPrecedence(email, older))
	assert.False(t, winsPrecedence(older, email))
}
