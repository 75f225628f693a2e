package types

import (
	"time"

	"github.com/google/uuid"
)

// DeltaSource identifies which channel proposed a status change.
// Precedence when deltas disagree: ats > manual > email.
type DeltaSource string

const (
	DeltaSourceATS    DeltaSource = "ats"
	DeltaSourceEmail  DeltaSource = "email"
	DeltaSourceManual DeltaSource = "manual"
)

// deltaPrecedence maps a source to its arbitration rank (higher wins).
var deltaPrecedence = map[DeltaSource]int{
	DeltaSourceATS:    3,
	DeltaSourceManual: 2,
	DeltaSourceEmail:  1,
}

// Precedence returns the arbitration rank of the source (higher wins).
func (s DeltaSource) Precedence() int { return deltaPrecedence[s] }

// StatusDelta is a proposed status change from a tracking source, subject to
// precedence arbitration before it is applied.
type StatusDelta struct {
	ApplicationID uuid.UUID         `json:"application_id"`
	Status        ApplicationStatus `json:"status"`
	Source        DeltaSource       `json:"source"`
	Confidence    float64           `json:"confidence"` // 0-1
	Notes         string            `json:"notes,omitempty"`
	ReceivedAt    time.Time         `json:"received_at"`
}

// ApplicationTracking is the 1:1 monitor configuration for an application.
type ApplicationTracking struct {
	ApplicationID          uuid.UUID         `json:"application_id"`
	UserID                 int64             `json:"user_id"`
	ATSSystem              string            `json:"ats_system,omitempty"`
	ExternalTrackingID     string            `json:"external_tracking_id,omitempty"`
	TrackingURL            string            `json:"tracking_url,omitempty"`
	LastChecked            *time.Time        `json:"last_checked,omitempty"`
	CheckFrequencyMinutes  int               `json:"check_frequency"` // seed default 60; C7 config overrides
	NextCheck              *time.Time        `json:"next_check,omitempty"`
	EmailMonitoringEnabled bool              `json:"email_monitoring_enabled"`
	EmailKeywords          []string          `json:"email_keywords,omitempty"`
	TrackingData           map[string]string `json:"tracking_data,omitempty"`
	StatusHistory          []StatusDelta     `json:"status_history,omitempty"`
}
