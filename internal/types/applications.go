package types

import (
	"time"

	"github.com/google/uuid"
)

// ApplicationMethod records which strategy produced the submission.
type ApplicationMethod string

const (
	MethodAPI      ApplicationMethod = "api"
	MethodBrowser  ApplicationMethod = "browser"
	MethodManual   ApplicationMethod = "manual"
	MethodRedirect ApplicationMethod = "redirect"
)

// VerifiedSource records which channel confirmed a submission.
type VerifiedSource string

const (
	VerifiedByATS    VerifiedSource = "ats"
	VerifiedByEmail  VerifiedSource = "email"
	VerifiedByManual VerifiedSource = "manual"
)

// AutomationStep is one append-only entry in an application's automation log.
type AutomationStep struct {
	Step      string    `json:"step"`
	Detail    string    `json:"detail,omitempty"`
	Success   bool      `json:"success"`
	Timestamp time.Time `json:"timestamp"`
}

// Application is the submission record for one (user, job) pair.
// The (UserID, JobID) pair is unique across all states.
type Application struct {
	ID                    uuid.UUID         `json:"id"`
	UserID                int64             `json:"user_id"`
	JobID                 uuid.UUID         `json:"job_id"`
	Status                ApplicationStatus `json:"status"`
	Method                ApplicationMethod `json:"application_method"`
	ExternalApplicationID string            `json:"external_application_id,omitempty"`
	ApplicationURL        string            `json:"application_url,omitempty"`
	ResumeText            string            `json:"resume_text,omitempty"`
	CoverLetterText       string            `json:"cover_letter_text,omitempty"`
	CustomAnswers         map[string]string `json:"custom_answers,omitempty"`
	AutomationLog         []AutomationStep  `json:"automation_log,omitempty"`
	ATSResponse           []byte            `json:"-"`
	IsVerified            bool              `json:"is_verified"`
	VerifiedSource        VerifiedSource    `json:"verified_source,omitempty"`
	EmailConfirmed        bool              `json:"email_confirmed"`
	AppliedAt             *time.Time        `json:"applied_at,omitempty"`
	CreatedAt             time.Time         `json:"created_at"`
	UpdatedAt             time.Time         `json:"updated_at"`
}

// EventType classifies an application lifecycle entry.
type EventType string

const (
	EventApplied            EventType = "applied"
	EventStatusChange       EventType = "status_change"
	EventEmailReceived      EventType = "email_received"
	EventInterviewScheduled EventType = "interview_scheduled"
	EventFollowUp           EventType = "follow_up"
	EventRejection          EventType = "rejection"
	EventOffer              EventType = "offer"
	EventWithdrawn          EventType = "withdrawn"
	EventNoteAdded          EventType = "note_added"
)

// ApplicationEvent is an immutable, per-application ordered lifecycle entry.
type ApplicationEvent struct {
	ID            uuid.UUID         `json:"id"`
	ApplicationID uuid.UUID         `json:"application_id"`
	Type          EventType         `json:"event_type"`
	Title         string            `json:"title"`
	Description   string            `json:"description,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
}

// JobScore is the deterministic per-(user, job) match result.
// At most one row exists per (user, job, engine_version).
type JobScore struct {
	UserID          int64              `json:"user_id"`
	JobID           uuid.UUID          `json:"job_id"`
	Score           float64            `json:"score"` // 0-100
	ComponentScores map[string]float64 `json:"component_scores"`
	Reasoning       string             `json:"reasoning,omitempty"`
	ComputedAt      time.Time          `json:"computed_at"`
	EngineVersion   string             `json:"engine_version"`
}

// PacketPriority orders prepared jobs for submission.
type PacketPriority string

const (
	PriorityLow    PacketPriority = "low"
	PriorityMedium PacketPriority = "medium"
	PriorityHigh   PacketPriority = "high"
)

// PreparedJob is the application-ready artifact bundle for a (user, job).
// It is consumed at most once by a successful Application.
type PreparedJob struct {
	ID              uuid.UUID         `json:"id"`
	UserID          int64             `json:"user_id"`
	JobID           uuid.UUID         `json:"job_id"`
	ResumeVariantID string            `json:"resume_variant_id,omitempty"`
	ResumeText      string            `json:"resume_text,omitempty"`
	CoverLetterText string            `json:"cover_letter_text,omitempty"`
	CustomAnswers   map[string]string `json:"custom_answers,omitempty"`
	PacketReady     bool              `json:"packet_ready"`
	NotReadyReason  string            `json:"not_ready_reason,omitempty"`
	Priority        PacketPriority    `json:"priority"`
	AINotes         string            `json:"ai_customization_notes,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
}
