package types

import "fmt"

// ApplicationStatus mirrors the application_status enum in PostgreSQL.
//
// Valid status graph:
//
//	pending ──► applied ──► in_review ──► interview ──► offer ──► accepted/declined
//	               │            │             │           │
//	               └────────────┴─────────────┴───────────┘──► rejected
//	pending ──► failed (submission failure, human retry only)
//	withdrawn is reachable from any non-terminal state.
//
// accepted, declined, rejected and withdrawn are terminal. failed means the
// submission itself failed, not that the employer rejected the candidate.
type ApplicationStatus string

const (
	StatusPending   ApplicationStatus = "pending"
	StatusApplied   ApplicationStatus = "applied"
	StatusInReview  ApplicationStatus = "in_review"
	StatusInterview ApplicationStatus = "interview"
	StatusRejected  ApplicationStatus = "rejected"
	StatusOffer     ApplicationStatus = "offer"
	StatusAccepted  ApplicationStatus = "accepted"
	StatusDeclined  ApplicationStatus = "declined"
	StatusWithdrawn ApplicationStatus = "withdrawn"
	StatusFailed    ApplicationStatus = "failed"
)

// validTransitions lists every allowed (from → to) pair, withdrawn excluded
// (it is handled generically for all non-terminal states).
var validTransitions = map[ApplicationStatus][]ApplicationStatus{
	StatusPending:   {StatusApplied, StatusFailed},
	StatusApplied:   {StatusInReview, StatusInterview, StatusRejected, StatusOffer},
	StatusInReview:  {StatusInterview, StatusRejected, StatusOffer},
	StatusInterview: {StatusRejected, StatusOffer},
	StatusOffer:     {StatusAccepted, StatusDeclined},
	// failed may only be re-driven by a human back through pending
	StatusFailed: {StatusPending},
}

// ParseApplicationStatus converts a raw string to an ApplicationStatus,
// returning an error for unknown values.
func ParseApplicationStatus(s string) (ApplicationStatus, error) {
	st := ApplicationStatus(s)
	switch st {
	case StatusPending, StatusApplied, StatusInReview, StatusInterview,
		StatusRejected, StatusOffer, StatusAccepted, StatusDeclined,
		StatusWithdrawn, StatusFailed:
		return st, nil
	}
	return "", fmt.Errorf("unknown application status %q", s)
}

// IsTerminal reports whether no further transitions are permitted except none.
func (s ApplicationStatus) IsTerminal() bool {
	switch s {
	case StatusAccepted, StatusDeclined, StatusRejected, StatusWithdrawn:
		return true
	}
	return false
}

// IsTransitionAllowed returns true when moving from → to is permitted by the
// state machine. Withdrawing is permitted from any non-terminal state.
func IsTransitionAllowed(from, to ApplicationStatus) bool {
	if from == to {
		return false
	}
	if to == StatusWithdrawn {
		return !from.IsTerminal()
	}
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
