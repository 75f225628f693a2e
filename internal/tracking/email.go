package tracking

import (
	"net/mail"
	"strings"
	"time"

	"github.com/jonathan/jobpilot/internal/types"
)

// EmailMessage is one fetched message handed to the parser. The mailbox
// integration (IMAP or a delegated parser) produces these.
type EmailMessage struct {
	From       string
	Subject    string
	Body       string
	ReceivedAt time.Time
}

// statusRule maps phrase hits to a proposed status. Rules are ordered most
// specific first; the first hit wins.
type statusRule struct {
	phrases    []string
	status     types.ApplicationStatus
	confidence float64
}

var emailStatusRules = []statusRule{
	{
		phrases:    []string{"offer letter", "pleased to offer", "extend an offer", "offer of employment"},
		status:     types.StatusOffer,
		confidence: 0.9,
	},
	{
		phrases:    []string{"interview", "schedule a call", "speak with you", "phone screen", "technical round"},
		status:     types.StatusInterview,
		confidence: 0.8,
	},
	{
		phrases: []string{
			"unfortunately", "not moving forward", "other candidates",
			"decided not to proceed", "position has been filled", "regret to inform",
		},
		status:     types.StatusRejected,
		confidence: 0.85,
	},
	{
		phrases:    []string{"under review", "reviewing your application", "being considered"},
		status:     types.StatusInReview,
		confidence: 0.7,
	},
	{
		phrases:    []string{"application received", "thank you for applying", "we received your application"},
		status:     types.StatusApplied,
		confidence: 0.6,
	},
}

// ParseEmail classifies a message into a StatusDelta. It returns nil when no
// rule matches; email deltas always carry DeltaSourceEmail and lose
// precedence ties against ats and manual.
func ParseEmail(msg *EmailMessage) *types.StatusDelta {
	text := strings.ToLower(msg.Subject + "\n" + msg.Body)
	for _, rule := range emailStatusRules {
		for _, phrase := range rule.phrases {
			if strings.Contains(text, phrase) {
				return &types.StatusDelta{
					Status:     rule.status,
					Source:     types.DeltaSourceEmail,
					Confidence: rule.confidence,
					Notes:      "email: " + truncate(msg.Subject, 120),
					ReceivedAt: msg.ReceivedAt,
				}
			}
		}
	}
	return nil
}

// MatchesCompany reports whether a message plausibly came from the company.
// Checked in order: subject mention, sender display name, sender domain.
// Names shorter than three characters are skipped to avoid false positives.
func MatchesCompany(msg *EmailMessage, company string) bool {
	companyLower := strings.ToLower(strings.TrimSpace(company))
	if len(companyLower) < 3 {
		return false
	}

	if strings.Contains(strings.ToLower(msg.Subject), companyLower) {
		return true
	}

	senderName, senderAddr := "", strings.ToLower(msg.From)
	if parsed, err := mail.ParseAddress(msg.From); err == nil {
		senderName = strings.ToLower(parsed.Name)
		senderAddr = strings.ToLower(parsed.Address)
	}
	if senderName != "" && strings.Contains(senderName, companyLower) {
		return true
	}
	if _, domain, ok := strings.Cut(senderAddr, "@"); ok {
		return strings.Contains(domain, companyLower)
	}
	return false
}

// MatchesKeywords reports whether the message contains any registered
// tracking keyword.
func MatchesKeywords(msg *EmailMessage, keywords []string) bool {
	text := strings.ToLower(msg.Subject + "\n" + msg.Body)
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if len(kw) >= 3 && strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
