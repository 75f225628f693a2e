package executor

import (
	"context"
	"fmt"

	"github.com/jonathan/jobpilot/internal/types"
)

// SubmitRequest carries everything a strategy needs to submit one packet.
type SubmitRequest struct {
	User   *types.UserProfile
	Job    *types.JobPosting
	Packet *types.PreparedJob
}

// Outcome is the result of a successful submission.
type Outcome struct {
	Method                types.ApplicationMethod
	ExternalApplicationID string
	ApplicationURL        string
	ConfirmationText      string
	ATSResponse           []byte
	Steps                 []types.AutomationStep
}

// Strategy is one submission channel. Strategies declare applicability per
// job; the executor picks the first applicable in its configured order.
type Strategy interface {
	// Name returns the strategy tag used for override selection.
	Name() string
	// AppliesTo reports whether this strategy can submit to the job.
	AppliesTo(job *types.JobPosting) bool
	// Submit performs the submission. Errors should be *SubmitError so the
	// executor can classify and schedule retries.
	Submit(ctx context.Context, req *SubmitRequest) (*Outcome, error)
}

// SelectStrategy returns the strategy to use: the named override when given,
// otherwise the first applicable in order.
func SelectStrategy(strategies []Strategy, job *types.JobPosting, override string) (Strategy, error) {
	if override != "" {
		for _, s := range strategies {
			if s.Name() == override {
				if !s.AppliesTo(job) {
					return nil, fmt.Errorf("strategy %q does not apply to job %s", override, job.ID)
				}
				return s, nil
			}
		}
		return nil, fmt.Errorf("unknown strategy %q", override)
	}
	for _, s := range strategies {
		if s.AppliesTo(job) {
			return s, nil
		}
	}
	return nil, fmt.Errorf("no applicable strategy for job %s", job.ID)
}
