package executor

import (
	"context"

	"github.com/jonathan/jobpilot/internal/types"
)

// RedirectStrategy records a manual application pointing at the posting's
// apply URL without submitting anything. It exists because some sources
// cannot legally be automated, and it applies to every posting, so it is
// always the last strategy in the selection order.
type RedirectStrategy struct{}

// NewRedirectStrategy constructs the strategy.
func NewRedirectStrategy() *RedirectStrategy {
	return &RedirectStrategy{}
}

// Name implements Strategy.
func (s *RedirectStrategy) Name() string { return "redirect" }

// AppliesTo implements Strategy.
func (s *RedirectStrategy) AppliesTo(job *types.JobPosting) bool { return true }

// Submit records the redirect without contacting the employer.
func (s *RedirectStrategy) Submit(ctx context.Context, req *SubmitRequest) (*Outcome, error) {
	return &Outcome{
		Method:         types.MethodRedirect,
		ApplicationURL: req.Job.SubmitURL(),
		Steps:          []types.AutomationStep{step("record_redirect", req.Job.SubmitURL(), true)},
	}, nil
}
