package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jonathan/jobpilot/internal/config"
	"github.com/jonathan/jobpilot/internal/schemas"
	"github.com/jonathan/jobpilot/internal/types"
)

const apiSubmitTimeout = 20 * time.Second

// APIStrategy submits a documented JSON payload directly to the ATS. It
// applies only to sources with both a payload schema and configured
// credentials.
type APIStrategy struct {
	creds  *config.ATSCredentials
	client *http.Client
}

// NewAPIStrategy constructs the strategy.
func NewAPIStrategy(creds *config.ATSCredentials) *APIStrategy {
	return &APIStrategy{
		creds:  creds,
		client: &http.Client{Timeout: apiSubmitTimeout},
	}
}

// Name implements Strategy.
func (s *APIStrategy) Name() string { return "api" }

// AppliesTo implements Strategy.
func (s *APIStrategy) AppliesTo(job *types.JobPosting) bool {
	return schemas.HasSchema(job.Source) && s.creds.EnabledFor(job.Source)
}

// Submit builds the source-specific payload, validates it against the ATS
// schema, and POSTs it. The payload never leaves the process if validation
// fails.
func (s *APIStrategy) Submit(ctx context.Context, req *SubmitRequest) (*Outcome, error) {
	steps := []types.AutomationStep{
		step("build_payload", "source "+req.Job.Source, true),
	}

	payload, endpoint, err := s.buildPayload(req)
	if err != nil {
		return nil, &SubmitError{Class: FailureContentValidation, Message: "failed to build payload", Cause: err}
	}

	if err := schemas.ValidateApplicationPayload(req.Job.Source, payload); err != nil {
		var ve *schemas.ValidationError
		if errors.As(err, &ve) {
			return nil, &SubmitError{Class: FailureFormSchemaMismatch, Message: "payload rejected by schema", Cause: err}
		}
		return nil, &SubmitError{Class: FailureUnknown, Message: "schema validation errored", Cause: err}
	}
	steps = append(steps, step("validate_payload", "", true))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, &SubmitError{Class: FailureUnknown, Message: "failed to create request", Cause: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	s.authorize(httpReq, req.Job.Source)

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, &SubmitError{Class: FailureNetwork, Message: "submission request failed", Cause: err}
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	if err := classifyStatus(resp.StatusCode, req.Job.Source); err != nil {
		return nil, err
	}
	steps = append(steps, step("submit", fmt.Sprintf("HTTP %d", resp.StatusCode), true))

	return &Outcome{
		Method:                types.MethodAPI,
		ExternalApplicationID: extractExternalID(body),
		ApplicationURL:        req.Job.SubmitURL(),
		ATSResponse:           body,
		Steps:                 steps,
	}, nil
}

func (s *APIStrategy) buildPayload(req *SubmitRequest) ([]byte, string, error) {
	user, job, packet := req.User, req.Job, req.Packet
	switch job.Source {
	case "greenhouse":
		payload, err := json.Marshal(map[string]any{
			"first_name":     user.FirstName,
			"last_name":      user.LastName,
			"email":          user.Email,
			"phone":          user.Phone,
			"job_id":         job.ExternalID,
			"resume_text":    packet.ResumeText,
			"cover_letter":   packet.CoverLetterText,
			"custom_answers": packet.CustomAnswers,
		})
		return payload, fmt.Sprintf("https://boards-api.greenhouse.io/v1/boards/%s/jobs/%s", job.Company, job.ExternalID), err
	case "lever":
		payload, err := json.Marshal(map[string]any{
			"name":           user.FirstName + " " + user.LastName,
			"email":          user.Email,
			"phone":          user.Phone,
			"posting_id":     job.ExternalID,
			"resume_text":    packet.ResumeText,
			"comments":       packet.CoverLetterText,
			"custom_answers": packet.CustomAnswers,
		})
		return payload, fmt.Sprintf("https://api.lever.co/v0/postings/%s/%s/apply", job.Company, job.ExternalID), err
	case "workday":
		payload, err := json.Marshal(map[string]any{
			"candidate": map[string]any{
				"first_name": user.FirstName,
				"last_name":  user.LastName,
				"email":      user.Email,
				"phone":      user.Phone,
			},
			"job_requisition_id": job.ExternalID,
			"resume_text":        packet.ResumeText,
			"custom_answers":     packet.CustomAnswers,
		})
		return payload, s.creds.WorkdayTenantURL + "/applications", err
	}
	return nil, "", fmt.Errorf("unsupported api source %q", job.Source)
}

func (s *APIStrategy) authorize(req *http.Request, source string) {
	switch source {
	case "greenhouse":
		req.SetBasicAuth(s.creds.GreenhouseAPIKey, "")
	case "lever":
		req.Header.Set("Authorization", "Bearer "+s.creds.LeverAPIKey)
	case "workday":
		req.SetBasicAuth(s.creds.WorkdayClientID, s.creds.WorkdayClientSecret)
	}
}

func classifyStatus(status int, source string) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &SubmitError{Class: FailureAuthentication, Message: fmt.Sprintf("%s returned %d", source, status)}
	case status == http.StatusTooManyRequests:
		return &SubmitError{Class: FailureRateLimited, Message: fmt.Sprintf("%s returned 429", source)}
	case status == http.StatusUnprocessableEntity || status == http.StatusBadRequest:
		return &SubmitError{Class: FailureFormSchemaMismatch, Message: fmt.Sprintf("%s rejected payload with %d", source, status)}
	case status >= 500:
		return &SubmitError{Class: FailureNetwork, Message: fmt.Sprintf("%s returned %d", source, status)}
	default:
		return &SubmitError{Class: FailureUnknown, Message: fmt.Sprintf("%s returned %d", source, status)}
	}
}

// extractExternalID pulls the application id out of an ATS response. The
// field name varies per ATS; try the known ones.
func extractExternalID(body []byte) string {
	var resp map[string]any
	if err := json.Unmarshal(body, &resp); err != nil {
		return ""
	}
	for _, key := range []string{"application_id", "applicationId", "id"} {
		switch v := resp[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return fmt.Sprintf("%.0f", v)
		}
	}
	return ""
}

func step(name, detail string, success bool) types.AutomationStep {
	return types.AutomationStep{
		Step:      name,
		Detail:    detail,
		Success:   success,
		Timestamp: time.Now().UTC(),
	}
}
