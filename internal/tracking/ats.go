package tracking

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jonathan/jobpilot/internal/config"
	"github.com/jonathan/jobpilot/internal/types"
)

const atsPollTimeout = 20 * time.Second

// Poller checks one ATS for the current status of a tracked application.
type Poller interface {
	// System returns the ATS tag this poller serves.
	System() string
	// Check fetches the remote status. A nil delta means no change signal.
	Check(ctx context.Context, t *types.ApplicationTracking) (*types.StatusDelta, error)
}

// atsStatusMap normalizes the status vocabulary the ATS APIs return.
var atsStatusMap = map[string]types.ApplicationStatus{
	"active":       types.StatusInReview,
	"in review":    types.StatusInReview,
	"in_review":    types.StatusInReview,
	"under review": types.StatusInReview,
	"interview":    types.StatusInterview,
	"interviewing": types.StatusInterview,
	"onsite":       types.StatusInterview,
	"offer":        types.StatusOffer,
	"hired":        types.StatusAccepted,
	"rejected":     types.StatusRejected,
	"declined":     types.StatusRejected,
	"archived":     types.StatusRejected,
}

// NormalizeATSStatus maps a raw ATS status string, returning false for
// vocabulary we do not recognize.
func NormalizeATSStatus(raw string) (types.ApplicationStatus, bool) {
	status, ok := atsStatusMap[strings.ToLower(strings.TrimSpace(raw))]
	return status, ok
}

// restPoller implements Poller for the REST-style ATS status endpoints. The
// three supported ATS differ only in URL shape and auth.
type restPoller struct {
	system   string
	creds    *config.ATSCredentials
	client   *http.Client
	endpoint func(t *types.ApplicationTracking) string
}

// NewPollers builds a poller per ATS with configured credentials.
func NewPollers(creds *config.ATSCredentials) map[string]Poller {
	client := &http.Client{Timeout: atsPollTimeout}
	pollers := make(map[string]Poller)
	if creds.EnabledFor("greenhouse") {
		pollers["greenhouse"] = &restPoller{
			system: "greenhouse", creds: creds, client: client,
			endpoint: func(t *types.ApplicationTracking) string {
				return "https://harvest.greenhouse.io/v1/applications/" + t.ExternalTrackingID
			},
		}
	}
	if creds.EnabledFor("lever") {
		pollers["lever"] = &restPoller{
			system: "lever", creds: creds, client: client,
			endpoint: func(t *types.ApplicationTracking) string {
				return "https://api.lever.co/v1/opportunities/" + t.ExternalTrackingID
			},
		}
	}
	if creds.EnabledFor("workday") {
		pollers["workday"] = &restPoller{
			system: "workday", creds: creds, client: client,
			endpoint: func(t *types.ApplicationTracking) string {
				return creds.WorkdayTenantURL + "/applications/" + t.ExternalTrackingID
			},
		}
	}
	return pollers
}

// System implements Poller.
func (p *restPoller) System() string { return p.system }

// Check implements Poller. ATS deltas carry full confidence; they sit at the
// top of the precedence order.
func (p *restPoller) Check(ctx context.Context, t *types.ApplicationTracking) (*types.StatusDelta, error) {
	if t.ExternalTrackingID == "" {
		return nil, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint(t), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create status request: %w", err)
	}
	p.authorize(req)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s status check failed: %w", p.system, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s status check returned %d", p.system, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s status response: %w", p.system, err)
	}

	raw := extractStatusField(body)
	if raw == "" {
		return nil, nil
	}
	status, ok := NormalizeATSStatus(raw)
	if !ok {
		return nil, nil
	}
	return &types.StatusDelta{
		ApplicationID: t.ApplicationID,
		Status:        status,
		Source:        types.DeltaSourceATS,
		Confidence:    1.0,
		Notes:         fmt.Sprintf("%s reported %q", p.system, raw),
		ReceivedAt:    time.Now().UTC(),
	}, nil
}

func (p *restPoller) authorize(req *http.Request) {
	switch p.system {
	case "greenhouse":
		req.SetBasicAuth(p.creds.GreenhouseAPIKey, "")
	case "lever":
		req.Header.Set("Authorization", "Bearer "+p.creds.LeverAPIKey)
	case "workday":
		req.SetBasicAuth(p.creds.WorkdayClientID, p.creds.WorkdayClientSecret)
	}
}

// extractStatusField pulls the status out of an ATS response, trying the
// known field names.
func extractStatusField(body []byte) string {
	var resp map[string]any
	if err := json.Unmarshal(body, &resp); err != nil {
		return ""
	}
	for _, key := range []string{"status", "state", "stage"} {
		if v, ok := resp[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}
