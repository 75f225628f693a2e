package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/jonathan/jobpilot/internal/fetch"
	"github.com/jonathan/jobpilot/internal/types"
)

// workdayTenants are the public CXS job boards polled each run.
var workdayTenants = []struct {
	host string
	site string
	name string
}{
	{"nvidia.wd5.myworkdayjobs.com", "NVIDIAExternalCareerSite", "nvidia"},
	{"salesforce.wd12.myworkdayjobs.com", "External_Career_Site", "salesforce"},
}

const workdayPageSize = 20

// Workday fetches from public Workday CXS job boards. Pagination is
// offset-based.
type Workday struct {
	limiter *fetch.HostLimiter
}

// NewWorkday constructs the adapter.
func NewWorkday(limiter *fetch.HostLimiter) *Workday {
	return &Workday{limiter: limiter}
}

// Name implements Source.
func (w *Workday) Name() string { return "workday" }

// workdayResponse mirrors the CXS jobs payload.
type workdayResponse struct {
	Total       int                  `json:"total"`
	JobPostings []workdayJobPosting `json:"jobPostings"`
}

type workdayJobPosting struct {
	Title         string `json:"title"`
	ExternalPath  string `json:"externalPath"`
	LocationsText string `json:"locationsText"`
	PostedOn      string `json:"postedOn"`
	BulletFields  []string `json:"bulletFields"`
}

// Fetch pages through the configured tenants. The cursor encodes
// "tenantIndex:page".
func (w *Workday) Fetch(ctx context.Context, limit int, cursor string) (*Page, error) {
	tenantIdx, page := decodeCursor(cursor)
	if tenantIdx >= len(workdayTenants) || page >= maxPagesPerRun {
		return &Page{}, nil
	}
	tenant := workdayTenants[tenantIdx]

	url := fmt.Sprintf("https://%s/wday/cxs/%s/%s/jobs?limit=%d&offset=%d",
		tenant.host, tenant.name, tenant.site, workdayPageSize, page*workdayPageSize)
	result, err := fetch.URL(ctx, url, &fetch.Options{
		Timeout: fetch.DefaultATSTimeout,
		Limiter: w.limiter,
		Headers: map[string]string{"Accept": "application/json"},
	})
	if err != nil {
		return nil, fmt.Errorf("workday tenant %s: %w", tenant.name, err)
	}

	var resp workdayResponse
	if err := json.Unmarshal(result.Body, &resp); err != nil {
		return nil, fmt.Errorf("workday tenant %s: failed to decode response: %w", tenant.name, err)
	}

	var jobs []types.RawJob
	for _, p := range resp.JobPostings {
		if p.Title == "" || p.ExternalPath == "" {
			log.Printf("[workday] skipping malformed posting for %s", tenant.name)
			continue
		}
		if !matchesGeoFilter(p.LocationsText) {
			continue
		}
		externalID := ""
		if len(p.BulletFields) > 0 {
			externalID = p.BulletFields[0]
		}
		raw, _ := json.Marshal(p)
		job := types.RawJob{
			ExternalID: externalID,
			Title:      p.Title,
			Company:    tenant.name,
			Location:   p.LocationsText,
			URL:        "https://" + tenant.host + "/en-US/" + tenant.site + p.ExternalPath,
			Source:     w.Name(),
			RawPayload: raw,
		}
		if t, ok := parseWorkdayPostedOn(p.PostedOn); ok {
			job.PostedAt = &t
		}
		jobs = append(jobs, job)
		if limit > 0 && len(jobs) >= limit {
			break
		}
	}

	next := ""
	if (page+1)*workdayPageSize < resp.Total {
		next = encodeCursor(tenantIdx, page+1)
	} else if tenantIdx+1 < len(workdayTenants) {
		next = encodeCursor(tenantIdx+1, 0)
	}
	return &Page{Jobs: jobs, NextCursor: next}, nil
}

// parseWorkdayPostedOn converts the relative "Posted N Days Ago" text.
func parseWorkdayPostedOn(s string) (time.Time, bool) {
	var days int
	if _, err := fmt.Sscanf(s, "Posted %d Days Ago", &days); err == nil {
		return time.Now().UTC().AddDate(0, 0, -days), true
	}
	switch s {
	case "Posted Today":
		return time.Now().UTC(), true
	case "Posted Yesterday":
		return time.Now().UTC().AddDate(0, 0, -1), true
	}
	return time.Time{}, false
}
