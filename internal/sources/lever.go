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

// leverCompanies are the public Lever postings endpoints polled each run.
var leverCompanies = []string{"netflix", "spotify", "atlassian"}

const leverPageSize = 50

// Lever fetches from the public Lever postings API. Pagination is
// offset-based via skip/limit.
type Lever struct {
	limiter   *fetch.HostLimiter
	companies []string
}

// NewLever constructs the adapter with the default company list.
func NewLever(limiter *fetch.HostLimiter) *Lever {
	return &Lever{limiter: limiter, companies: leverCompanies}
}

// Name implements Source.
func (l *Lever) Name() string { return "lever" }

// leverPosting mirrors a single Lever posting.
type leverPosting struct {
	ID         string `json:"id"`
	Text       string `json:"text"`
	HostedURL  string `json:"hostedUrl"`
	ApplyURL   string `json:"applyUrl"`
	CreatedAt  int64  `json:"createdAt"` // milliseconds
	Categories struct {
		Location   string `json:"location"`
		Team       string `json:"team"`
		Commitment string `json:"commitment"`
	} `json:"categories"`
	DescriptionPlain string `json:"descriptionPlain"`
}

// Fetch pages through the configured companies. The cursor encodes
// "companyIndex:page".
func (l *Lever) Fetch(ctx context.Context, limit int, cursor string) (*Page, error) {
	companyIdx, page := decodeCursor(cursor)
	if companyIdx >= len(l.companies) || page >= maxPagesPerRun {
		return &Page{}, nil
	}
	company := l.companies[companyIdx]

	url := fmt.Sprintf("https://api.lever.co/v0/postings/%s?mode=json&skip=%d&limit=%d",
		company, page*leverPageSize, leverPageSize)
	result, err := fetch.URL(ctx, url, &fetch.Options{
		Timeout: fetch.DefaultATSTimeout,
		Limiter: l.limiter,
	})
	if err != nil {
		return nil, fmt.Errorf("lever company %s: %w", company, err)
	}

	var postings []leverPosting
	if err := json.Unmarshal(result.Body, &postings); err != nil {
		return nil, fmt.Errorf("lever company %s: failed to decode response: %w", company, err)
	}

	var jobs []types.RawJob
	for _, p := range postings {
		if p.Text == "" || p.HostedURL == "" {
			log.Printf("[lever] skipping malformed posting for %s", company)
			continue
		}
		if !matchesGeoFilter(p.Categories.Location) {
			continue
		}
		raw, _ := json.Marshal(p)
		job := types.RawJob{
			ExternalID:  p.ID,
			Title:       p.Text,
			Company:     company,
			Location:    p.Categories.Location,
			URL:         p.HostedURL,
			ApplyURL:    p.ApplyURL,
			Description: p.DescriptionPlain,
			Source:      l.Name(),
			RawPayload:  raw,
		}
		if p.CreatedAt > 0 {
			t := time.UnixMilli(p.CreatedAt).UTC()
			job.PostedAt = &t
		}
		jobs = append(jobs, job)
		if limit > 0 && len(jobs) >= limit {
			break
		}
	}

	next := ""
	if len(postings) == leverPageSize {
		next = encodeCursor(companyIdx, page+1)
	} else if companyIdx+1 < len(l.companies) {
		next = encodeCursor(companyIdx+1, 0)
	}
	return &Page{Jobs: jobs, NextCursor: next}, nil
}
