package sources

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/jonathan/jobpilot/internal/fetch"
	"github.com/jonathan/jobpilot/internal/types"
)

// Remotive fetches from the public Remotive jobs API. The endpoint returns
// the full remote-only listing in one shot, so there is no pagination.
type Remotive struct {
	limiter *fetch.HostLimiter
}

// NewRemotive constructs the adapter.
func NewRemotive(limiter *fetch.HostLimiter) *Remotive {
	return &Remotive{limiter: limiter}
}

// Name implements Source.
func (r *Remotive) Name() string { return "remotive" }

type remotiveResponse struct {
	Jobs []remotiveJob `json:"jobs"`
}

type remotiveJob struct {
	ID                        int64  `json:"id"`
	Title                     string `json:"title"`
	CompanyName               string `json:"company_name"`
	CandidateRequiredLocation string `json:"candidate_required_location"`
	URL                       string `json:"url"`
	JobType                   string `json:"job_type"`
	PublicationDate           string `json:"publication_date"`
	Salary                    string `json:"salary"`
	Description               string `json:"description"`
}

// Fetch returns the full feed as a single page.
func (r *Remotive) Fetch(ctx context.Context, limit int, cursor string) (*Page, error) {
	if cursor != "" {
		return &Page{}, nil
	}

	result, err := fetch.URL(ctx, "https://remotive.com/api/remote-jobs?category=software-dev", &fetch.Options{
		Timeout: fetch.DefaultATSTimeout,
		Limiter: r.limiter,
	})
	if err != nil {
		return nil, fmt.Errorf("remotive: %w", err)
	}

	var resp remotiveResponse
	if err := json.Unmarshal(result.Body, &resp); err != nil {
		return nil, fmt.Errorf("remotive: failed to decode response: %w", err)
	}

	var jobs []types.RawJob
	for _, j := range resp.Jobs {
		if j.Title == "" || j.URL == "" {
			log.Printf("[remotive] skipping malformed job")
			continue
		}
		raw, _ := json.Marshal(j)
		job := types.RawJob{
			ExternalID:  strconv.FormatInt(j.ID, 10),
			Title:       j.Title,
			Company:     j.CompanyName,
			Location:    locationOrRemote(j.CandidateRequiredLocation),
			URL:         j.URL,
			Description: j.Description,
			Source:      r.Name(),
			RawPayload:  raw,
		}
		if t, err := time.Parse("2006-01-02T15:04:05", j.PublicationDate); err == nil {
			job.PostedAt = &t
		}
		jobs = append(jobs, job)
		if limit > 0 && len(jobs) >= limit {
			break
		}
	}
	return &Page{Jobs: jobs}, nil
}

func locationOrRemote(s string) string {
	if strings.TrimSpace(s) == "" {
		return "Remote"
	}
	return s
}

// WeWorkRemotely fetches from the public We Work Remotely RSS feed.
type WeWorkRemotely struct {
	limiter *fetch.HostLimiter
}

// NewWeWorkRemotely constructs the adapter.
func NewWeWorkRemotely(limiter *fetch.HostLimiter) *WeWorkRemotely {
	return &WeWorkRemotely{limiter: limiter}
}

// Name implements Source.
func (w *WeWorkRemotely) Name() string { return "weworkremotely" }

type wwrFeed struct {
	Channel struct {
		Items []wwrItem `xml:"item"`
	} `xml:"channel"`
}

type wwrItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	GUID        string `xml:"guid"`
	Region      string `xml:"region"`
	PubDate     string `xml:"pubDate"`
	Description string `xml:"description"`
}

// Fetch returns the full feed as a single page. Item titles follow the
// "Company: Role" convention.
func (w *WeWorkRemotely) Fetch(ctx context.Context, limit int, cursor string) (*Page, error) {
	if cursor != "" {
		return &Page{}, nil
	}

	result, err := fetch.URL(ctx, "https://weworkremotely.com/categories/remote-programming-jobs.rss", &fetch.Options{
		Timeout: fetch.DefaultATSTimeout,
		Limiter: w.limiter,
	})
	if err != nil {
		return nil, fmt.Errorf("weworkremotely: %w", err)
	}

	var feed wwrFeed
	if err := xml.Unmarshal(result.Body, &feed); err != nil {
		return nil, fmt.Errorf("weworkremotely: failed to decode feed: %w", err)
	}

	var jobs []types.RawJob
	for _, item := range feed.Channel.Items {
		if item.Title == "" || item.Link == "" {
			log.Printf("[weworkremotely] skipping malformed item")
			continue
		}
		company, title := splitFeedTitle(item.Title)
		raw, _ := xml.Marshal(item)
		job := types.RawJob{
			ExternalID:  item.GUID,
			Title:       title,
			Company:     company,
			Location:    locationOrRemote(item.Region),
			URL:         item.Link,
			Description: item.Description,
			HTML:        item.Description,
			Source:      w.Name(),
			RawPayload:  raw,
		}
		if t, err := time.Parse(time.RFC1123Z, item.PubDate); err == nil {
			job.PostedAt = &t
		}
		jobs = append(jobs, job)
		if limit > 0 && len(jobs) >= limit {
			break
		}
	}
	return &Page{Jobs: jobs}, nil
}

// splitFeedTitle splits a "Company: Role" feed title. Titles without the
// separator are treated as role-only.
func splitFeedTitle(s string) (company, title string) {
	if i := strings.Index(s, ": "); i > 0 {
		return strings.TrimSpace(s[:i]), strings.TrimSpace(s[i+2:])
	}
	return "", strings.TrimSpace(s)
}
