package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/jonathan/jobpilot/internal/fetch"
	"github.com/jonathan/jobpilot/internal/types"
)

// greenhouseBoards are the public job boards polled each run. The board API
// is documented and requires no authentication for reads.
var greenhouseBoards = []string{"stripe", "gitlab", "cloudflare", "databricks"}

const greenhousePageSize = 100

// Greenhouse fetches from the public Greenhouse board API.
type Greenhouse struct {
	limiter *fetch.HostLimiter
	boards  []string
}

// NewGreenhouse constructs the adapter with the default board list.
func NewGreenhouse(limiter *fetch.HostLimiter) *Greenhouse {
	return &Greenhouse{limiter: limiter, boards: greenhouseBoards}
}

// Name implements Source.
func (g *Greenhouse) Name() string { return "greenhouse" }

// greenhouseResponse mirrors the board API job list payload.
type greenhouseResponse struct {
	Jobs []greenhouseJob `json:"jobs"`
	Meta struct {
		Total int `json:"total"`
	} `json:"meta"`
}

type greenhouseJob struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	UpdatedAt string `json:"updated_at"`
	Location  struct {
		Name string `json:"name"`
	} `json:"location"`
	AbsoluteURL string `json:"absolute_url"`
	CompanyName string `json:"company_name"`
}

// Fetch pages through the configured boards. The cursor encodes
// "boardIndex:page"; pagination stops at the per-run page cap.
func (g *Greenhouse) Fetch(ctx context.Context, limit int, cursor string) (*Page, error) {
	boardIdx, page := decodeCursor(cursor)
	if boardIdx >= len(g.boards) || page >= maxPagesPerRun {
		return &Page{}, nil
	}
	board := g.boards[boardIdx]

	url := fmt.Sprintf("https://boards-api.greenhouse.io/v1/boards/%s/jobs?content=true&page=%d&per_page=%d",
		board, page+1, greenhousePageSize)
	result, err := fetch.URL(ctx, url, &fetch.Options{
		Timeout: fetch.DefaultATSTimeout,
		Limiter: g.limiter,
	})
	if err != nil {
		return nil, fmt.Errorf("greenhouse board %s: %w", board, err)
	}

	var resp greenhouseResponse
	if err := json.Unmarshal(result.Body, &resp); err != nil {
		return nil, fmt.Errorf("greenhouse board %s: failed to decode response: %w", board, err)
	}

	var jobs []types.RawJob
	for _, j := range resp.Jobs {
		if j.Title == "" || j.AbsoluteURL == "" {
			log.Printf("[greenhouse] skipping malformed job on board %s", board)
			continue
		}
		if !matchesGeoFilter(j.Location.Name) {
			continue
		}
		company := j.CompanyName
		if company == "" {
			company = board
		}
		raw, _ := json.Marshal(j)
		job := types.RawJob{
			ExternalID:  strconv.FormatInt(j.ID, 10),
			Title:       j.Title,
			Company:     company,
			Location:    j.Location.Name,
			URL:         j.AbsoluteURL,
			ApplyURL:    j.AbsoluteURL,
			Description: j.Content,
			Source:      g.Name(),
			RawPayload:  raw,
		}
		if t, err := time.Parse(time.RFC3339, j.UpdatedAt); err == nil {
			job.PostedAt = &t
		}
		jobs = append(jobs, job)
		if limit > 0 && len(jobs) >= limit {
			break
		}
	}

	next := ""
	if len(resp.Jobs) == greenhousePageSize {
		next = encodeCursor(boardIdx, page+1)
	} else if boardIdx+1 < len(g.boards) {
		next = encodeCursor(boardIdx+1, 0)
	}
	return &Page{Jobs: jobs, NextCursor: next}, nil
}

// decodeCursor parses "boardIndex:page" cursors shared by the ATS adapters.
func decodeCursor(cursor string) (idx, page int) {
	if cursor == "" {
		return 0, 0
	}
	if _, err := fmt.Sscanf(cursor, "%d:%d", &idx, &page); err != nil {
		return 0, 0
	}
	return idx, page
}

func encodeCursor(idx, page int) string {
	return fmt.Sprintf("%d:%d", idx, page)
}
