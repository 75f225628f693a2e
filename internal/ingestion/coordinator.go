// Package ingestion coordinates fetching across source adapters, funnels
// parsed postings through a single database writer, and sweeps stale
// postings out of the active set.
package ingestion

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/jobpilot/internal/config"
	"github.com/jonathan/jobpilot/internal/db"
	"github.com/jonathan/jobpilot/internal/events"
	"github.com/jonathan/jobpilot/internal/parser"
	"github.com/jonathan/jobpilot/internal/sources"
	"github.com/jonathan/jobpilot/internal/types"
)

// DefaultPerSourceLimit bounds how many jobs one source contributes per run.
const DefaultPerSourceLimit = 500

// zeroNewPageStop ends a source's run after this many consecutive pages that
// created nothing new.
const zeroNewPageStop = 3

// Options configures a single ingestion run.
type Options struct {
	// Sources restricts the run to these source tags. Empty means all.
	Sources []string
	// PerSourceLimit caps jobs per source. Zero applies the default.
	PerSourceLimit int
}

// SourceReport summarizes one source's contribution to a run.
type SourceReport struct {
	Source        string `json:"source"`
	Pages         int    `json:"pages"`
	Fetched       int    `json:"fetched"`
	ParseFailures int    `json:"parse_failures"`
	Created       int    `json:"created"`
	Updated       int    `json:"updated"`
	Error         string `json:"error,omitempty"`
}

// Report summarizes a full ingestion run.
type Report struct {
	StartedAt time.Time      `json:"started_at"`
	Duration  time.Duration  `json:"duration"`
	Created   int            `json:"created"`
	Updated   int            `json:"updated"`
	Sources   []SourceReport `json:"sources"`
}

// store is the database surface the coordinator writes through.
type store interface {
	UpsertJobPosting(ctx context.Context, p *types.JobPosting) (*db.UpsertResult, error)
	DeactivateStalePostings(ctx context.Context, olderThanDays int) (int64, error)
}

// Coordinator runs ingestion: concurrent per-source fetchers feed a bounded
// channel drained by a single writer, so the database sees one upsert stream.
type Coordinator struct {
	db       store
	registry *sources.Registry
	parser   *parser.Parser
	bus      *events.Bus
	cfg      *config.Config
}

// NewCoordinator wires a coordinator.
func NewCoordinator(database *db.DB, registry *sources.Registry, bus *events.Bus, cfg *config.Config) *Coordinator {
	return &Coordinator{
		db:       database,
		registry: registry,
		parser:   parser.New(),
		bus:      bus,
		cfg:      cfg,
	}
}

// pageBatch is one parsed page handed to the writer. The writer replies with
// the number of rows created so the fetcher can apply its stop conditions.
type pageBatch struct {
	source   string
	postings []*types.JobPosting
	created  chan int
}

// Run executes one ingestion pass and returns the per-source report. Source
// failures are recorded, not fatal: every other source still completes.
func (c *Coordinator) Run(ctx context.Context, opts Options) (*Report, error) {
	start := time.Now().UTC()
	limit := opts.PerSourceLimit
	if limit <= 0 {
		limit = DefaultPerSourceLimit
	}

	selected, err := c.selectSources(opts.Sources)
	if err != nil {
		return nil, err
	}

	batches := make(chan pageBatch, c.cfg.SourceConcurrency)
	reports := make([]SourceReport, len(selected))

	var writerWG sync.WaitGroup
	writerWG.Add(1)
	writerCounts := struct {
		sync.Mutex
		created int
		updated int
	}{}
	go func() {
		defer writerWG.Done()
		for batch := range batches {
			created := 0
			for _, posting := range batch.postings {
				result, err := c.db.UpsertJobPosting(ctx, posting)
				if err != nil {
					log.Printf("[ingest] upsert failed for %s %q: %v", batch.source, posting.Title, err)
					continue
				}
				eventType := types.BusJobUpdated
				if result.Created {
					created++
					eventType = types.BusJobCreated
				}
				c.bus.Publish(ctx, types.BusEvent{
					Type:    eventType,
					Channel: "jobs",
					Payload: map[string]any{
						"job_id":  result.ID,
						"source":  posting.Source,
						"title":   posting.Title,
						"company": posting.Company,
					},
				})
			}
			writerCounts.Lock()
			writerCounts.created += created
			writerCounts.updated += len(batch.postings) - created
			writerCounts.Unlock()
			batch.created <- created
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.SourceConcurrency)
	for i, src := range selected {
		g.Go(func() error {
			reports[i] = c.runSource(gctx, src, limit, batches)
			return nil
		})
	}
	_ = g.Wait()
	close(batches)
	writerWG.Wait()

	report := &Report{
		StartedAt: start,
		Duration:  time.Since(start),
		Sources:   reports,
	}
	for _, sr := range reports {
		report.Created += sr.Created
		report.Updated += sr.Updated
	}
	log.Printf("[ingest] run complete: %d created, %d updated across %d sources in %s",
		report.Created, report.Updated, len(selected), report.Duration.Round(time.Millisecond))
	return report, nil
}

func (c *Coordinator) selectSources(names []string) ([]sources.Source, error) {
	if len(names) == 0 {
		return c.registry.All(), nil
	}
	out := make([]sources.Source, 0, len(names))
	for _, name := range names {
		src := c.registry.Get(name)
		if src == nil {
			return nil, fmt.Errorf("unknown source %q (registered: %v)", name, c.registry.Names())
		}
		out = append(out, src)
	}
	return out, nil
}

// runSource pages through one source until a stop condition fires: the
// per-source limit, an exhausted cursor, too many pages with nothing new, or
// the loop guard seeing the first page's lead job again.
func (c *Coordinator) runSource(ctx context.Context, src sources.Source, limit int, batches chan<- pageBatch) SourceReport {
	report := SourceReport{Source: src.Name()}
	cursor := ""
	zeroNewStreak := 0
	firstSeenID := ""

	for report.Fetched < limit {
		page, err := src.Fetch(ctx, limit-report.Fetched, cursor)
		if err != nil {
			report.Error = err.Error()
			log.Printf("[ingest] source %s failed: %v", src.Name(), err)
			return report
		}
		if len(page.Jobs) == 0 && page.NextCursor == "" {
			return report
		}
		report.Pages++

		if len(page.Jobs) > 0 {
			leadID := page.Jobs[0].ExternalID + "|" + page.Jobs[0].URL
			if firstSeenID == "" {
				firstSeenID = leadID
			} else if leadID == firstSeenID {
				log.Printf("[ingest] source %s cursor looped, stopping", src.Name())
				return report
			}
		}

		postings := make([]*types.JobPosting, 0, len(page.Jobs))
		for i := range page.Jobs {
			report.Fetched++
			posting := c.parser.Parse(&page.Jobs[i])
			if posting == nil {
				report.ParseFailures++
				continue
			}
			postings = append(postings, posting)
		}

		created := 0
		if len(postings) > 0 {
			batch := pageBatch{source: src.Name(), postings: postings, created: make(chan int, 1)}
			select {
			case batches <- batch:
				created = <-batch.created
			case <-ctx.Done():
				report.Error = ctx.Err().Error()
				return report
			}
		}
		report.Created += created
		report.Updated += len(postings) - created

		if created == 0 {
			zeroNewStreak++
			if zeroNewStreak >= zeroNewPageStop {
				log.Printf("[ingest] source %s produced %d stale pages, stopping", src.Name(), zeroNewStreak)
				return report
			}
		} else {
			zeroNewStreak = 0
		}

		if page.NextCursor == "" {
			return report
		}
		cursor = page.NextCursor
	}
	return report
}

// Sweep deactivates postings not seen for the configured retention window.
func (c *Coordinator) Sweep(ctx context.Context) (int64, error) {
	n, err := c.db.DeactivateStalePostings(ctx, c.cfg.DeactivateAfterDays)
	if err != nil {
		return 0, fmt.Errorf("failed to deactivate stale postings: %w", err)
	}
	if n > 0 {
		log.Printf("[ingest] deactivated %d stale postings", n)
	}
	return n, nil
}
