package sources

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/jobpilot/internal/fetch"
	"github.com/jonathan/jobpilot/internal/types"
)

// selectorTable drives extraction from one job board. Every selector list is
// ordered and evaluated with first-hit semantics.
type selectorTable struct {
	Item        []string
	Title       []string
	Company     []string
	Location    []string
	Link        []string
	Description []string
}

// searchTuple is one (location, category) search query. HTML boards perform
// a single search per tuple per run.
type searchTuple struct {
	Location string
	Category string
}

// htmlBoard is the shared implementation behind the HTML job board adapters.
type htmlBoard struct {
	name      string
	limiter   *fetch.HostLimiter
	selectors selectorTable
	tuples    []searchTuple
	searchURL func(t searchTuple) string
}

// Name implements Source.
func (b *htmlBoard) Name() string { return b.name }

// Fetch runs the search for the tuple selected by the cursor and parses the
// result page through the selector table. The cursor is the tuple index.
func (b *htmlBoard) Fetch(ctx context.Context, limit int, cursor string) (*Page, error) {
	idx, _ := decodeCursor(cursor)
	if idx >= len(b.tuples) {
		return &Page{}, nil
	}
	tuple := b.tuples[idx]

	result, err := fetch.URL(ctx, b.searchURL(tuple), &fetch.Options{
		Timeout: fetch.DefaultHTMLTimeout,
		Limiter: b.limiter,
	})
	if err != nil {
		return nil, fmt.Errorf("%s search (%s, %s): %w", b.name, tuple.Location, tuple.Category, err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(result.Body))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse search results: %w", b.name, err)
	}

	items := firstHitSelection(doc, b.selectors.Item)
	var jobs []types.RawJob
	items.EachWithBreak(func(_ int, item *goquery.Selection) bool {
		job, ok := b.parseItem(item, tuple)
		if !ok {
			log.Printf("[%s] skipping item with missing title or link", b.name)
			return true
		}
		jobs = append(jobs, job)
		return limit <= 0 || len(jobs) < limit
	})

	next := ""
	if idx+1 < len(b.tuples) {
		next = encodeCursor(idx+1, 0)
	}
	return &Page{Jobs: jobs, NextCursor: next}, nil
}

func (b *htmlBoard) parseItem(item *goquery.Selection, tuple searchTuple) (types.RawJob, bool) {
	title := firstHitText(item, b.selectors.Title)
	link := firstHitAttr(item, b.selectors.Link, "href")
	if title == "" || link == "" {
		return types.RawJob{}, false
	}

	location := firstHitText(item, b.selectors.Location)
	if location == "" {
		location = tuple.Location
	}

	html, _ := goquery.OuterHtml(item)
	return types.RawJob{
		Title:       title,
		Company:     firstHitText(item, b.selectors.Company),
		Location:    location,
		URL:         link,
		Description: firstHitText(item, b.selectors.Description),
		HTML:        html,
		Source:      b.name,
		RawPayload:  []byte(html),
	}, true
}

// firstHitSelection returns the matches of the first selector that hits.
func firstHitSelection(doc *goquery.Document, selectors []string) *goquery.Selection {
	for _, sel := range selectors {
		if s := doc.Find(sel); s.Length() > 0 {
			return s
		}
	}
	return doc.Find(selectors[len(selectors)-1])
}

func firstHitText(item *goquery.Selection, selectors []string) string {
	for _, sel := range selectors {
		if s := item.Find(sel); s.Length() > 0 {
			return strings.TrimSpace(s.First().Text())
		}
	}
	return ""
}

func firstHitAttr(item *goquery.Selection, selectors []string, attr string) string {
	for _, sel := range selectors {
		if s := item.Find(sel); s.Length() > 0 {
			if v, ok := s.First().Attr(attr); ok {
				return strings.TrimSpace(v)
			}
		}
	}
	return ""
}

var defaultTuples = []searchTuple{
	{"Bangalore", "software engineer"},
	{"Mumbai", "software engineer"},
	{"Delhi", "software engineer"},
	{"Remote", "software engineer"},
	{"Bangalore", "data engineer"},
	{"Hyderabad", "backend developer"},
}

// NewIndeed constructs the Indeed-India board adapter.
func NewIndeed(limiter *fetch.HostLimiter) Source {
	return &htmlBoard{
		name:    "indeed",
		limiter: limiter,
		tuples:  defaultTuples,
		selectors: selectorTable{
			Item:        []string{"div.job_seen_beacon", "div.jobsearch-SerpJobCard", "td.resultContent"},
			Title:       []string{"h2.jobTitle span[title]", "h2.jobTitle a", "a.jobtitle"},
			Company:     []string{"span[data-testid='company-name']", "span.companyName", "span.company"},
			Location:    []string{"div[data-testid='text-location']", "div.companyLocation", "span.location"},
			Link:        []string{"h2.jobTitle a", "a.jcs-JobTitle", "a.jobtitle"},
			Description: []string{"div.job-snippet", "div[class*='snippet']"},
		},
		searchURL: func(t searchTuple) string {
			return fmt.Sprintf("https://in.indeed.com/jobs?q=%s&l=%s",
				url.QueryEscape(t.Category), url.QueryEscape(t.Location))
		},
	}
}

// NewLinkedIn constructs the LinkedIn public search adapter.
func NewLinkedIn(limiter *fetch.HostLimiter) Source {
	return &htmlBoard{
		name:    "linkedin",
		limiter: limiter,
		tuples:  defaultTuples,
		selectors: selectorTable{
			Item:        []string{"div.base-card", "li.jobs-search-results__list-item"},
			Title:       []string{"h3.base-search-card__title", "span.sr-only"},
			Company:     []string{"h4.base-search-card__subtitle", "a.hidden-nested-link"},
			Location:    []string{"span.job-search-card__location"},
			Link:        []string{"a.base-card__full-link", "a.base-search-card--link"},
			Description: []string{"p.job-search-card__snippet"},
		},
		searchURL: func(t searchTuple) string {
			return fmt.Sprintf("https://www.linkedin.com/jobs/search?keywords=%s&location=%s",
				url.QueryEscape(t.Category), url.QueryEscape(t.Location+", India"))
		},
	}
}

// NewTimesJobs constructs the TimesJobs board adapter.
func NewTimesJobs(limiter *fetch.HostLimiter) Source {
	return &htmlBoard{
		name:    "timesjobs",
		limiter: limiter,
		tuples:  defaultTuples,
		selectors: selectorTable{
			Item:        []string{"li.clearfix.job-bx", "li.job-bx"},
			Title:       []string{"h2 a", "h3 a"},
			Company:     []string{"h3.joblist-comp-name", "span.comp-name"},
			Location:    []string{"ul.top-jd-dtl li span", "span.loc"},
			Link:        []string{"h2 a", "h3 a"},
			Description: []string{"ul.list-job-dtl li", "span.jd-desc"},
		},
		searchURL: func(t searchTuple) string {
			return fmt.Sprintf("https://www.timesjobs.com/candidate/job-search.html?searchType=personalizedSearch&txtKeywords=%s&txtLocation=%s",
				url.QueryEscape(t.Category), url.QueryEscape(t.Location))
		},
	}
}

// NewInstahyre constructs the Instahyre board adapter.
func NewInstahyre(limiter *fetch.HostLimiter) Source {
	return &htmlBoard{
		name:    "instahyre",
		limiter: limiter,
		tuples:  defaultTuples,
		selectors: selectorTable{
			Item:        []string{"div.opportunity-card", "div.job-container"},
			Title:       []string{"h4.designation", "a.job-title"},
			Company:     []string{"h5.company-name", "div.company-details a"},
			Location:    []string{"span.locations", "div.job-locations"},
			Link:        []string{"a.opportunity-link", "a.job-title"},
			Description: []string{"div.job-description", "p.description"},
		},
		searchURL: func(t searchTuple) string {
			return fmt.Sprintf("https://www.instahyre.com/search-jobs/?q=%s&location=%s",
				url.QueryEscape(t.Category), url.QueryEscape(t.Location))
		},
	}
}
