package ingestion

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/jobpilot/internal/config"
	"github.com/jonathan/jobpilot/internal/db"
	"github.com/jonathan/jobpilot/internal/events"
	"github.com/jonathan/jobpilot/internal/parser"
	"github.com/jonathan/jobpilot/internal/sources"
	"github.com/jonathan/jobpilot/internal/types"
)

// memStore mirrors the upsert dedup rules in memory: (source, external_id)
// first, then the case-insensitive fallback key.
type memStore struct {
	mu     sync.Mutex
	byKey  map[string]uuid.UUID
	byFall map[string]uuid.UUID
}

func newMemStore() *memStore {
	return &memStore{byKey: make(map[string]uuid.UUID), byFall: make(map[string]uuid.UUID)}
}

func (m *memStore) UpsertJobPosting(_ context.Context, p *types.JobPosting) (*db.UpsertResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := p.Source + "|" + p.ExternalID
	fall := strings.ToLower(p.Title + "|" + p.Company + "|" + p.Location)
	if p.HasExternalIdentity() {
		if id, ok := m.byKey[key]; ok {
			return &db.UpsertResult{ID: id}, nil
		}
	}
	if id, ok := m.byFall[fall]; ok {
		return &db.UpsertResult{ID: id}, nil
	}

	id := uuid.New()
	m.byKey[key] = id
	m.byFall[fall] = id
	return &db.UpsertResult{ID: id, Created: true}, nil
}

func (m *memStore) DeactivateStalePostings(context.Context, int) (int64, error) { return 0, nil }

// stubSource serves a fixed page sequence.
type stubSource struct {
	name  string
	pages []sources.Page
	calls int
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Fetch(_ context.Context, _ int, _ string) (*sources.Page, error) {
	if s.calls >= len(s.pages) {
		return &sources.Page{}, nil
	}
	page := s.pages[s.calls]
	s.calls++
	return &page, nil
}

func rawJob(source, externalID, title string) types.RawJob {
	return types.RawJob{
		Source:     source,
		ExternalID: externalID,
		Title:      title,
		Company:    "Acme",
		Location:   "Remote",
	}
}

func newTestCoordinator(st store, srcs ...sources.Source) *Coordinator {
	reg := sources.NewRegistry()
	for _, src := range srcs {
		reg.Register(src)
	}
	return &Coordinator{
		db:       st,
		registry: reg,
		parser:   parser.New(),
		bus:      events.NewBus(nil, ""),
		cfg:      &config.Config{SourceConcurrency: 1, DeactivateAfterDays: 30},
	}
}

func TestRun_RerunDoesNotDuplicate(t *testing.T) {
	st := newMemStore()
	page := sources.Page{Jobs: []types.RawJob{
		rawJob("alpha", "a1", "Backend Engineer"),
		rawJob("alpha", "a2", "Data Engineer"),
	}}
	c := newTestCoordinator(st, &stubSource{name: "alpha", pages: []sources.Page{page}})

	first, err := c.Run(context.Background(), Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, first.Created)
	assert.Equal(t, 0, first.Updated)

	c.registry = sources.NewRegistry()
	c.registry.Register(&stubSource{name: "alpha", pages: []sources.Page{page}})
	second, err := c.Run(context.Background(), Options{})
	require.NoError(t, err)
	assert.Equal(t, 0, second.Created)
	assert.Equal(t, 2, second.Updated)
}

func TestRun_CrossSourceDedup(t *testing.T) {
	st := newMemStore()
	c := newTestCoordinator(st,
		&stubSource{name: "alpha", pages: []sources.Page{
			{Jobs: []types.RawJob{rawJob("alpha", "a1", "Backend Engineer")}},
		}},
		&stubSource{name: "beta", pages: []sources.Page{
			{Jobs: []types.RawJob{rawJob("beta", "b1", "Backend Engineer")}},
		}},
	)

	report, err := c.Run(context.Background(), Options{})
	require.NoError(t, err)

	// Same title, company and location: one row, the second copy refreshes it.
	assert.Equal(t, 1, report.Created)
	assert.Equal(t, 1, report.Updated)
}

func TestRun_PublishesCreatedAndUpdatedOnce(t *testing.T) {
	st := newMemStore()
	page := sources.Page{Jobs: []types.RawJob{rawJob("alpha", "a1", "Backend Engineer")}}
	c := newTestCoordinator(st, &stubSource{name: "alpha", pages: []sources.Page{page}})

	sub := c.bus.SubscribeAll()
	defer sub.Unsubscribe()

	_, err := c.Run(context.Background(), Options{})
	require.NoError(t, err)
	assert.Equal(t, types.BusJobCreated, (<-sub.C).Type)

	c.registry = sources.NewRegistry()
	c.registry.Register(&stubSource{name: "alpha", pages: []sources.Page{page}})
	_, err = c.Run(context.Background(), Options{})
	require.NoError(t, err)
	assert.Equal(t, types.BusJobUpdated, (<-sub.C).Type)
	assert.Empty(t, sub.C)
}

func TestRun_StopsAfterStalePages(t *testing.T) {
	st := newMemStore()
	pages := make([]sources.Page, 5)
	for i := range pages {
		title := "Engineer " + string(rune('A'+i))
		pages[i] = sources.Page{
			Jobs:       []types.RawJob{rawJob("gamma", "g"+title, title)},
			NextCursor: "next",
		}
	}
	c := newTestCoordinator(st, &stubSource{name: "gamma", pages: pages})

	// Everything is already known, so every page creates nothing new.
	for i := range pages {
		_, err := st.UpsertJobPosting(context.Background(), c.parser.Parse(&pages[i].Jobs[0]))
		require.NoError(t, err)
	}

	report, err := c.Run(context.Background(), Options{})
	require.NoError(t, err)
	require.Len(t, report.Sources, 1)
	assert.Equal(t, 3, report.Sources[0].Pages)
	assert.Equal(t, 0, report.Created)
}

func TestRun_CursorLoopGuard(t *testing.T) {
	st := newMemStore()
	page := sources.Page{
		Jobs:       []types.RawJob{rawJob("delta", "d1", "Backend Engineer")},
		NextCursor: "next",
	}
	c := newTestCoordinator(st, &stubSource{name: "delta", pages: []sources.Page{page, page, page}})

	report, err := c.Run(context.Background(), Options{})
	require.NoError(t, err)
	require.Len(t, report.Sources, 1)

	// The second page leads with the same job, so the run stops there.
	assert.Equal(t, 2, report.Sources[0].Pages)
	assert.Equal(t, 1, report.Created)
}

func TestRun_UnknownSource(t *testing.T) {
	c := newTestCoordinator(newMemStore())
	_, err := c.Run(context.Background(), Options{Sources: []string{"nope"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown source")
}
