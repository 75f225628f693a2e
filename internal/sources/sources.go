// Package sources implements the per-source fetch adapters that produce raw
// job records. Adapters never normalize; that happens in the parser.
package sources

import (
	"context"
	"strings"

	"github.com/jonathan/jobpilot/internal/fetch"
	"github.com/jonathan/jobpilot/internal/types"
)

// Page is one fetched batch of raw jobs plus the cursor for the next call.
// An empty NextCursor means the source is exhausted.
type Page struct {
	Jobs       []types.RawJob
	NextCursor string
}

// Source is the adapter capability set. Implementations must fail soft per
// item: one bad posting never aborts a page.
type Source interface {
	// Name returns the source tag, e.g. "greenhouse".
	Name() string
	// Fetch retrieves up to limit raw jobs starting at cursor.
	Fetch(ctx context.Context, limit int, cursor string) (*Page, error)
}

// maxPagesPerRun is the hard upper bound on pages fetched per source per run.
const maxPagesPerRun = 10

// Registry maps source tags to adapters.
type Registry struct {
	sources map[string]Source
	order   []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{sources: make(map[string]Source)}
}

// Register adds an adapter, keyed by its name. Registration order is
// preserved for All.
func (r *Registry) Register(s Source) {
	if _, ok := r.sources[s.Name()]; !ok {
		r.order = append(r.order, s.Name())
	}
	r.sources[s.Name()] = s
}

// Get returns the adapter for a source tag, or nil.
func (r *Registry) Get(name string) Source {
	return r.sources[name]
}

// All returns every registered adapter in registration order.
func (r *Registry) All() []Source {
	out := make([]Source, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.sources[name])
	}
	return out
}

// Names returns the registered source tags in registration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// DefaultRegistry wires up every built-in adapter with a shared limiter.
func DefaultRegistry(limiter *fetch.HostLimiter) *Registry {
	r := NewRegistry()
	r.Register(NewGreenhouse(limiter))
	r.Register(NewLever(limiter))
	r.Register(NewWorkday(limiter))
	r.Register(NewIndeed(limiter))
	r.Register(NewLinkedIn(limiter))
	r.Register(NewTimesJobs(limiter))
	r.Register(NewInstahyre(limiter))
	r.Register(NewRemotive(limiter))
	r.Register(NewWeWorkRemotely(limiter))
	return r
}

// matchesGeoFilter applies the client-side geographic filter used by the ATS
// adapters: a case-insensitive "india" substring match on location, because
// server-side filters are inconsistent across tenants. Remote roles pass.
func matchesGeoFilter(location string) bool {
	lower := strings.ToLower(location)
	return strings.Contains(lower, "india") || strings.Contains(lower, "remote")
}
