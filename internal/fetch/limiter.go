package fetch

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// HostLimiter enforces the scraping politeness policy: a concurrency cap per
// host plus a jittered delay between consecutive requests to the same host.
type HostLimiter struct {
	mu       sync.Mutex
	hosts    map[string]*hostState
	maxConc  int64
	delayMin time.Duration
	delayMax time.Duration
}

type hostState struct {
	sem      *semaphore.Weighted
	mu       sync.Mutex
	lastDone time.Time
}

// NewHostLimiter creates a limiter with the given per-host concurrency cap
// and request delay window. The delay applied is uniform in [min, max].
func NewHostLimiter(maxConcurrent int, delayMin, delayMax time.Duration) *HostLimiter {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &HostLimiter{
		hosts:    make(map[string]*hostState),
		maxConc:  int64(maxConcurrent),
		delayMin: delayMin,
		delayMax: delayMax,
	}
}

func (l *HostLimiter) state(host string) *hostState {
	l.mu.Lock()
	defer l.mu.Unlock()
	st, ok := l.hosts[host]
	if !ok {
		st = &hostState{sem: semaphore.NewWeighted(l.maxConc)}
		l.hosts[host] = st
	}
	return st
}

// Acquire blocks until a slot for host is available and the politeness delay
// since the previous request has elapsed. The returned release function must
// be called when the request finishes.
func (l *HostLimiter) Acquire(ctx context.Context, host string) (func(), error) {
	st := l.state(host)
	if err := st.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}

	st.mu.Lock()
	wait := l.jitteredDelay() - time.Since(st.lastDone)
	st.mu.Unlock()

	if wait > 0 {
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			st.sem.Release(1)
			return nil, ctx.Err()
		}
	}

	release := func() {
		st.mu.Lock()
		st.lastDone = time.Now()
		st.mu.Unlock()
		st.sem.Release(1)
	}
	return release, nil
}

func (l *HostLimiter) jitteredDelay() time.Duration {
	if l.delayMax <= l.delayMin {
		return l.delayMin
	}
	return l.delayMin + time.Duration(rand.Int63n(int64(l.delayMax-l.delayMin)))
}
