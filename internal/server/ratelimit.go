package server

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// tokenBucket is a per-client token bucket. Tokens refill at a steady rate
// up to the burst capacity.
type tokenBucket struct {
	capacity   int
	refillRate float64 // tokens per second
	tokens     float64
	lastRefill time.Time
	mu         sync.Mutex
}

func newTokenBucket(capacity int, refillRate float64) *tokenBucket {
	return &tokenBucket{
		capacity:   capacity,
		refillRate: refillRate,
		tokens:     float64(capacity),
		lastRefill: time.Now(),
	}
}

func (tb *tokenBucket) allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := time.Now()
	tb.tokens = min(float64(tb.capacity), tb.tokens+now.Sub(tb.lastRefill).Seconds()*tb.refillRate)
	tb.lastRefill = now

	if tb.tokens >= 1.0 {
		tb.tokens -= 1.0
		return true
	}
	return false
}

// RateLimiter manages per-client token buckets with periodic cleanup of
// idle clients.
type RateLimiter struct {
	buckets    map[string]*tokenBucket
	lastSeen   map[string]time.Time
	mu         sync.Mutex
	capacity   int
	refillRate float64
	stop       chan struct{}
}

// NewRateLimiter creates a limiter allowing burst requests with the given
// sustained per-second rate, and starts the idle-bucket cleaner.
func NewRateLimiter(burst int, perSecond float64) *RateLimiter {
	rl := &RateLimiter{
		buckets:    make(map[string]*tokenBucket),
		lastSeen:   make(map[string]time.Time),
		capacity:   burst,
		refillRate: perSecond,
		stop:       make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

// Allow reports whether the client may proceed.
func (rl *RateLimiter) Allow(clientID string) bool {
	rl.mu.Lock()
	bucket, ok := rl.buckets[clientID]
	if !ok {
		bucket = newTokenBucket(rl.capacity, rl.refillRate)
		rl.buckets[clientID] = bucket
	}
	rl.lastSeen[clientID] = time.Now()
	rl.mu.Unlock()
	return bucket.allow()
}

// Stop halts the cleanup goroutine.
func (rl *RateLimiter) Stop() {
	close(rl.stop)
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-15 * time.Minute)
			rl.mu.Lock()
			for id, seen := range rl.lastSeen {
				if seen.Before(cutoff) {
					delete(rl.buckets, id)
					delete(rl.lastSeen, id)
				}
			}
			rl.mu.Unlock()
		}
	}
}

// withRateLimit enforces the limiter keyed by client IP.
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientID := clientIP(r)
		if !s.rateLimiter.Allow(clientID) {
			w.Header().Set("Retry-After", strconv.Itoa(1))
			writeError(w, http.StatusTooManyRequests, 0, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
