package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonathan/jobpilot/internal/config"
	"github.com/jonathan/jobpilot/internal/db"
	"github.com/jonathan/jobpilot/internal/events"
	"github.com/jonathan/jobpilot/internal/executor"
	"github.com/jonathan/jobpilot/internal/matching"
	"github.com/jonathan/jobpilot/internal/packets"
	"github.com/jonathan/jobpilot/internal/tracking"
)

// Options holds the server wiring.
type Options struct {
	Port     int
	Config   *config.Config
	DB       *db.DB
	Bus      *events.Bus
	Matching *matching.Service
	Packets  *packets.Builder
	Executor *executor.Executor
	Tracking *tracking.Service
}

// Server is the HTTP REST API plus the realtime stream.
type Server struct {
	httpServer  *http.Server
	db          *db.DB
	cfg         *config.Config
	bus         *events.Bus
	matching    *matching.Service
	packets     *packets.Builder
	executor    *executor.Executor
	tracking    *tracking.Service
	passwords   *config.PasswordConfig
	jwt         *JWTService
	rateLimiter *RateLimiter
}

// New creates a server instance.
func New(opts Options) (*Server, error) {
	passwords, err := config.NewPasswordConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to create password config: %w", err)
	}
	jwtConfig, err := config.NewJWTConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to create JWT config: %w", err)
	}

	s := &Server{
		db:          opts.DB,
		cfg:         opts.Config,
		bus:         opts.Bus,
		matching:    opts.Matching,
		packets:     opts.Packets,
		executor:    opts.Executor,
		tracking:    opts.Tracking,
		passwords:   passwords,
		jwt:         NewJWTService(jwtConfig),
		rateLimiter: NewRateLimiter(30, 10),
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)

	// Auth
	mux.HandleFunc("POST /auth/register", s.handleRegister)
	mux.HandleFunc("POST /auth/login", s.handleLogin)

	// Jobs (read-only search surface)
	mux.HandleFunc("GET /jobs", s.handleListJobs)
	mux.HandleFunc("GET /jobs/{id}", s.handleGetJob)
	mux.HandleFunc("GET /matches", s.withAuth(s.handleMatches))

	// Applications
	mux.HandleFunc("POST /applications/apply", s.withAuth(s.handleApply))
	mux.HandleFunc("POST /applications/bulk-apply", s.withAuth(s.handleBulkApply))
	mux.HandleFunc("POST /applications/quick-apply-matching", s.withAuth(s.handleQuickApplyMatching))
	mux.HandleFunc("GET /applications", s.withAuth(s.handleListApplications))
	mux.HandleFunc("GET /applications/{id}/events", s.withAuth(s.handleApplicationEvents))
	mux.HandleFunc("POST /applications/{id}/status", s.withAuth(s.handleUpdateStatus))

	// Profile
	mux.HandleFunc("GET /profile", s.withAuth(s.handleGetProfile))
	mux.HandleFunc("PUT /profile", s.withAuth(s.handleUpdateProfile))
	mux.HandleFunc("POST /profile/resume", s.withAuth(s.handleParseResume))

	// Realtime stream; token auth happens in the handler because
	// EventSource cannot set headers.
	mux.HandleFunc("GET /events/stream", s.handleRealtime)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", opts.Port),
		Handler:      s.withRateLimit(s.withLogging(s.withCORS(mux))),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 300 * time.Second, // realtime streams stay open
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

// Start begins listening and blocks until an interrupt, then shuts down
// gracefully.
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-stop
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.rateLimiter.Stop()
	log.Println("Server stopped")
	return nil
}

// handleHealth reports liveness and a database ping.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{"status": "ok", "time": time.Now().UTC()}
	if err := s.db.Ping(r.Context()); err != nil {
		status["status"] = "degraded"
		status["database"] = err.Error()
		writeJSON(w, http.StatusServiceUnavailable, status)
		return
	}
	writeJSON(w, http.StatusOK, status)
}
