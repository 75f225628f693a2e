package main

import (
	"context"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"

	"github.com/jonathan/jobpilot/internal/config"
	"github.com/jonathan/jobpilot/internal/db"
	"github.com/jonathan/jobpilot/internal/events"
	"github.com/jonathan/jobpilot/internal/fetch"
	"github.com/jonathan/jobpilot/internal/llm"
	"github.com/jonathan/jobpilot/internal/matching"
	"github.com/jonathan/jobpilot/internal/packets"
	"github.com/jonathan/jobpilot/internal/sources"
)

// busChannel is the redis channel events are mirrored to.
const busChannel = "jobpilot:events"

// deps holds the shared process wiring every command starts from.
type deps struct {
	cfg   *config.Config
	db    *db.DB
	redis *redis.Client
	bus   *events.Bus
	llm   llm.Client
}

// openDeps loads configuration and connects the database, redis and the
// event bus. Redis and Gemini are optional; absence degrades gracefully.
func openDeps(ctx context.Context) (*deps, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	rdb, err := events.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Printf("[cli] redis unavailable, events stay in-process: %v", err)
		rdb = nil
	}

	var llmClient llm.Client
	if cfg.GeminiAPIKey != "" {
		client, err := llm.NewGeminiClient(ctx, cfg.GeminiAPIKey)
		if err != nil {
			database.Close()
			return nil, fmt.Errorf("failed to create LLM client: %w", err)
		}
		llmClient = client
	}

	return &deps{
		cfg:   cfg,
		db:    database,
		redis: rdb,
		bus:   events.NewBus(rdb, busChannel),
		llm:   llmClient,
	}, nil
}

// Close releases every connection opened by openDeps.
func (d *deps) Close() {
	if d.llm != nil {
		_ = d.llm.Close()
	}
	if d.redis != nil {
		_ = d.redis.Close()
	}
	d.db.Close()
}

// newRegistry builds the source registry with the configured host limiter.
func (d *deps) newRegistry() *sources.Registry {
	limiter := fetch.NewHostLimiter(d.cfg.PerHostConcurrency, d.cfg.RequestDelayMin, d.cfg.RequestDelayMax)
	return sources.DefaultRegistry(limiter)
}

// newMatching builds the scoring service.
func (d *deps) newMatching() *matching.Service {
	return matching.NewService(d.db, matching.NewEngine(d.cfg.EngineVersion), d.llm)
}

// newPackets builds the packet builder.
func (d *deps) newPackets() *packets.Builder {
	return packets.NewBuilder(d.db, d.llm)
}
