package main

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/jonathan/jobpilot/internal/automation"
	"github.com/jonathan/jobpilot/internal/executor"
	"github.com/jonathan/jobpilot/internal/server"
	"github.com/jonathan/jobpilot/internal/tracking"
)

var (
	servePort       int
	serveAutomation bool
	serveCronSpec   string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  "Start the HTTP server exposing auth, job search, matching, application and realtime endpoints, plus the background tracking monitors.",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "Port to listen on")
	serveCmd.Flags().BoolVar(&serveAutomation, "automation", false, "Run the scheduled automation orchestrator alongside the server")
	serveCmd.Flags().StringVar(&serveCronSpec, "cron", automation.DefaultCronSpec, "Cron spec for scheduled automation runs")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	d, err := openDeps(ctx)
	if err != nil {
		return err
	}
	defer d.Close()

	matchSvc := d.newMatching()
	builder := d.newPackets()
	exec := executor.New(d.db, d.bus, d.cfg)
	trackSvc := tracking.NewService(d.db, d.bus, d.cfg, nil)

	// Background monitors cover every automation-enabled user.
	users, err := d.db.ListAutomationUsers(ctx)
	if err != nil {
		log.Printf("[serve] failed to list automation users: %v", err)
	}
	if len(users) > 0 {
		go trackSvc.Run(ctx, users)
		defer trackSvc.Stop()
	}

	if serveAutomation {
		pool := executor.NewPool(ctx, exec, d.cfg.ExecutorWorkers)
		defer pool.Close()
		orch := automation.New(d.db, matchSvc, builder, pool, d.cfg, d.redis)
		if err := orch.Start(ctx, serveCronSpec); err != nil {
			return fmt.Errorf("failed to start automation schedule: %w", err)
		}
		defer orch.Stop()
	}

	srv, err := server.New(server.Options{
		Port:     servePort,
		Config:   d.cfg,
		DB:       d.db,
		Bus:      d.bus,
		Matching: matchSvc,
		Packets:  builder,
		Executor: exec,
		Tracking: trackSvc,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start()
}
