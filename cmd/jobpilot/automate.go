package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/jobpilot/internal/automation"
	"github.com/jonathan/jobpilot/internal/executor"
	"github.com/jonathan/jobpilot/internal/observability"
)

var automateUserID int64

var automateCmd = &cobra.Command{
	Use:   "automate",
	Short: "Run one automation pass",
	Long:  "Refresh scores, build application packets and submit them for every automation-enabled user, honoring daily quotas and cooldowns.",
	RunE:  runAutomate,
}

func init() {
	automateCmd.Flags().Int64Var(&automateUserID, "user-id", 0, "Run for a single user instead of all enabled users")
	rootCmd.AddCommand(automateCmd)
}

func runAutomate(_ *cobra.Command, _ []string) error {
	ctx := context.Background()

	d, err := openDeps(ctx)
	if err != nil {
		return err
	}
	defer d.Close()

	exec := executor.New(d.db, d.bus, d.cfg)
	pool := executor.NewPool(ctx, exec, d.cfg.ExecutorWorkers)
	defer pool.Close()

	orch := automation.New(d.db, d.newMatching(), d.newPackets(), pool, d.cfg, d.redis)

	var reports []automation.RunReport
	if automateUserID != 0 {
		report, err := orch.RunForUser(ctx, automateUserID)
		if err != nil {
			return err
		}
		reports = append(reports, *report)
	} else {
		reports, err = orch.RunAll(ctx)
		if err != nil {
			return err
		}
	}

	printer := observability.NewPrinter(os.Stdout)
	printer.PrintRunReports(reports)
	return nil
}
