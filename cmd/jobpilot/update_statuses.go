package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/jobpilot/internal/tracking"
)

var (
	statusSource   string
	statusUserID   int64
	statusDaysBack int
	statusDryRun   bool
)

var updateStatusesCmd = &cobra.Command{
	Use:   "update-statuses",
	Short: "Run one status reconciliation pass",
	Long:  "Poll ATS systems and scan confirmation email for tracked applications, applying any resulting status changes through the arbitration rules.",
	RunE:  runUpdateStatuses,
}

func init() {
	updateStatusesCmd.Flags().StringVar(&statusSource, "source", "all", "Which monitors to run: email, ats or all")
	updateStatusesCmd.Flags().Int64Var(&statusUserID, "user-id", 0, "Reconcile a single user instead of all enabled users")
	updateStatusesCmd.Flags().IntVar(&statusDaysBack, "days-back", 0, "Email lookback window in days (0 uses the default)")
	updateStatusesCmd.Flags().BoolVar(&statusDryRun, "dry-run", false, "Log would-be changes without writing them")
	rootCmd.AddCommand(updateStatusesCmd)
}

func runUpdateStatuses(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	d, err := openDeps(ctx)
	if err != nil {
		return err
	}
	defer d.Close()

	users, err := resolveUsers(ctx, d, statusUserID)
	if err != nil {
		return err
	}
	if len(users) == 0 {
		cmd.Println("No users to reconcile")
		return nil
	}

	svc := tracking.NewService(d.db, d.bus, d.cfg, nil)
	svc.SetDryRun(statusDryRun)

	lookback := time.Duration(statusDaysBack) * 24 * time.Hour
	if err := svc.ReconcileOnce(ctx, users, statusSource, lookback); err != nil {
		return err
	}
	cmd.Printf("Reconciled %d users\n", len(users))
	return nil
}

// resolveUsers returns the single requested user, or every
// automation-enabled user when none was given.
func resolveUsers(ctx context.Context, d *deps, userID int64) ([]int64, error) {
	if userID != 0 {
		return []int64{userID}, nil
	}
	return d.db.ListAutomationUsers(ctx)
}
