package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/jobpilot/internal/tracking"
)

var (
	trackUsers         []int64
	trackCheckInterval time.Duration
	trackATSInterval   time.Duration
	trackEmailInterval time.Duration
)

var trackCmd = &cobra.Command{
	Use:   "track",
	Short: "Run the long-lived tracking monitors",
	Long:  "Continuously poll ATS systems and scan email for the given users, reconciling application status until interrupted.",
	RunE:  runTrack,
}

func init() {
	trackCmd.Flags().Int64SliceVar(&trackUsers, "users", nil, "User ids to monitor (default: all automation-enabled users)")
	trackCmd.Flags().DurationVar(&trackCheckInterval, "check-interval", 0, "Override the status check interval (alias for --ats-interval)")
	trackCmd.Flags().DurationVar(&trackATSInterval, "ats-interval", 0, "Override the ATS poll interval")
	trackCmd.Flags().DurationVar(&trackEmailInterval, "email-interval", 0, "Override the email scan interval")
	rootCmd.AddCommand(trackCmd)
}

func runTrack(_ *cobra.Command, _ []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	d, err := openDeps(ctx)
	if err != nil {
		return err
	}
	defer d.Close()

	if trackCheckInterval > 0 {
		d.cfg.ATSCheckInterval = trackCheckInterval
	}
	if trackATSInterval > 0 {
		d.cfg.ATSCheckInterval = trackATSInterval
	}
	if trackEmailInterval > 0 {
		d.cfg.EmailCheckInterval = trackEmailInterval
	}

	users := trackUsers
	if len(users) == 0 {
		users, err = d.db.ListAutomationUsers(ctx)
		if err != nil {
			return err
		}
	}
	if len(users) == 0 {
		return fmt.Errorf("no users to monitor")
	}

	svc := tracking.NewService(d.db, d.bus, d.cfg, nil)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-stop
		svc.Stop()
		cancel()
	}()

	svc.Run(ctx, users)
	return nil
}
