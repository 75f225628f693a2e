package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/jobpilot/internal/observability"
)

var (
	matchUserID int64
	matchLimit  int
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Score unscored jobs for a user",
	Long:  "Run the matching engine over the user's unscored active postings and print the top matches.",
	RunE:  runMatch,
}

func init() {
	matchCmd.Flags().Int64Var(&matchUserID, "user-id", 0, "User to score jobs for (required)")
	matchCmd.Flags().IntVar(&matchLimit, "limit", 200, "Maximum jobs to score in one pass")
	matchCmd.MarkFlagRequired("user-id")
	rootCmd.AddCommand(matchCmd)
}

func runMatch(_ *cobra.Command, _ []string) error {
	ctx := context.Background()

	d, err := openDeps(ctx)
	if err != nil {
		return err
	}
	defer d.Close()

	user, err := d.db.GetUserProfile(ctx, matchUserID)
	if err != nil {
		return fmt.Errorf("failed to load profile for user %d: %w", matchUserID, err)
	}

	scores, err := d.newMatching().RefreshUserScores(ctx, user, matchLimit)
	if err != nil {
		return err
	}

	printer := observability.NewPrinter(os.Stdout)
	printer.PrintScores(scores)
	return nil
}
