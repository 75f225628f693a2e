// Package main provides the entry point for the jobpilot pipeline CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "jobpilot",
	Short: "Job aggregation and application automation pipeline",
	Long:  "jobpilot ingests postings from job boards and ATS feeds, scores them against user profiles, prepares application packets and submits them through API, browser or redirect channels, then tracks status until a terminal outcome.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
