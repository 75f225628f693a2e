// Package observability provides formatted output utilities for CLI commands.
package observability

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jonathan/jobpilot/internal/automation"
	"github.com/jonathan/jobpilot/internal/ingestion"
	"github.com/jonathan/jobpilot/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for CLI commands
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintIngestionReport outputs a per-source summary of an ingestion run.
func (p *Printer) PrintIngestionReport(report *ingestion.Report) {
	if report == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Duration: %s\n", report.Duration.Round(10*time.Millisecond)))
	sb.WriteString(fmt.Sprintf("Created:  %d\n", report.Created))
	sb.WriteString(fmt.Sprintf("Updated:  %d\n", report.Updated))
	sb.WriteString("\n")

	for _, src := range report.Sources {
		sb.WriteString(fmt.Sprintf("%-14s %3d pages  %4d fetched  %4d new", src.Source, src.Pages, src.Fetched, src.Created))
		if src.ParseFailures > 0 {
			sb.WriteString(fmt.Sprintf("  %d parse failures", src.ParseFailures))
		}
		sb.WriteString("\n")
		if src.Error != "" {
			sb.WriteString(fmt.Sprintf("  error: %s\n", src.Error))
		}
	}

	p.printBox("INGESTION RUN", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintScores outputs the top N match scores with component breakdowns.
func (p *Printer) PrintScores(scores []types.JobScore) {
	if len(scores) == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Total jobs scored: %d\n\n", len(scores)))

	count := min(len(scores), maxItemsToShow)
	for i := 0; i < count; i++ {
		score := scores[i]
		sb.WriteString(fmt.Sprintf("#%d  %s\n", i+1, score.JobID))
		sb.WriteString(fmt.Sprintf("    Score: %.1f", score.Score))
		if c, ok := score.ComponentScores["skills"]; ok {
			sb.WriteString(fmt.Sprintf(" (skills: %.0f)", c))
		}
		sb.WriteString("\n")
		if score.Reasoning != "" {
			reasoning := score.Reasoning
			if len(reasoning) > 40 {
				reasoning = reasoning[:37] + "..."
			}
			sb.WriteString(fmt.Sprintf("    %s\n", reasoning))
		}
		if i < count-1 {
			sb.WriteString("\n")
		}
	}
	if len(scores) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more\n", len(scores)-maxItemsToShow))
	}

	p.printBox("TOP MATCHES", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintRunReports outputs per-user automation run summaries.
func (p *Printer) PrintRunReports(reports []automation.RunReport) {
	if len(reports) == 0 {
		return
	}

	var sb strings.Builder
	for i, report := range reports {
		sb.WriteString(fmt.Sprintf("User %d", report.UserID))
		if report.Skipped != "" {
			sb.WriteString(fmt.Sprintf("  skipped (%s)\n", report.Skipped))
			continue
		}
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("  Scores refreshed: %d\n", report.ScoresRefreshed))
		sb.WriteString(fmt.Sprintf("  Packets built:    %d\n", report.PacketsBuilt))
		sb.WriteString(fmt.Sprintf("  Applied:          %d", report.Applied))
		if report.AlreadyApplied > 0 {
			sb.WriteString(fmt.Sprintf(" (+%d already applied)", report.AlreadyApplied))
		}
		sb.WriteString("\n")
		if report.Failed > 0 {
			sb.WriteString(fmt.Sprintf("  Failed:           %d\n", report.Failed))
		}
		if report.CooledDown {
			sb.WriteString("  Cooled down after rate limit\n")
		}
		if i < len(reports)-1 {
			sb.WriteString("\n")
		}
	}

	p.printBox("AUTOMATION RUN", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintApplications outputs a status summary of the given applications.
func (p *Printer) PrintApplications(apps []types.Application) {
	if len(apps) == 0 {
		return
	}

	counts := map[types.ApplicationStatus]int{}
	for _, app := range apps {
		counts[app.Status]++
	}

	order := []types.ApplicationStatus{
		types.StatusPending, types.StatusApplied, types.StatusInReview,
		types.StatusInterview, types.StatusOffer, types.StatusAccepted,
		types.StatusDeclined, types.StatusRejected, types.StatusWithdrawn,
		types.StatusFailed,
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Total applications: %d\n\n", len(apps)))
	for _, status := range order {
		if n := counts[status]; n > 0 {
			sb.WriteString(fmt.Sprintf("  %-12s %d\n", status, n))
		}
	}

	p.printBox("APPLICATIONS", strings.TrimSuffix(sb.String(), "\n"))
}
