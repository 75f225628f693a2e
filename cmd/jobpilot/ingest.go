package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/jobpilot/internal/ingestion"
	"github.com/jonathan/jobpilot/internal/observability"
)

var (
	ingestSources []string
	ingestLimit   int
	ingestSweep   bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Run one ingestion pass over the configured job sources",
	Long:  "Fetch postings from the selected sources, normalize and deduplicate them into the job store, and print a per-source report.",
	RunE:  runIngest,
}

func init() {
	ingestCmd.Flags().StringSliceVar(&ingestSources, "sources", nil, "Source tags to ingest (default: all registered)")
	ingestCmd.Flags().IntVar(&ingestLimit, "limit", 0, "Per-source job cap (0 uses the default)")
	ingestCmd.Flags().BoolVar(&ingestSweep, "sweep", false, "Deactivate postings not seen recently after the run")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	d, err := openDeps(ctx)
	if err != nil {
		return err
	}
	defer d.Close()

	coordinator := ingestion.NewCoordinator(d.db, d.newRegistry(), d.bus, d.cfg)
	report, err := coordinator.Run(ctx, ingestion.Options{
		Sources:        ingestSources,
		PerSourceLimit: ingestLimit,
	})
	if err != nil {
		return err
	}

	printer := observability.NewPrinter(os.Stdout)
	printer.PrintIngestionReport(report)

	if ingestSweep {
		deactivated, err := coordinator.Sweep(ctx)
		if err != nil {
			return err
		}
		cmd.Printf("Deactivated %d stale postings\n", deactivated)
	}
	return nil
}
