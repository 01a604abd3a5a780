package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/urjalabs/solatlas/internal/adapter/file"
	"github.com/urjalabs/solatlas/internal/service/ingest"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Load and clean per-location daily climate files",
	Long: `Reads every climate/<location_id>.csv file, validates ordering, clips
implausible values, forward-fills short gaps and loads the cleaned series
into the local pipeline store.`,
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	store, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	source := file.NewClimateCSV(cfg.Paths.ClimateDir, logger)
	svc := ingest.NewService(source, store, ingestOptions(cfg), logger)

	summary, err := svc.Run(cmd.Context())
	if err != nil {
		return fmt.Errorf("ingesting climate data: %w", err)
	}

	fmt.Printf("Ingested %d records across %d locations\n", summary.Records, summary.Locations)
	fmt.Printf("Cleaned: %d values clipped, %d gap days filled\n", summary.ClippedVals, summary.FilledDays)
	return nil
}
