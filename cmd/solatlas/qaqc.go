package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/urjalabs/solatlas/internal/adapter/file"
	"github.com/urjalabs/solatlas/internal/domain"
	"github.com/urjalabs/solatlas/internal/service/qaqc"
)

var qaqcCmd = &cobra.Command{
	Use:   "qaqc",
	Short: "Screen per-location data quality",
	Long: `Computes per-location yearly statistics over the simulated energy labels,
applies the configured screening thresholds and writes the QA report that
gates training and aggregation.`,
	RunE: runQAQC,
}

func init() {
	rootCmd.AddCommand(qaqcCmd)
}

func runQAQC(cmd *cobra.Command, args []string) error {
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

	locations, err := store.Locations(cmd.Context())
	if err != nil {
		return fmt.Errorf("listing locations: %w", err)
	}
	if len(locations) == 0 {
		return fmt.Errorf("the pipeline store holds no locations, run ingest and pvsim first")
	}

	labels := make(map[string][]domain.EnergyDay, len(locations))
	for _, locationID := range locations {
		days, err := store.DaysByLocation(cmd.Context(), locationID)
		if err != nil {
			return fmt.Errorf("loading energy days for %s: %w", locationID, err)
		}
		labels[locationID] = days
	}

	svc := qaqc.NewService(qaThresholds(cfg), logger)
	report, err := svc.Screen(cmd.Context(), labels)
	if err != nil {
		return fmt.Errorf("screening locations: %w", err)
	}

	reports := file.NewReportStore(cfg.Paths.ReportsDir, logger)
	if err := reports.SaveQA(cmd.Context(), report); err != nil {
		return fmt.Errorf("saving QA report: %w", err)
	}

	passed := 0
	fmt.Printf("%-20s %-6s %s\n", "Location", "Years", "Result")
	fmt.Println("---------------------------------------------")
	for _, loc := range report.Locations {
		result := "FAIL"
		if loc.Passed {
			result = "PASS"
			passed++
		}
		fmt.Printf("%-20s %-6d %s\n", loc.LocationID, len(loc.Years), result)
	}
	fmt.Printf("\n%d of %d locations passed screening\n", passed, len(report.Locations))
	return nil
}
