package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/urjalabs/solatlas/internal/adapter/file"
	"github.com/urjalabs/solatlas/internal/domain"
	"github.com/urjalabs/solatlas/internal/service/aggregate"
	"github.com/urjalabs/solatlas/internal/service/features"
	"github.com/urjalabs/solatlas/internal/service/forecast"
)

var aggregateAllowUnscreened bool

var aggregateCmd = &cobra.Command{
	Use:   "aggregate",
	Short: "Predict annual energy for every zone",
	Long: `Loads the fitted model, builds forward feature rows over the configured
horizon for every eligible location and resolves each zone to its series
via the configured interpolation. Per-zone annual sums and the run report
land in the reports directory for the score stage.`,
	RunE: runAggregate,
}

func init() {
	aggregateCmd.Flags().BoolVar(&aggregateAllowUnscreened, "allow-unscreened", false, "Aggregate over locations that failed or skipped QA screening")
	rootCmd.AddCommand(aggregateCmd)
}

func runAggregate(cmd *cobra.Command, args []string) error {
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

	zones, err := loadZones(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}

	model, err := file.NewModelStore(cfg.Paths.ModelFile, logger).Load(cmd.Context())
	if err != nil {
		return fmt.Errorf("loading fitted model, run train first: %w", err)
	}

	reports := file.NewReportStore(cfg.Paths.ReportsDir, logger)
	eligible, err := eligibleLocations(cmd.Context(), store, reports, aggregateAllowUnscreened)
	if err != nil {
		return err
	}

	builder := features.NewBuilder(featureConfig(cfg), logger)
	horizon := make(map[string][]domain.FeatureRow, len(eligible))
	for _, locationID := range eligible {
		series, err := store.RecordsByLocation(cmd.Context(), locationID)
		if err != nil {
			return fmt.Errorf("loading series for %s: %w", locationID, err)
		}
		rows, err := builder.HorizonRows(cmd.Context(), series, cfg.Aggregate.HorizonDays)
		if err != nil {
			logger.Warn("Dropping location from aggregation",
				zap.String("location_id", locationID),
				zap.Error(err))
			continue
		}
		horizon[locationID] = rows
	}
	if len(horizon) == 0 {
		return fmt.Errorf("no horizon rows from %d eligible locations", len(eligible))
	}

	svc := aggregate.NewService(forecast.NewService(forecastConfig(cfg), logger), zoneResolver(cfg, zones), cfg.Aggregate.Workers, logger)
	annual, report, err := svc.Aggregate(cmd.Context(), zones, model, horizon)
	if err != nil {
		return fmt.Errorf("aggregating zones: %w", err)
	}

	if err := reports.SaveAnnual(cmd.Context(), report.RunID, annual); err != nil {
		return fmt.Errorf("saving annual predictions: %w", err)
	}
	if err := reports.SaveRun(cmd.Context(), report); err != nil {
		return fmt.Errorf("saving run report: %w", err)
	}

	fmt.Printf("Run %s: predicted %d zones with model %s, %d failed\n", report.RunID, len(report.Succeeded), report.ModelID, len(report.Failed))
	for _, failure := range report.Failed {
		fmt.Printf("  %s: %s\n", failure.ZoneID, failure.Reason)
	}
	return nil
}
