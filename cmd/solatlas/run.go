package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/urjalabs/solatlas/internal/adapter/file"
	"github.com/urjalabs/solatlas/internal/adapter/queue"
	"github.com/urjalabs/solatlas/internal/adapter/storage/postgres"
	"github.com/urjalabs/solatlas/internal/pipeline"
	"github.com/urjalabs/solatlas/internal/ports"
	"github.com/urjalabs/solatlas/internal/service/aggregate"
	"github.com/urjalabs/solatlas/internal/service/features"
	"github.com/urjalabs/solatlas/internal/service/forecast"
	"github.com/urjalabs/solatlas/internal/service/ingest"
	"github.com/urjalabs/solatlas/internal/service/pvsim"
	"github.com/urjalabs/solatlas/internal/service/qaqc"
	"github.com/urjalabs/solatlas/internal/service/score"
)

var runAllowUnscreened bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute the full pipeline end to end",
	Long: `Runs every stage in order: ingest, pvsim, qaqc, features, train,
aggregate and score. A stage error aborts the run before the served
artifact is touched; per-zone aggregation failures are recorded in the
run report instead of aborting.`,
	RunE: runPipeline,
}

func init() {
	runCmd.Flags().BoolVar(&runAllowUnscreened, "allow-unscreened", false, "Run on locations that failed or skipped QA screening")
	rootCmd.AddCommand(runCmd)
}

func runPipeline(cmd *cobra.Command, args []string) error {
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

	// The resolver needs zone coordinates up front; the runner re-reads the
	// partition itself at the start of the run.
	zonesSource := file.NewZonesGeoJSON(cfg.Paths.ZonesFile, logger)
	zones, err := zonesSource.Load(cmd.Context())
	if err != nil {
		return fmt.Errorf("loading zone partition: %w", err)
	}

	var registry ports.ModelRegistry
	var repo ports.ZoneResultRepository
	if cfg.Database.Enabled {
		db, err := postgres.NewConnection(cfg.Database, logger)
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer postgres.Close(db)
		if cfg.Database.AutoMigrate {
			if err := postgres.RunMigrations(db); err != nil {
				return fmt.Errorf("migrating database: %w", err)
			}
		}
		registry = postgres.NewModelRegistry(db, logger)
		repo = postgres.NewZoneResultRepository(db, logger)
	}

	mq, err := queue.New(cfg.Queue, logger)
	if err != nil {
		return fmt.Errorf("connecting to message queue: %w", err)
	}
	if mq != nil {
		defer mq.Close()
	}

	reports := file.NewReportStore(cfg.Paths.ReportsDir, logger)
	forecastSvc := forecast.NewService(forecastConfig(cfg), logger)

	runner := pipeline.NewRunner(
		ingest.NewService(file.NewClimateCSV(cfg.Paths.ClimateDir, logger), store, ingestOptions(cfg), logger),
		pvsim.NewService(referencePlant(cfg), logger),
		qaqc.NewService(qaThresholds(cfg), logger),
		features.NewBuilder(featureConfig(cfg), logger),
		forecastSvc,
		aggregate.NewService(forecastSvc, zoneResolver(cfg, zones), cfg.Aggregate.Workers, logger),
		score.NewService(file.NewArtifact(cfg.Paths.ArtifactFile, logger), repo, reports, logger),
		store,
		store,
		zonesSource,
		file.NewModelStore(cfg.Paths.ModelFile, logger),
		registry,
		reports,
		mq,
		pipeline.Options{
			HorizonDays:     cfg.Aggregate.HorizonDays,
			AllowUnscreened: runAllowUnscreened,
			ArtifactPath:    cfg.Paths.ArtifactFile,
			DefaultLat:      cfg.Zones.CenterLat,
		},
		logger,
	)

	report, err := runner.Run(cmd.Context())
	if err != nil {
		return fmt.Errorf("pipeline run: %w", err)
	}

	fmt.Printf("Run %s finished in %s\n", report.RunID, report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond))
	for _, timing := range report.Stages {
		fmt.Printf("  %-10s %s\n", timing.Stage, timing.Duration.Round(time.Millisecond))
	}
	fmt.Printf("Scored %d zones, %d failed\n", len(report.Succeeded), len(report.Failed))
	for _, failure := range report.Failed {
		fmt.Printf("  %s: %s\n", failure.ZoneID, failure.Reason)
	}
	fmt.Printf("Wrote %s\n", cfg.Paths.ArtifactFile)
	return nil
}
