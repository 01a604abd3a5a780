package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/urjalabs/solatlas/internal/adapter/file"
	"github.com/urjalabs/solatlas/internal/adapter/storage/postgres"
	"github.com/urjalabs/solatlas/internal/domain"
	"github.com/urjalabs/solatlas/internal/ports"
	"github.com/urjalabs/solatlas/internal/service/score"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Rank zones and write the suitability artifact",
	Long: `Turns the latest per-zone annual predictions into 0-100 suitability
scores via min-max scaling, writes the scored artifact the API serves
from and mirrors the rows into Postgres when a database is configured.`,
	RunE: runScore,
}

func init() {
	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	zones, err := loadZones(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}

	reports := file.NewReportStore(cfg.Paths.ReportsDir, logger)
	runID, annual, err := reports.LoadAnnual(cmd.Context())
	if err != nil {
		return fmt.Errorf("loading annual predictions, run aggregate first: %w", err)
	}

	report, err := reports.LoadRun(cmd.Context())
	if err != nil || report == nil {
		// Only the annual file survived. Stamp results with its run anyway.
		report = &domain.RunReport{RunID: runID}
	}

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
		repo = postgres.NewZoneResultRepository(db, logger)
	}

	scorer := score.NewService(file.NewArtifact(cfg.Paths.ArtifactFile, logger), repo, reports, logger)
	results, err := scorer.Score(cmd.Context(), annual, zones)
	if err != nil {
		return fmt.Errorf("scoring zones: %w", err)
	}
	if err := scorer.Persist(cmd.Context(), zones, results, report); err != nil {
		return fmt.Errorf("persisting results: %w", err)
	}

	fmt.Printf("Scored %d zones for run %s\n", len(results), report.RunID)
	fmt.Printf("Wrote %s\n", cfg.Paths.ArtifactFile)
	return nil
}
