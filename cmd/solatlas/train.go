package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/urjalabs/solatlas/internal/adapter/file"
	"github.com/urjalabs/solatlas/internal/adapter/storage/postgres"
	"github.com/urjalabs/solatlas/internal/domain"
	"github.com/urjalabs/solatlas/internal/service/features"
	"github.com/urjalabs/solatlas/internal/service/forecast"
)

var trainAllowUnscreened bool

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Fit the forecaster on the screened locations",
	Long: `Builds feature tables from the cleaned climate series and simulated labels
of every QA-passing location, pools them chronologically and fits the
configured estimator variant. The fitted model is written as a JSON artifact
and registered in Postgres when a mirror is configured.`,
	RunE: runTrain,
}

func init() {
	trainCmd.Flags().BoolVar(&trainAllowUnscreened, "allow-unscreened", false, "Train on locations that failed or skipped QA screening")
	rootCmd.AddCommand(trainCmd)
}

func runTrain(cmd *cobra.Command, args []string) error {
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

	reports := file.NewReportStore(cfg.Paths.ReportsDir, logger)
	eligible, err := eligibleLocations(cmd.Context(), store, reports, trainAllowUnscreened)
	if err != nil {
		return err
	}

	builder := features.NewBuilder(featureConfig(cfg), logger)

	var train, test []domain.FeatureRow
	for _, locationID := range eligible {
		series, err := store.RecordsByLocation(cmd.Context(), locationID)
		if err != nil {
			return fmt.Errorf("loading series for %s: %w", locationID, err)
		}
		labels, err := store.DaysByLocation(cmd.Context(), locationID)
		if err != nil {
			return fmt.Errorf("loading energy days for %s: %w", locationID, err)
		}

		locTrain, locTest, err := builder.Build(cmd.Context(), series, labels)
		if err != nil {
			logger.Warn("Dropping location from training",
				zap.String("location_id", locationID),
				zap.Error(err))
			continue
		}
		train = append(train, locTrain...)
		test = append(test, locTest...)
	}
	if len(train) == 0 {
		return fmt.Errorf("no training rows from %d eligible locations", len(eligible))
	}

	svc := forecast.NewService(forecastConfig(cfg), logger)
	model, err := svc.Train(cmd.Context(), train, test)
	if err != nil {
		return fmt.Errorf("fitting %s model: %w", cfg.Model.Variant, err)
	}

	models := file.NewModelStore(cfg.Paths.ModelFile, logger)
	path, err := models.Save(cmd.Context(), model)
	if err != nil {
		return fmt.Errorf("saving model: %w", err)
	}

	if cfg.Database.Enabled {
		db, err := postgres.NewConnection(cfg.Database, logger)
		if err != nil {
			return fmt.Errorf("connecting to model registry: %w", err)
		}
		defer postgres.Close(db)
		if cfg.Database.AutoMigrate {
			if err := postgres.RunMigrations(db); err != nil {
				return fmt.Errorf("migrating model registry: %w", err)
			}
		}

		registry := postgres.NewModelRegistry(db, logger)
		record := &domain.ModelRecord{
			ID:        model.ID,
			Variant:   model.Variant,
			RMSE:      model.Metrics.RMSE,
			MAE:       model.Metrics.MAE,
			R2:        model.Metrics.R2,
			TrainRows: model.TrainRows,
			TestRows:  len(test),
			Path:      path,
			TrainedAt: time.Now().UTC(),
		}
		if err := registry.Save(cmd.Context(), record); err != nil {
			return fmt.Errorf("registering model: %w", err)
		}
	}

	fmt.Printf("Fitted %s model %s on %d rows from %d locations\n", model.Variant, model.ID, model.TrainRows, len(eligible))
	fmt.Printf("Test metrics: RMSE %.3f, MAE %.3f, R2 %.3f (%d rows)\n", model.Metrics.RMSE, model.Metrics.MAE, model.Metrics.R2, len(test))
	fmt.Printf("Wrote %s\n", path)
	return nil
}
