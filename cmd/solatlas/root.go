package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/urjalabs/solatlas/internal/adapter/file"
	"github.com/urjalabs/solatlas/internal/adapter/storage/sqlite"
	"github.com/urjalabs/solatlas/internal/domain"
	"github.com/urjalabs/solatlas/internal/ports"
	"github.com/urjalabs/solatlas/internal/service/aggregate"
	"github.com/urjalabs/solatlas/internal/service/forecast"
	"github.com/urjalabs/solatlas/internal/service/ingest"
	"github.com/urjalabs/solatlas/internal/service/pvsim"
	"github.com/urjalabs/solatlas/internal/service/qaqc"
	"github.com/urjalabs/solatlas/pkg/config"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "solatlas",
	Short: "Solar suitability pipeline for a metropolitan zone grid",
	Long: `solatlas scores a city's fixed zone partition for rooftop solar potential.
Subcommands mirror the pipeline stages: ingest daily climate data, simulate
reference-plant output, screen data quality, train a forecaster, aggregate
per-zone annual energy and score the zones into the suitability artifact.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./configs/config.yaml)")
}

// loadConfig loads the configuration file
func loadConfig() (*config.Config, error) {
	return config.Load(cfgFile)
}

// buildLogger builds the zap logger the services log through
func buildLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var zc zap.Config
	if cfg.Format == "console" {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}
	if cfg.Level != "" {
		level, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
		zc.Level = zap.NewAtomicLevelAt(level)
	}
	return zc.Build()
}

// setup loads config and builds the logger, the preamble of every subcommand
func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	logger, err := buildLogger(cfg.Logging)
	if err != nil {
		return nil, nil, fmt.Errorf("building logger: %w", err)
	}
	return cfg, logger, nil
}

// openStore opens the local pipeline store
func openStore(cfg *config.Config, log *zap.Logger) (*sqlite.Store, error) {
	store, err := sqlite.New(cfg.SQLite.Path, log)
	if err != nil {
		return nil, fmt.Errorf("opening pipeline store: %w", err)
	}
	return store, nil
}

// loadZones reads the fixed zone partition
func loadZones(ctx context.Context, cfg *config.Config, log *zap.Logger) ([]domain.Zone, error) {
	zones, err := file.NewZonesGeoJSON(cfg.Paths.ZonesFile, log).Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading zone partition: %w", err)
	}
	return zones, nil
}

// zoneLatitudes maps each representative location to its zone centroid latitude
func zoneLatitudes(zones []domain.Zone) map[string]float64 {
	latitudes := make(map[string]float64, len(zones))
	for _, zone := range zones {
		latitudes[zone.RepresentativeLocationID] = zone.CentroidLat
	}
	return latitudes
}

func ingestOptions(cfg *config.Config) ingest.Options {
	return ingest.Options{
		QuantileLow:      cfg.Ingest.QuantileLow,
		QuantileHigh:     cfg.Ingest.QuantileHigh,
		GapToleranceDays: cfg.Features.GapToleranceDays,
	}
}

func referencePlant(cfg *config.Config) pvsim.Plant {
	return pvsim.Plant{
		CapacityKW:  cfg.Plant.CapacityKW,
		TiltDeg:     cfg.Plant.TiltDeg,
		AzimuthDeg:  cfg.Plant.AzimuthDeg,
		Albedo:      cfg.Plant.Albedo,
		GammaPdc:    cfg.Plant.GammaPdc,
		InverterEff: cfg.Plant.InverterEff,
	}
}

func featureConfig(cfg *config.Config) ports.FeatureConfig {
	return ports.FeatureConfig{
		Lags:             cfg.Features.Lags,
		RollingMeanDays:  cfg.Features.RollingMeanDays,
		RollingStdDays:   cfg.Features.RollingStdDays,
		SeasonalEncoding: cfg.Features.SeasonalEncoding,
		GapToleranceDays: cfg.Features.GapToleranceDays,
		MinTrainDays:     cfg.Features.MinTrainDays,
		SplitCutoff:      cfg.Features.SplitCutoff,
	}
}

func forecastConfig(cfg *config.Config) forecast.Config {
	return forecast.Config{
		Variant:     domain.ModelVariant(cfg.Model.Variant),
		Lambda:      cfg.Model.RidgeLambda,
		Trees:       cfg.Model.Trees,
		MaxDepth:    cfg.Model.MaxDepth,
		LearnRate:   cfg.Model.LearningRate,
		Subsample:   cfg.Model.Subsample,
		MinLeafSize: cfg.Model.MinLeaf,
		Seed:        cfg.Model.Seed,
	}
}

func qaThresholds(cfg *config.Config) qaqc.Thresholds {
	return qaqc.Thresholds{
		MinDays:           cfg.QA.MinDays,
		MaxZeroDays:       cfg.QA.MaxZeroDays,
		CapacityFactorMin: cfg.QA.CapacityFactorMin,
		CapacityFactorMax: cfg.QA.CapacityFactorMax,
		MeanDailyKWhMin:   cfg.QA.MeanDailyKWhMin,
		MeanDailyKWhMax:   cfg.QA.MeanDailyKWhMax,
		FullYearDays:      cfg.QA.FullYearDays,
		CapacityKW:        cfg.Plant.CapacityKW,
	}
}

// zoneResolver builds the configured location resolver. IDW needs the zone
// centroid coordinates to weight neighbors by distance.
func zoneResolver(cfg *config.Config, zones []domain.Zone) ports.LocationResolver {
	if cfg.Aggregate.Interpolation == "idw" {
		coords := make(map[string][2]float64, len(zones))
		for _, zone := range zones {
			coords[zone.RepresentativeLocationID] = [2]float64{zone.CentroidLat, zone.CentroidLon}
		}
		return aggregate.NewIDWResolver(cfg.Aggregate.IDWNeighbors, cfg.Aggregate.IDWPower, coords)
	}
	return aggregate.NewNearestResolver()
}

// eligibleLocations resolves which locations may feed training and
// aggregation: the QA-passing set, or every stored location when screening
// is bypassed. The order is fixed so pooled training stays deterministic.
func eligibleLocations(ctx context.Context, store ports.ClimateStore, reports ports.ReportStore, allowUnscreened bool) ([]string, error) {
	if allowUnscreened {
		locations, err := store.Locations(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing locations: %w", err)
		}
		sort.Strings(locations)
		if len(locations) == 0 {
			return nil, fmt.Errorf("the pipeline store holds no locations, run ingest first")
		}
		return locations, nil
	}

	qaReport, err := reports.LoadQA(ctx)
	if err != nil || qaReport == nil {
		return nil, fmt.Errorf("no QA report found, run qaqc first or pass --allow-unscreened")
	}
	eligible := qaReport.Passing()
	sort.Strings(eligible)
	if len(eligible) == 0 {
		return nil, fmt.Errorf("no location passed QA screening, fix the data or pass --allow-unscreened")
	}
	return eligible, nil
}
