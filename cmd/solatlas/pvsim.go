package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/urjalabs/solatlas/internal/service/pvsim"
)

var pvsimCmd = &cobra.Command{
	Use:   "pvsim",
	Short: "Simulate reference-plant daily energy for every stored location",
	Long: `Runs the PVWatts-style chain over each location's cleaned climate series
at its zone centroid latitude and stores the resulting daily energy labels.`,
	RunE: runPVSim,
}

func init() {
	rootCmd.AddCommand(pvsimCmd)
}

func runPVSim(cmd *cobra.Command, args []string) error {
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
	latitudes := zoneLatitudes(zones)

	svc := pvsim.NewService(referencePlant(cfg), logger)

	locations, err := store.Locations(cmd.Context())
	if err != nil {
		return fmt.Errorf("listing locations: %w", err)
	}
	if len(locations) == 0 {
		return fmt.Errorf("the pipeline store holds no locations, run ingest first")
	}

	total := 0
	for _, locationID := range locations {
		series, err := store.RecordsByLocation(cmd.Context(), locationID)
		if err != nil {
			return fmt.Errorf("loading series for %s: %w", locationID, err)
		}

		latitude, ok := latitudes[locationID]
		if !ok {
			latitude = cfg.Zones.CenterLat
			logger.Warn("Location not mapped to any zone, using city center latitude",
				zap.String("location_id", locationID))
		}

		days, err := svc.Simulate(cmd.Context(), latitude, series)
		if err != nil {
			return fmt.Errorf("simulating %s: %w", locationID, err)
		}
		if err := store.SaveDays(cmd.Context(), days); err != nil {
			return fmt.Errorf("saving energy days for %s: %w", locationID, err)
		}
		total += len(days)
	}

	fmt.Printf("Simulated %d energy days for %d locations at %.1f kW\n", total, len(locations), cfg.Plant.CapacityKW)
	return nil
}
