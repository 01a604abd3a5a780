package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/urjalabs/solatlas/internal/adapter/file"
	"github.com/urjalabs/solatlas/internal/adapter/overpass"
	"github.com/urjalabs/solatlas/internal/service/zonegrid"
)

var zonesCmd = &cobra.Command{
	Use:   "zones",
	Short: "Manage the fixed zone partition",
}

var zonesGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Build the zone grid from the city's administrative boundary",
	Long: `Fetches the configured city's administrative boundary from the Overpass API,
lays a square grid over it, keeps the cells whose centroid falls inside the
boundary and writes the partition GeoJSON plus a coverage report.`,
	RunE: runZonesGenerate,
}

var zonesValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check an existing partition file",
	RunE:  runZonesValidate,
}

func init() {
	zonesCmd.AddCommand(zonesGenerateCmd)
	zonesCmd.AddCommand(zonesValidateCmd)
	rootCmd.AddCommand(zonesCmd)
}

func runZonesGenerate(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	boundary := overpass.NewBoundaryProvider(cfg.Zones.OverpassURL, 0, logger)
	writer := file.NewZonesGeoJSON(cfg.Paths.ZonesFile, logger)
	svc := zonegrid.NewService(boundary, writer, zonegrid.Options{
		City:      cfg.Zones.City,
		CenterLat: cfg.Zones.CenterLat,
		CenterLon: cfg.Zones.CenterLon,
		CellKM:    cfg.Zones.CellKM,
		IDPrefix:  cfg.Zones.IDPrefix,
	}, logger)

	zones, coverage, err := svc.Generate(cmd.Context())
	if err != nil {
		return fmt.Errorf("generating zone partition: %w", err)
	}

	reports := file.NewReportStore(cfg.Paths.ReportsDir, logger)
	if err := reports.SaveCoverage(cmd.Context(), coverage); err != nil {
		return fmt.Errorf("saving coverage report: %w", err)
	}

	fmt.Printf("Generated %d zones of %.1f km for %s\n", len(zones), cfg.Zones.CellKM, cfg.Zones.City)
	fmt.Printf("Coverage: %.0f of %.0f km2 (%.1f%%)\n", coverage.CoveredKM2, coverage.BoundaryKM2, coverage.CoveragePct)
	fmt.Printf("Wrote %s\n", cfg.Paths.ZonesFile)
	return nil
}

func runZonesValidate(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	zones, err := loadZones(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}

	svc := zonegrid.NewService(nil, nil, zonegrid.Options{}, logger)
	if err := svc.Validate(cmd.Context(), zones); err != nil {
		return fmt.Errorf("partition invalid: %w", err)
	}

	fmt.Printf("Partition OK: %d zones in %s\n", len(zones), cfg.Paths.ZonesFile)
	return nil
}
