package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/urjalabs/solatlas/internal/adapter/file"
	"github.com/urjalabs/solatlas/internal/domain"
	"github.com/urjalabs/solatlas/internal/service/home"
)

var (
	estimateLat float64
	estimateLon float64
	estimateKW  float64
)

var estimateCmd = &cobra.Command{
	Use:   "estimate",
	Short: "Estimate annual yield for a rooftop from the scored artifact",
	Long: `Maps the coordinate to its zone (or the nearest zone within the coverage
margin) and scales the zone's predicted annual energy to the requested
installation size. Reads the artifact directly, no API server needed.`,
	RunE: runEstimate,
}

func init() {
	estimateCmd.Flags().Float64Var(&estimateLat, "lat", 0, "Latitude of the rooftop")
	estimateCmd.Flags().Float64Var(&estimateLon, "lon", 0, "Longitude of the rooftop")
	estimateCmd.Flags().Float64Var(&estimateKW, "kw", 0, "Installation size in kW (default: the reference plant capacity)")
	estimateCmd.MarkFlagRequired("lat")
	estimateCmd.MarkFlagRequired("lon")
	rootCmd.AddCommand(estimateCmd)
}

func runEstimate(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	kw := estimateKW
	if kw <= 0 {
		kw = cfg.Home.ReferenceCapacityKW
	}

	svc := home.NewService(file.NewArtifact(cfg.Paths.ArtifactFile, logger), cfg.Home.CoverageMarginKM, logger)
	if err := svc.Reload(cmd.Context()); err != nil {
		return fmt.Errorf("loading scored artifact, run the pipeline first: %w", err)
	}

	estimate, err := svc.Estimate(cmd.Context(), estimateLat, estimateLon, kw)
	if err != nil {
		var coverageErr *domain.OutOfCoverageError
		if errors.As(err, &coverageErr) {
			return fmt.Errorf("(%.4f, %.4f) is %.1f km outside the scored area", estimateLat, estimateLon, coverageErr.DistanceKM)
		}
		return fmt.Errorf("estimating yield: %w", err)
	}

	fmt.Printf("Zone %s (%s match)\n", estimate.ZoneID, estimate.Matched)
	fmt.Printf("Suitability score: %.1f\n", estimate.SuitabilityScore)
	fmt.Printf("Zone annual at %.1f kW reference: %.0f kWh\n", home.ReferenceCapacityKW, estimate.ZoneAnnualKWh)
	fmt.Printf("Estimated annual for %.1f kW: %.0f kWh\n", estimate.InstallationKW, estimate.EstimatedKWh)
	return nil
}
