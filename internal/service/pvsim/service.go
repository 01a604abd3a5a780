package pvsim

import (
	"context"
	"math"

	"go.uber.org/zap"

	"github.com/urjalabs/solatlas/internal/domain"
)

// Sandia module temperature coefficients for an open-rack glass/polymer
// module, with the usual 3 degree conductive offset at 1000 W/m2.
const (
	sapmA      = -3.56
	sapmB      = -0.075
	sapmDeltaT = 3.0

	refIrradiance = 1000.0 // W/m2
	refCellTemp   = 25.0   // degC
)

// Plant describes the reference PV installation simulated at every location.
type Plant struct {
	CapacityKW  float64
	TiltDeg     float64
	AzimuthDeg  float64
	Albedo      float64
	GammaPdc    float64 // fractional DC power change per degC
	InverterEff float64
}

// Service converts daily climate records into daily plant energy. The model
// is a daylight-average power chain: plane-of-array transposition at solar
// noon geometry, Sandia cell temperature, linear DC derate, then a clipped
// inverter stage.
type Service struct {
	plant Plant
	log   *zap.Logger
}

func NewService(plant Plant, log *zap.Logger) *Service {
	return &Service{plant: plant, log: log}
}

// Simulate produces one EnergyDay per input record at the given latitude.
// Days with non-physical irradiance, and days whose weather was gap-filled,
// come back with Valid false so downstream screening can discard them
// without losing the calendar slot.
func (s *Service) Simulate(ctx context.Context, latitude float64, series []domain.ClimateRecord) ([]domain.EnergyDay, error) {
	out := make([]domain.EnergyDay, 0, len(series))
	invalid := 0
	for _, rec := range series {
		day := domain.EnergyDay{
			LocationID: rec.LocationID,
			Date:       domain.Day(rec.Date),
		}
		if rec.GHIWhm2 < 0 || math.IsNaN(rec.GHIWhm2) {
			invalid++
			out = append(out, day)
			continue
		}
		day.EnergyKWh = s.DailyEnergyKWh(latitude, rec)
		if rec.Filled {
			invalid++
		} else {
			day.Valid = true
		}
		out = append(out, day)
	}
	if invalid > 0 {
		s.log.Warn("Flagged days with unusable weather",
			zap.Int("invalid_days", invalid),
			zap.Int("total_days", len(series)),
		)
	}
	return out, nil
}

// DailyEnergyKWh runs the power chain for a single day.
func (s *Service) DailyEnergyKWh(latitude float64, rec domain.ClimateRecord) float64 {
	if rec.GHIWhm2 <= 0 {
		return 0
	}

	daylight := daylightHours(latitude, rec.Date.YearDay())
	if daylight <= 0 {
		return 0
	}

	// Daylight-average horizontal irradiance in W/m2.
	ghiAvg := rec.GHIWhm2 / daylight

	poaAvg := ghiAvg * s.transposition(latitude, rec.Date.YearDay())

	cellTemp := cellTemperature(poaAvg, rec.T2MC, rec.WS10MS)

	pdc := s.plant.CapacityKW * (poaAvg / refIrradiance) * (1 + s.plant.GammaPdc*(cellTemp-refCellTemp))
	if pdc < 0 {
		pdc = 0
	}

	pac := s.plant.InverterEff * pdc
	if cap := s.plant.InverterEff * s.plant.CapacityKW; pac > cap {
		pac = cap
	}

	return pac * daylight
}

// transposition approximates the plane-of-array gain over horizontal using
// the incidence geometry at solar noon, plus the ground-reflected view
// factor. The ratio is clamped because a single-instant geometry over- and
// under-shoots at the solstices.
func (s *Service) transposition(latitude float64, doy int) float64 {
	phi := latitude * math.Pi / 180
	delta := declination(doy)
	beta := s.plant.TiltDeg * math.Pi / 180

	// Noon zenith and incidence for an equator-facing plane.
	zenith := math.Abs(phi - delta)
	incidence := math.Abs(phi - delta - beta)
	if s.plant.AzimuthDeg < 90 || s.plant.AzimuthDeg > 270 {
		// North-facing plane: tilting away from the sun.
		incidence = math.Abs(phi - delta + beta)
	}

	ratio := math.Cos(incidence) / math.Cos(zenith)
	if ratio < 0.90 {
		ratio = 0.90
	}
	if ratio > 1.15 {
		ratio = 1.15
	}

	ground := s.plant.Albedo * (1 - math.Cos(beta)) / 2
	return ratio + ground
}

func cellTemperature(poa, airTemp, windSpeed float64) float64 {
	moduleTemp := poa*math.Exp(sapmA+sapmB*windSpeed) + airTemp
	return moduleTemp + poa/refIrradiance*sapmDeltaT
}

// declination returns the solar declination in radians for a day of year.
func declination(doy int) float64 {
	return 23.45 * math.Pi / 180 * math.Sin(2*math.Pi*float64(284+doy)/365)
}

// daylightHours is the astronomical day length from the sunset hour angle.
// At polar latitudes the cosine saturates, giving 0 or 24 hours.
func daylightHours(latitude float64, doy int) float64 {
	phi := latitude * math.Pi / 180
	delta := declination(doy)
	cosOmega := -math.Tan(phi) * math.Tan(delta)
	if cosOmega >= 1 {
		return 0
	}
	if cosOmega <= -1 {
		return 24
	}
	return 24 / math.Pi * math.Acos(cosOmega)
}
