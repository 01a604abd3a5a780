package geo

import (
	"math"
)

const earthRadiusKM = 6371.0

// HaversineKM returns the great-circle distance between two WGS84 points in
// kilometers.
func HaversineKM(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180.0
	dLon := (lon2 - lon1) * math.Pi / 180.0

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180.0)*math.Cos(lat2*math.Pi/180.0)*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKM * c
}

// BearingDeg returns the initial bearing from point 1 to point 2 in degrees,
// normalized to [0, 360).
func BearingDeg(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180.0
	phi2 := lat2 * math.Pi / 180.0
	dLon := (lon2 - lon1) * math.Pi / 180.0

	y := math.Sin(dLon) * math.Cos(phi2)
	x := math.Cos(phi1)*math.Sin(phi2) - math.Sin(phi1)*math.Cos(phi2)*math.Cos(dLon)

	deg := math.Atan2(y, x) * 180.0 / math.Pi
	return math.Mod(deg+360.0, 360.0)
}

var octants = []string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}

// Octant buckets a bearing into one of the eight compass sectors, 45° each,
// centered on the cardinal and intercardinal directions.
func Octant(bearingDeg float64) string {
	idx := int(math.Mod(bearingDeg+22.5, 360.0) / 45.0)
	return octants[idx]
}

// DegPerKMLat is the latitude span of one kilometer, constant everywhere.
func DegPerKMLat() float64 {
	return 1.0 / 110.574
}

// DegPerKMLon is the longitude span of one kilometer at the given latitude.
func DegPerKMLon(lat float64) float64 {
	return 1.0 / (111.320 * math.Cos(lat*math.Pi/180.0))
}
