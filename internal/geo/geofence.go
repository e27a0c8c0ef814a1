// Package geo classifies WGS-84 positions against the school geofence.
package geo

import "math"

type Zone int

const (
	// ZoneFar: outside the proximity radius.
	ZoneFar Zone = iota
	// ZoneNear: inside the proximity radius but outside the arrival radius.
	ZoneNear
	// ZoneArrived: inside the arrival radius. Arrival implies near.
	ZoneArrived
)

func (z Zone) String() string {
	switch z {
	case ZoneNear:
		return "near"
	case ZoneArrived:
		return "arrived"
	default:
		return "far"
	}
}

// Point is a WGS-84 coordinate pair in degrees.
type Point struct {
	Lat float64
	Lon float64
}

const earthRadiusKm = 6371.0088

// DistanceKm computes the great-circle distance between two points using
// the haversine formula.
func DistanceKm(a, b Point) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)

	h := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLon*sinLon

	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}

// Classify places pos relative to anchor. proximityKm must be larger than
// arrivalKm; the zones are nested, not mutually exclusive thresholds.
func Classify(pos, anchor Point, proximityKm, arrivalKm float64) Zone {
	d := DistanceKm(pos, anchor)

	switch {
	case d <= arrivalKm:
		return ZoneArrived
	case d <= proximityKm:
		return ZoneNear
	default:
		return ZoneFar
	}
}
