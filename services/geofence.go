package services

import (
	"math"

	"attendance/constants"
)

type GeoPoint struct {
	Latitude  float64
	Longitude float64
}

// Observation is a device position fix
type Observation struct {
	Latitude       float64
	Longitude      float64
	AccuracyMeters float64
}

type GeofenceResult struct {
	WithinBounds    bool
	DistanceMeters  float64
	EffectiveRadius float64
	AccuracyMeters  float64
	// Degraded is set when poor accuracy shrank the allowed radius
	Degraded bool
}

// GeofencePolicy describes the circular check-in area. When the reported
// accuracy exceeds AccuracyThresholdMeters the allowed radius is replaced by
// DegradedRadiusMeters, which tightens the bound near the edge.
type GeofencePolicy struct {
	Center                  GeoPoint
	RadiusMeters            float64
	DegradedRadiusMeters    float64
	AccuracyThresholdMeters float64
}

func DefaultGeofencePolicy() GeofencePolicy {
	return GeofencePolicy{
		Center: GeoPoint{
			Latitude:  constants.DefaultGeofenceLat,
			Longitude: constants.DefaultGeofenceLon,
		},
		RadiusMeters:            constants.DefaultGeofenceRadiusMeters,
		DegradedRadiusMeters:    constants.DefaultDegradedRadiusMeters,
		AccuracyThresholdMeters: constants.DefaultAccuracyThresholdMeters,
	}
}

// EvaluateGeofence checks obs against a circle of radiusMeters around center
// using the default degraded-accuracy policy.
func EvaluateGeofence(center GeoPoint, radiusMeters float64, obs Observation) GeofenceResult {
	p := DefaultGeofencePolicy()
	p.Center = center
	p.RadiusMeters = radiusMeters
	return p.Evaluate(obs)
}

func (p GeofencePolicy) Evaluate(obs Observation) GeofenceResult {
	effective := p.RadiusMeters
	degraded := false
	if obs.AccuracyMeters > p.AccuracyThresholdMeters {
		effective = p.DegradedRadiusMeters
		degraded = true
	}

	distance := HaversineDistance(p.Center, GeoPoint{Latitude: obs.Latitude, Longitude: obs.Longitude})

	return GeofenceResult{
		WithinBounds:    distance <= effective,
		DistanceMeters:  distance,
		EffectiveRadius: effective,
		AccuracyMeters:  obs.AccuracyMeters,
		Degraded:        degraded,
	}
}

// HaversineDistance returns the great-circle distance in meters on a
// spherical Earth.
func HaversineDistance(a, b GeoPoint) float64 {
	lat1Rad, lon1Rad := toRadians(a.Latitude), toRadians(a.Longitude)
	lat2Rad, lon2Rad := toRadians(b.Latitude), toRadians(b.Longitude)
	dLat, dLon := lat2Rad-lat1Rad, lon2Rad-lon1Rad

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return constants.EarthRadiusMeters * c
}

func toRadians(deg float64) float64 {
	return deg * (math.Pi / 180)
}
