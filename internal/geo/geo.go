// Package geo provides the geospatial pieces of the platform: great-circle
// distance, the spatial index token, duplicate-proximity detection and the
// reverse geocoding client.
package geo

import (
	"math"

	"civicpulse/backend/internal/config"
	"civicpulse/backend/internal/models"

	"github.com/mmcloughlin/geohash"
)

// earthRadiusMetres is the mean Earth radius used for haversine distances.
const earthRadiusMetres = 6371000.0

// HaversineMetres returns the great-circle distance in metres between two
// lat/lng points.
func HaversineMetres(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLng := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
			math.Sin(dLng/2)*math.Sin(dLng/2)

	return earthRadiusMetres * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// Hash returns the precision-8 geohash token for a point.
func Hash(lat, lng float64) string {
	return geohash.EncodeWithPrecision(lat, lng, config.GeohashPrecision)
}

// FindNearby returns the first complaint strictly closer than
// config.DuplicateRadiusMetres to the candidate point, or nil. The result is
// advisory: the caller surfaces it and lets the user decide, it never blocks
// a filing.
func FindNearby(lat, lng float64, open []models.Complaint) *models.Complaint {
	for i := range open {
		d := HaversineMetres(lat, lng, open[i].Latitude, open[i].Longitude)
		if d < config.DuplicateRadiusMetres {
			return &open[i]
		}
	}
	return nil
}
