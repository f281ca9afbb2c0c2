// Package spatial provides great-circle distance helpers for regional
// dispersion metrics.
package spatial

import "github.com/golang/geo/s2"

// EarthRadiusKM is the mean Earth radius in kilometers.
const EarthRadiusKM = 6371.01

// HaversineKM returns the great-circle distance in kilometers between two
// points given in degrees.
func HaversineKM(lat1, lon1, lat2, lon2 float64) float64 {
	p1 := s2.LatLngFromDegrees(lat1, lon1)
	p2 := s2.LatLngFromDegrees(lat2, lon2)
	return p1.Distance(p2).Radians() * EarthRadiusKM
}
