package domain

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// DefaultMaxRadiusKM is the fallback great-circle radius for ad-hoc
// locations, overridable via the tradecore.max_match_radius_km config value
// (zero or less keeps this default).
const DefaultMaxRadiusKM = 500.0

// GeoMatch matches registered locations by location id or shared region;
// ad-hoc locations match within radiusKM of great-circle (Haversine)
// distance, computed via paulmach/orb/geo.
func GeoMatch(a, b Location, radiusKM float64) bool {
	if a.RegisteredLocationID != "" && b.RegisteredLocationID != "" {
		if a.RegisteredLocationID == b.RegisteredLocationID {
			return true
		}
	}
	if a.Region != "" && b.Region != "" && a.Region == b.Region {
		return true
	}
	if a.Lat == 0 && a.Lng == 0 {
		return false
	}
	if b.Lat == 0 && b.Lng == 0 {
		return false
	}
	pa := orb.Point{a.Lng, a.Lat}
	pb := orb.Point{b.Lng, b.Lat}
	distanceKM := geo.Distance(pa, pb) / 1000.0
	return distanceKM <= radiusKM
}

// LocationScore is the 0.10-weighted location similarity factor: 1 for an
// exact registered-location match; when either side lacks coordinates, 0.8
// for a shared region and 0 otherwise; else linear decay to 0 at radiusKM.
func LocationScore(a, b Location, radiusKM float64) float64 {
	if a.RegisteredLocationID != "" && a.RegisteredLocationID == b.RegisteredLocationID {
		return 1
	}
	if a.Lat == 0 && a.Lng == 0 || b.Lat == 0 && b.Lng == 0 {
		if a.Region != "" && a.Region == b.Region {
			return 0.8
		}
		return 0
	}
	pa := orb.Point{a.Lng, a.Lat}
	pb := orb.Point{b.Lng, b.Lat}
	distanceKM := geo.Distance(pa, pb) / 1000.0
	if distanceKM >= radiusKM {
		return 0
	}
	return 1 - distanceKM/radiusKM
}
