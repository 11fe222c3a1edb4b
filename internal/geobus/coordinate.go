// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package geobus

import (
	"fmt"
	"math"
)

const (
	EarthRadius       = 6371000.0 // meters
	DistanceThreshold = 250.0     // meters
	AccuracyThreshold = 50.0
)

// Coordinate represents a geographic coordinate.
type Coordinate struct {
	Lat float64
	Lon float64
	Acc float64

	CacheHit bool
	Found    bool
}

// DistanceTo returns the great-circle distance to other in meters using the Haversine formula.
func (c Coordinate) DistanceTo(other Coordinate) float64 {
	dLat := (other.Lat - c.Lat) * math.Pi / 180
	dLon := (other.Lon - c.Lon) * math.Pi / 180
	lat1 := c.Lat * math.Pi / 180
	lat2 := other.Lat * math.Pi / 180
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * EarthRadius * math.Asin(math.Sqrt(h))
}

// PosHasSignificantChange reports whether the position moved further than DistanceThreshold
// from other. A notably better accuracy always counts as a significant change.
func (c Coordinate) PosHasSignificantChange(other Coordinate) bool {
	if c.Acc < other.Acc && math.Abs(c.Acc-other.Acc) > AccuracyThreshold {
		return true
	}
	return c.DistanceTo(other) > DistanceThreshold
}

// Valid checks if the coordinate is within the WGS84 bounds and not NaN.
func (c Coordinate) Valid() bool {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lon) {
		return false
	}
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}

// Equal reports whether both coordinates point to the same position.
func (c Coordinate) Equal(other Coordinate) bool {
	return c.Lat == other.Lat && c.Lon == other.Lon
}

func (c Coordinate) String() string {
	return fmt.Sprintf("%.5f,%.5f", c.Lat, c.Lon)
}
