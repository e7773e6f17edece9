// Package geo holds the shared spherical-geometry helpers: great-circle
// distance, forward-azimuth bearing, and the coordinate quantization used for
// cache keys and grid cells.
package geo

import (
	"math"
)

const earthRadiusKm = 6371.0

// HaversineKm returns the great-circle distance between two points in
// kilometers.
func HaversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	rLat1 := lat1 * math.Pi / 180.0
	rLng1 := lng1 * math.Pi / 180.0
	rLat2 := lat2 * math.Pi / 180.0
	rLng2 := lng2 * math.Pi / 180.0

	dLat := rLat2 - rLat1
	dLng := rLng2 - rLng1

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rLat1)*math.Cos(rLat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

// BearingDegrees returns the initial bearing (forward azimuth) from the first
// point to the second, in degrees clockwise from north, normalized to [0, 360).
func BearingDegrees(lat1, lng1, lat2, lng2 float64) float64 {
	rLat1 := lat1 * math.Pi / 180.0
	rLat2 := lat2 * math.Pi / 180.0
	dLng := (lng2 - lng1) * math.Pi / 180.0

	y := math.Sin(dLng) * math.Cos(rLat2)
	x := math.Cos(rLat1)*math.Sin(rLat2) - math.Sin(rLat1)*math.Cos(rLat2)*math.Cos(dLng)

	bearing := math.Atan2(y, x) * 180.0 / math.Pi
	return math.Mod(bearing+360.0, 360.0)
}

// Quantize rounds v to the given number of decimal places. Used to collapse a
// continuous coordinate space into discrete cache-friendly buckets.
func Quantize(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}

// SnapToCell floors v onto a grid of cellSize degrees, returning the cell's
// lower edge. All points inside one cell share a snapped value. The ratio is
// rounded to a micro-cell before flooring so values sitting exactly on a cell
// boundary snap consistently regardless of float representation.
func SnapToCell(v, cellSize float64) float64 {
	ratio := math.Round(v/cellSize*1e6) / 1e6
	return math.Floor(ratio) * cellSize
}

// IsFinite reports whether v is a usable coordinate component, rejecting NaN
// and infinities.
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
