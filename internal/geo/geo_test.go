package geo_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"nearby/internal/geo"
)

func TestHaversineKm_KnownDistance(t *testing.T) {
	// New York to Los Angeles, roughly 3936 km.
	km := geo.HaversineKm(40.7128, -74.0060, 34.0522, -118.2437)
	assert.InDelta(t, 3936, km, 30)
}

func TestHaversineKm_ZeroForSamePoint(t *testing.T) {
	assert.Zero(t, geo.HaversineKm(51.5, -0.12, 51.5, -0.12))
}

func TestHaversineKm_OneDegreeLatitude(t *testing.T) {
	// One degree of latitude is about 111.2 km everywhere.
	km := geo.HaversineKm(10, 20, 11, 20)
	assert.InDelta(t, 111.2, km, 0.5)
}

func TestBearingDegrees_CardinalDirections(t *testing.T) {
	north := geo.BearingDegrees(0, 0, 1, 0)
	assert.InDelta(t, 0, north, 0.01)

	east := geo.BearingDegrees(0, 0, 0, 1)
	assert.InDelta(t, 90, east, 0.01)

	south := geo.BearingDegrees(1, 0, 0, 0)
	assert.InDelta(t, 180, south, 0.01)

	west := geo.BearingDegrees(0, 1, 0, 0)
	assert.InDelta(t, 270, west, 0.01)
}

func TestQuantize(t *testing.T) {
	assert.InDelta(t, 40.7128, geo.Quantize(40.71284, 4), 1e-9)
	assert.InDelta(t, 40.7128, geo.Quantize(40.71280, 4), 1e-9)
	assert.InDelta(t, -74.0060, geo.Quantize(-74.00604, 4), 1e-9)
	assert.Equal(t, geo.Quantize(40.71281, 4), geo.Quantize(40.71284, 4))
}

func TestSnapToCell(t *testing.T) {
	assert.InDelta(t, 40.71, geo.SnapToCell(40.7128, 0.01), 1e-9)
	assert.InDelta(t, -74.01, geo.SnapToCell(-74.0060, 0.01), 1e-9)

	// Two points inside the same cell snap identically.
	assert.Equal(t, geo.SnapToCell(40.712, 0.01), geo.SnapToCell(40.719, 0.01))
}

func TestIsFinite(t *testing.T) {
	assert.True(t, geo.IsFinite(0))
	assert.True(t, geo.IsFinite(-180))
	assert.False(t, geo.IsFinite(nan()))
	assert.False(t, geo.IsFinite(inf()))
}

func nan() float64 {
	zero := 0.0
	return zero / zero
}

func inf() float64 {
	one, zero := 1.0, 0.0
	return one / zero
}
