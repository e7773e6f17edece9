package search_test

import (
	"context"
	"io"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nearby/internal/domain/business"
	searchsvc "nearby/internal/service/search"
)

func newInvalidator(h *harness) *searchsvc.Invalidator {
	return searchsvc.NewInvalidator(h.keys, h.cache, h.index, log.New(io.Discard, "", 0))
}

func TestInvalidation_ForcesRefetchAtOldLocation(t *testing.T) {
	store := &fakeSpatialStore{items: []business.Business{bizAt("b1", 40.0005, -74.0005)}, total: 1}
	h := newHarness(t, store, newFakeCache())
	invalidator := newInvalidator(h)

	q := nycQuery()
	q.Latitude, q.Longitude = 40.0, -74.0

	_, err := h.orchestrator.Search(context.Background(), q)
	require.NoError(t, err)
	require.Equal(t, 1, store.calls())

	// The business moves away from the cached neighborhood.
	err = invalidator.OnBusinessLocationChanged(context.Background(), "b1",
		&business.Coordinates{Latitude: 40.0, Longitude: -74.0},
		&business.Coordinates{Latitude: 41.0, Longitude: -75.0},
	)
	require.NoError(t, err)

	page, err := h.orchestrator.Search(context.Background(), q)
	require.NoError(t, err)
	assert.False(t, page.CacheHit, "stale entry must be gone")
	assert.Equal(t, 2, store.calls(), "search must re-fetch from the store")
}

func TestInvalidation_NeighborCellCoverage(t *testing.T) {
	store := &fakeSpatialStore{items: nil, total: 0}
	h := newHarness(t, store, newFakeCache())
	invalidator := newInvalidator(h)

	// Cached query sits one grid cell (0.01 degrees) away from the change.
	q := nycQuery()
	q.Latitude, q.Longitude = 40.01, -74.0

	_, err := h.orchestrator.Search(context.Background(), q)
	require.NoError(t, err)

	err = invalidator.OnBusinessLocationChanged(context.Background(), "b1",
		&business.Coordinates{Latitude: 40.0, Longitude: -74.0}, nil)
	require.NoError(t, err)

	page, err := h.orchestrator.Search(context.Background(), q)
	require.NoError(t, err)
	assert.False(t, page.CacheHit, "neighboring cells are part of the blast radius")
}

func TestInvalidation_DistantCellsSurvive(t *testing.T) {
	store := &fakeSpatialStore{items: nil, total: 0}
	h := newHarness(t, store, newFakeCache())
	invalidator := newInvalidator(h)

	// Cached query far outside the 3x3 neighborhood of the change.
	q := nycQuery()
	q.Latitude, q.Longitude = 40.5, -74.0

	_, err := h.orchestrator.Search(context.Background(), q)
	require.NoError(t, err)

	err = invalidator.OnBusinessLocationChanged(context.Background(), "b1",
		&business.Coordinates{Latitude: 40.0, Longitude: -74.0}, nil)
	require.NoError(t, err)

	page, err := h.orchestrator.Search(context.Background(), q)
	require.NoError(t, err)
	assert.True(t, page.CacheHit, "unrelated cells must keep their entries")
}

func TestInvalidation_PrefixFallbackWithoutIndex(t *testing.T) {
	store := &fakeSpatialStore{items: nil, total: 0}
	h := newHarness(t, store, newFakeCache())
	invalidator := newInvalidator(h)

	q := nycQuery()
	q.Latitude, q.Longitude = 40.0, -74.0

	_, err := h.orchestrator.Search(context.Background(), q)
	require.NoError(t, err)

	// Simulate an index wiped by restart: every recorded cell forgotten.
	for _, cell := range h.keys.NeighboringGridKeys(40.0, -74.0) {
		h.index.Take(cell)
	}

	err = invalidator.OnBusinessLocationChanged(context.Background(), "b1",
		&business.Coordinates{Latitude: 40.0, Longitude: -74.0}, nil)
	require.NoError(t, err)

	page, err := h.orchestrator.Search(context.Background(), q)
	require.NoError(t, err)
	assert.False(t, page.CacheHit, "prefix scan fallback must still clear the cell")
}

func TestInvalidation_NilCoordinatesAreNoOp(t *testing.T) {
	h := newHarness(t, &fakeSpatialStore{}, newFakeCache())
	invalidator := newInvalidator(h)

	err := invalidator.OnBusinessLocationChanged(context.Background(), "b1", nil, nil)
	assert.NoError(t, err)
}
