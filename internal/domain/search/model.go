// internal/domain/search/model.go

package search

import (
	"context"
	"time"

	"nearby/internal/domain/business"
)

// SortOrder selects the ordering the spatial store applies before paginating.
// Re-sorting after pagination would be incorrect, so ordering is strictly a
// store concern.
type SortOrder string

const (
	SortByDistance   SortOrder = "distance"
	SortByRating     SortOrder = "rating"
	SortByPopularity SortOrder = "popularity"
	SortByPrice      SortOrder = "price"
)

// PriceRange bounds the store-level price filter. Zero values mean unbounded.
type PriceRange struct {
	Min int `json:"min,omitempty"`
	Max int `json:"max,omitempty"`
}

// RawQuery is the loosely-typed input accepted from callers. Everything in it
// is untrusted until Normalize has produced a LocationQuery.
type RawQuery struct {
	Latitude   float64
	Longitude  float64
	RadiusKm   float64
	Categories []string
	Text       string
	Page       int
	PageSize   int
	SortBy     string
	PriceRange *PriceRange
	Amenities  []string
	OpenOnly   bool
}

// LocationQuery is the canonical, validated form of a search request. It is
// produced once by the normalizer and never re-parsed downstream.
type LocationQuery struct {
	Latitude   float64
	Longitude  float64
	RadiusKm   float64
	Categories []string
	Text       string
	Page       int
	PageSize   int
	SortBy     SortOrder
	PriceRange *PriceRange
	Amenities  []string
	OpenOnly   bool

	// Clamped lists the fields whose values were silently adjusted during
	// normalization (radius, page, pageSize). Metadata only; excluded from
	// cache-key derivation.
	Clamped []string
}

// Offset returns the store-level row offset for the query's page.
func (q LocationQuery) Offset() int {
	return (q.Page - 1) * q.PageSize
}

// SearchResultItem is a stored business plus the fields derived per query.
type SearchResultItem struct {
	Business business.Business `json:"business"`

	DistanceKm             float64 `json:"distance_km"`
	BearingDegrees         float64 `json:"bearing_degrees"`
	IsOpenNow              bool    `json:"is_open_now"`
	EstimatedTravelMinutes float64 `json:"estimated_travel_minutes"`
}

// SearchResultPage is the result of one orchestrated search call.
//
// TotalCount is the count of the store predicate before the openOnly
// post-filter; the store cannot evaluate timezone-local opening hours.
type SearchResultPage struct {
	Items             []SearchResultItem   `json:"items"`
	TotalCount        int                  `json:"total_count"`
	RadiusKm          float64              `json:"radius_km"`
	Center            business.Coordinates `json:"center"`
	CacheHit          bool                 `json:"cache_hit"`
	TookMs            int64                `json:"took_ms"`
	CategoryBreakdown map[string]int       `json:"category_breakdown,omitempty"`
	Clamped           []string             `json:"clamped,omitempty"`
}

// CachedPage is the persisted shape of a result page: the page minus its
// per-call timing fields, plus the grid cell it was written under.
type CachedPage struct {
	Page      SearchResultPage `json:"page"`
	GridKey   string           `json:"grid_key"`
	TTL       time.Duration    `json:"ttl_seconds"`
	WrittenAt time.Time        `json:"written_at"`
}

// SpatialStore is the geo-capable store collaborator. The engine defines the
// contract and never implements persistence itself.
type SpatialStore interface {
	// FindWithinRadius returns the requested page of active businesses within
	// q.RadiusKm of the query center, ordered per q.SortBy.
	FindWithinRadius(ctx context.Context, q LocationQuery) ([]business.Business, error)

	// CountWithinRadius returns the total number of businesses matching the
	// same predicate, ignoring pagination.
	CountWithinRadius(ctx context.Context, q LocationQuery) (int, error)
}

// CacheStore is the key/value cache collaborator. Implementations must be
// safe to call while the backing store is unavailable; the engine treats
// every failure as a cache miss.
type CacheStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	DeleteByPrefix(ctx context.Context, prefix string) error
}

// ClusterTracker keeps short-lived per-grid-cell activity counters. The
// records exist for cache warming and telemetry only; correctness never
// depends on them.
type ClusterTracker interface {
	// Touch bumps the activity counter for a grid cell, refreshing its TTL.
	Touch(ctx context.Context, gridKey string, ttl time.Duration) error

	// Hottest returns up to n grid keys ordered by recent activity.
	Hottest(ctx context.Context, n int) ([]string, error)
}
