// internal/service/search/normalizer.go

package search

import (
	"fmt"
	"strings"

	"nearby/internal/domain/search"
	"nearby/internal/geo"
)

// NormalizerConfig bounds the values a raw query may carry.
type NormalizerConfig struct {
	MinRadiusKm     float64
	MaxRadiusKm     float64
	MaxPageSize     int
	DefaultPageSize int
	DefaultRadiusKm float64
}

// DefaultNormalizerConfig returns the stock bounds: radius clamped to
// 0.1-100 km, page size capped at 50.
func DefaultNormalizerConfig() NormalizerConfig {
	return NormalizerConfig{
		MinRadiusKm:     0.1,
		MaxRadiusKm:     100,
		MaxPageSize:     50,
		DefaultPageSize: 20,
		DefaultRadiusKm: 5,
	}
}

// Normalizer validates and clamps raw query input into a canonical
// LocationQuery. It is a pure function of its input; coordinates out of range
// are rejected while radius and pagination are clamped, with every clamp
// reported back through the query's Clamped metadata.
type Normalizer struct {
	cfg NormalizerConfig
}

// NewNormalizer creates a Normalizer with the given bounds.
func NewNormalizer(cfg NormalizerConfig) *Normalizer {
	if cfg.MinRadiusKm <= 0 {
		cfg.MinRadiusKm = 0.1
	}
	if cfg.MaxRadiusKm <= 0 {
		cfg.MaxRadiusKm = 100
	}
	if cfg.MaxPageSize <= 0 {
		cfg.MaxPageSize = 50
	}
	if cfg.DefaultPageSize <= 0 {
		cfg.DefaultPageSize = 20
	}
	if cfg.DefaultRadiusKm <= 0 {
		cfg.DefaultRadiusKm = 5
	}
	return &Normalizer{cfg: cfg}
}

// Normalize turns a RawQuery into a LocationQuery or a ValidationError.
func (n *Normalizer) Normalize(raw search.RawQuery) (search.LocationQuery, error) {
	var q search.LocationQuery

	if !geo.IsFinite(raw.Latitude) {
		return q, &search.ValidationError{Field: "lat", Reason: "not a finite number"}
	}
	if !geo.IsFinite(raw.Longitude) {
		return q, &search.ValidationError{Field: "lng", Reason: "not a finite number"}
	}
	if raw.Latitude < -90 || raw.Latitude > 90 {
		return q, &search.ValidationError{Field: "lat", Reason: fmt.Sprintf("%.6f out of range [-90, 90]", raw.Latitude)}
	}
	if raw.Longitude < -180 || raw.Longitude > 180 {
		return q, &search.ValidationError{Field: "lng", Reason: fmt.Sprintf("%.6f out of range [-180, 180]", raw.Longitude)}
	}

	var clamped []string

	radius := raw.RadiusKm
	if radius == 0 {
		radius = n.cfg.DefaultRadiusKm
	} else if !geo.IsFinite(radius) || radius < n.cfg.MinRadiusKm {
		radius = n.cfg.MinRadiusKm
		clamped = append(clamped, "radiusKm")
	} else if radius > n.cfg.MaxRadiusKm {
		radius = n.cfg.MaxRadiusKm
		clamped = append(clamped, "radiusKm")
	}

	page := raw.Page
	if page < 1 {
		if raw.Page != 0 {
			clamped = append(clamped, "page")
		}
		page = 1
	}

	pageSize := raw.PageSize
	if pageSize == 0 {
		pageSize = n.cfg.DefaultPageSize
	} else if pageSize < 1 {
		pageSize = 1
		clamped = append(clamped, "pageSize")
	} else if pageSize > n.cfg.MaxPageSize {
		pageSize = n.cfg.MaxPageSize
		clamped = append(clamped, "pageSize")
	}

	sortBy := search.SortOrder(strings.ToLower(strings.TrimSpace(raw.SortBy)))
	switch sortBy {
	case search.SortByDistance, search.SortByRating, search.SortByPopularity, search.SortByPrice:
	case "":
		sortBy = search.SortByDistance
	default:
		return q, &search.ValidationError{Field: "sortBy", Reason: fmt.Sprintf("unknown sort order %q", raw.SortBy)}
	}

	if raw.PriceRange != nil {
		if raw.PriceRange.Min < 0 || (raw.PriceRange.Max > 0 && raw.PriceRange.Max < raw.PriceRange.Min) {
			return q, &search.ValidationError{Field: "priceRange", Reason: "min must be >= 0 and <= max"}
		}
	}

	q = search.LocationQuery{
		Latitude:   raw.Latitude,
		Longitude:  raw.Longitude,
		RadiusKm:   radius,
		Categories: dedupeFold(raw.Categories),
		Text:       strings.TrimSpace(raw.Text),
		Page:       page,
		PageSize:   pageSize,
		SortBy:     sortBy,
		PriceRange: raw.PriceRange,
		Amenities:  dedupeFold(raw.Amenities),
		OpenOnly:   raw.OpenOnly,
		Clamped:    clamped,
	}

	return q, nil
}

// dedupeFold trims entries and drops case-insensitive duplicates, keeping the
// first spelling seen. Input order is preserved.
func dedupeFold(values []string) []string {
	if len(values) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		folded := strings.ToLower(v)
		if _, dup := seen[folded]; dup {
			continue
		}
		seen[folded] = struct{}{}
		out = append(out, v)
	}

	if len(out) == 0 {
		return nil
	}
	return out
}
