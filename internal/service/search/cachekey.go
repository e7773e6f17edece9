// internal/service/search/cachekey.go

package search

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"nearby/internal/domain/search"
	"nearby/internal/geo"
)

// KeyPolicyConfig tunes cache-key derivation. The defaults quantize the search
// key to 4 decimal places (~11 m) and the invalidation grid to 0.01 degrees
// (~1.1 km), with a 3x3 neighborhood.
type KeyPolicyConfig struct {
	Prefix          string
	CoordPlaces     int
	GridCellDegrees float64
	NeighborRing    int
	MaxTextLen      int
}

// DefaultKeyPolicyConfig returns the stock key-derivation parameters.
func DefaultKeyPolicyConfig() KeyPolicyConfig {
	return KeyPolicyConfig{
		Prefix:          "search",
		CoordPlaces:     4,
		GridCellDegrees: 0.01,
		NeighborRing:    1,
		MaxTextLen:      48,
	}
}

// KeyPolicy derives the two key spaces the engine uses: a fine-grained search
// key that folds the whole normalized query into one hash, and a coarse grid
// key used only to scope invalidation. The grid key is embedded as a segment
// of the search key so a whole cell can be dropped by prefix.
type KeyPolicy struct {
	cfg KeyPolicyConfig
}

// NewKeyPolicy creates a KeyPolicy.
func NewKeyPolicy(cfg KeyPolicyConfig) *KeyPolicy {
	if cfg.Prefix == "" {
		cfg.Prefix = "search"
	}
	if cfg.CoordPlaces <= 0 {
		cfg.CoordPlaces = 4
	}
	if cfg.GridCellDegrees <= 0 {
		cfg.GridCellDegrees = 0.01
	}
	if cfg.NeighborRing <= 0 {
		cfg.NeighborRing = 1
	}
	if cfg.MaxTextLen <= 0 {
		cfg.MaxTextLen = 48
	}
	return &KeyPolicy{cfg: cfg}
}

// SearchKey returns the cache key for a normalized query:
// "{prefix}:{gridKey}:{hash}". Two queries that differ only beyond the 4th
// coordinate decimal, or only in filter order or text casing, produce the same
// key. Clamp metadata is deliberately excluded.
func (p *KeyPolicy) SearchKey(q search.LocationQuery) string {
	lat := geo.Quantize(q.Latitude, p.cfg.CoordPlaces)
	lng := geo.Quantize(q.Longitude, p.cfg.CoordPlaces)

	var b strings.Builder
	fmt.Fprintf(&b, "%.*f|%.*f|%.2f|", p.cfg.CoordPlaces, lat, p.cfg.CoordPlaces, lng, q.RadiusKm)
	b.WriteString(canonicalSet(q.Categories))
	b.WriteByte('|')
	b.WriteString(canonicalSet(q.Amenities))
	b.WriteByte('|')
	b.WriteString(p.normalizeText(q.Text))
	fmt.Fprintf(&b, "|%s|%d|%d|%t", q.SortBy, q.Page, q.PageSize, q.OpenOnly)
	if q.PriceRange != nil {
		fmt.Fprintf(&b, "|p%d-%d", q.PriceRange.Min, q.PriceRange.Max)
	}

	sum := sha256.Sum256([]byte(b.String()))
	return fmt.Sprintf("%s:%s:%s", p.cfg.Prefix, p.GridKey(q.Latitude, q.Longitude), hex.EncodeToString(sum[:12]))
}

// CellPrefix returns the search-key prefix covering every entry written under
// one grid cell.
func (p *KeyPolicy) CellPrefix(gridKey string) string {
	return fmt.Sprintf("%s:%s:", p.cfg.Prefix, gridKey)
}

// GridKey quantizes a point onto the coarse invalidation grid, independent of
// radius and filters.
func (p *KeyPolicy) GridKey(lat, lng float64) string {
	cellLat := geo.SnapToCell(lat, p.cfg.GridCellDegrees)
	cellLng := geo.SnapToCell(lng, p.cfg.GridCellDegrees)
	return fmt.Sprintf("g%.2f_%.2f", cellLat, cellLng)
}

// NeighboringGridKeys returns the (2r+1)x(2r+1) block of grid cells centered
// on the point, the center cell included. A business move invalidates this
// whole block because any of those cells' cached pages may have contained it.
func (p *KeyPolicy) NeighboringGridKeys(lat, lng float64) []string {
	ring := p.cfg.NeighborRing
	cell := p.cfg.GridCellDegrees

	keys := make([]string, 0, (2*ring+1)*(2*ring+1))
	for dLat := -ring; dLat <= ring; dLat++ {
		for dLng := -ring; dLng <= ring; dLng++ {
			keys = append(keys, p.GridKey(lat+float64(dLat)*cell, lng+float64(dLng)*cell))
		}
	}
	return keys
}

// normalizeText lowercases, collapses whitespace, and truncates the free-text
// fragment so trivially different spellings share a cache entry.
func (p *KeyPolicy) normalizeText(text string) string {
	fields := strings.Fields(strings.ToLower(text))
	joined := strings.Join(fields, " ")
	if len(joined) > p.cfg.MaxTextLen {
		joined = joined[:p.cfg.MaxTextLen]
	}
	return joined
}

// canonicalSet folds, sorts and dedupes a filter list so semantically equal
// filter sets always serialize identically.
func canonicalSet(values []string) string {
	if len(values) == 0 {
		return "-"
	}

	folded := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v != "" {
			folded = append(folded, v)
		}
	}
	sort.Strings(folded)

	out := folded[:0]
	var prev string
	for i, v := range folded {
		if i == 0 || v != prev {
			out = append(out, v)
		}
		prev = v
	}
	return strings.Join(out, ",")
}
