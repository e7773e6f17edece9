// internal/service/search/invalidation.go

package search

import (
	"context"
	"fmt"
	"log"

	"nearby/internal/domain/business"
	"nearby/internal/domain/search"
)

// Invalidator drops the cache entries a business change may have staled. It
// is invoked by the business-mutation collaborator after a committed write,
// never by search itself.
type Invalidator struct {
	keys   *KeyPolicy
	cache  search.CacheStore
	index  *GridKeyIndex
	logger *log.Logger
}

// NewInvalidator creates an Invalidator sharing the orchestrator's key policy
// and grid key index.
func NewInvalidator(keys *KeyPolicy, cache search.CacheStore, index *GridKeyIndex, logger *log.Logger) *Invalidator {
	if logger == nil {
		logger = log.Default()
	}
	return &Invalidator{keys: keys, cache: cache, index: index, logger: logger}
}

// OnBusinessLocationChanged invalidates the grid neighborhoods around a
// business's old and new coordinates. Either coordinate may be nil (create or
// delete). Cells with recorded search keys are deleted exactly; cells without
// fall back to a prefix scan bounded to that cell. At worst a moved business
// stays visible at its old location for up to the entry's TTL.
func (iv *Invalidator) OnBusinessLocationChanged(ctx context.Context, businessID string, oldCoords, newCoords *business.Coordinates) error {
	cells := make(map[string]struct{})
	for _, c := range []*business.Coordinates{oldCoords, newCoords} {
		if c == nil {
			continue
		}
		for _, cell := range iv.keys.NeighboringGridKeys(c.Latitude, c.Longitude) {
			cells[cell] = struct{}{}
		}
	}

	if len(cells) == 0 {
		return nil
	}

	var firstErr error
	dropped := 0
	for cell := range cells {
		keys := iv.index.Take(cell)
		if len(keys) > 0 {
			if err := iv.cache.Delete(ctx, keys...); err != nil {
				iv.logger.Printf("[invalidate] delete %d keys in %s: %v", len(keys), cell, err)
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
			dropped += len(keys)
			continue
		}

		if err := iv.cache.DeleteByPrefix(ctx, iv.keys.CellPrefix(cell)); err != nil {
			iv.logger.Printf("[invalidate] prefix scan %s: %v", cell, err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	iv.logger.Printf("[invalidate] business %s: %d cells, %d indexed keys dropped", businessID, len(cells), dropped)

	if firstErr != nil {
		return fmt.Errorf("invalidating business %s: %w", businessID, firstErr)
	}
	return nil
}
