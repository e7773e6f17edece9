package search

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// GridKeyIndex remembers which search keys were written under each grid cell
// so invalidation can delete exactly those entries instead of scanning. Both
// dimensions are bounded: cells live in an LRU, and each cell keeps an
// insertion-ordered slice of keys with the oldest evicted at capacity. Safe
// for concurrent use.
type GridKeyIndex struct {
	mu          sync.Mutex
	cells       *lru.Cache[string, *cellKeys]
	keysPerCell int
}

type cellKeys struct {
	keys []string
	seen map[string]struct{}
}

// NewGridKeyIndex creates an index holding at most maxCells cells of at most
// keysPerCell keys each.
func NewGridKeyIndex(maxCells, keysPerCell int) (*GridKeyIndex, error) {
	if maxCells <= 0 {
		maxCells = 4096
	}
	if keysPerCell <= 0 {
		keysPerCell = 64
	}

	cells, err := lru.New[string, *cellKeys](maxCells)
	if err != nil {
		return nil, err
	}

	return &GridKeyIndex{cells: cells, keysPerCell: keysPerCell}, nil
}

// Record associates a search key with a grid cell.
func (ix *GridKeyIndex) Record(gridKey, searchKey string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	cell, ok := ix.cells.Get(gridKey)
	if !ok {
		cell = &cellKeys{seen: make(map[string]struct{})}
		ix.cells.Add(gridKey, cell)
	}

	if _, dup := cell.seen[searchKey]; dup {
		return
	}

	if len(cell.keys) >= ix.keysPerCell {
		oldest := cell.keys[0]
		cell.keys = cell.keys[1:]
		delete(cell.seen, oldest)
	}

	cell.keys = append(cell.keys, searchKey)
	cell.seen[searchKey] = struct{}{}
}

// Take returns the keys recorded for a cell and removes the cell from the
// index. Returns nil when nothing was recorded.
func (ix *GridKeyIndex) Take(gridKey string) []string {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	cell, ok := ix.cells.Get(gridKey)
	if !ok {
		return nil
	}
	ix.cells.Remove(gridKey)

	return cell.keys
}

// Len returns the number of cells currently tracked.
func (ix *GridKeyIndex) Len() int {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.cells.Len()
}
