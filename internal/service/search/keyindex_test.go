package search_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	searchsvc "nearby/internal/service/search"
)

func TestGridKeyIndex_RecordAndTake(t *testing.T) {
	ix, err := searchsvc.NewGridKeyIndex(16, 8)
	require.NoError(t, err)

	ix.Record("cell-a", "key-1")
	ix.Record("cell-a", "key-2")
	ix.Record("cell-b", "key-3")

	assert.ElementsMatch(t, []string{"key-1", "key-2"}, ix.Take("cell-a"))
	assert.Nil(t, ix.Take("cell-a"), "take removes the cell")
	assert.Equal(t, []string{"key-3"}, ix.Take("cell-b"))
}

func TestGridKeyIndex_DeduplicatesKeys(t *testing.T) {
	ix, err := searchsvc.NewGridKeyIndex(16, 8)
	require.NoError(t, err)

	ix.Record("cell", "key")
	ix.Record("cell", "key")

	assert.Equal(t, []string{"key"}, ix.Take("cell"))
}

func TestGridKeyIndex_EvictsOldestKeyAtCapacity(t *testing.T) {
	ix, err := searchsvc.NewGridKeyIndex(16, 3)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		ix.Record("cell", fmt.Sprintf("key-%d", i))
	}

	assert.Equal(t, []string{"key-2", "key-3", "key-4"}, ix.Take("cell"))
}

func TestGridKeyIndex_BoundedCellCount(t *testing.T) {
	ix, err := searchsvc.NewGridKeyIndex(4, 8)
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		ix.Record(fmt.Sprintf("cell-%d", i), "key")
	}

	assert.LessOrEqual(t, ix.Len(), 4)
}

func TestGridKeyIndex_ConcurrentAccess(t *testing.T) {
	ix, err := searchsvc.NewGridKeyIndex(64, 16)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				cell := fmt.Sprintf("cell-%d", i%10)
				ix.Record(cell, fmt.Sprintf("key-%d-%d", g, i))
				if i%7 == 0 {
					ix.Take(cell)
				}
			}
		}(g)
	}
	wg.Wait()

	assert.LessOrEqual(t, ix.Len(), 64)
}
