package memory

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/groupmesh/core"
)

// Interface compliance (compile-time assertions)
var _ core.MemoryStore = (*InMemoryStore)(nil)

func TestGetAndPutMergeState(t *testing.T) {
	store := NewInMemoryStore()

	m, err := store.Get("s1")
	require.NoError(t, err)
	assert.Empty(t, m)

	require.NoError(t, store.Put("s1", map[string]any{"topic": "cruises", "rounds": 2}))
	require.NoError(t, store.Put("s1", map[string]any{"rounds": 3}))

	m, err = store.Get("s1")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"topic": "cruises", "rounds": 3}, m)

	// Returned map is a copy.
	m["topic"] = "changed"

	again, err := store.Get("s1")
	require.NoError(t, err)
	assert.Equal(t, "cruises", again["topic"])
}

func TestSearchMatchesSubstringIgnoringCase(t *testing.T) {
	store := NewInMemoryStore()

	require.NoError(t, store.Store("s1", "Balcony cabins start at $1,200", map[string]any{"source": "scrape"}))
	require.NoError(t, store.Store("s1", "Interior cabins start at $800", nil))

	res, err := store.Search("s1", "balcony", 5)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "Balcony cabins start at $1,200", res[0].Content)
	assert.Equal(t, 1.0, res[0].Score)
	assert.Equal(t, "scrape", res[0].Metadata["source"])

	// Empty query matches everything, in insertion order, up to the limit.
	all, err := store.Search("s1", "", 10)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Balcony cabins start at $1,200", all[0].Content)

	limited, err := store.Search("s1", "", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestDeleteNote(t *testing.T) {
	store := NewInMemoryStore()

	require.NoError(t, store.Store("s1", "first finding", nil))
	require.NoError(t, store.Store("s1", "second finding", nil))

	res, err := store.Search("s1", "first", 1)
	require.NoError(t, err)
	require.Len(t, res, 1)

	require.NoError(t, store.Delete("s1", res[0].ID))

	remaining, err := store.Search("s1", "", 10)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "second finding", remaining[0].Content)

	assert.ErrorIs(t, store.Delete("s1", res[0].ID), ErrNotFound)
	assert.ErrorIs(t, store.Delete("s2", "note_1"), ErrNotFound)
}

func TestConcurrentPutAndSearch(t *testing.T) {
	store := NewInMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, store.Put("s1", map[string]any{fmt.Sprintf("k%d", i%5): i}))
			assert.NoError(t, store.Store("s1", fmt.Sprintf("finding %d", i), nil))
			_, err := store.Search("s1", "finding", 5)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	m, err := store.Get("s1")
	require.NoError(t, err)
	assert.Len(t, m, 5)

	notes, err := store.Search("s1", "", 100)
	require.NoError(t, err)
	assert.Len(t, notes, 25)
}
