package pipeline

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatasetKey_ContentSensitive(t *testing.T) {
	a := datasetKey("rates", []byte("county,rate\nFulton,30.1\n"))
	b := datasetKey("rates", []byte("county,rate\nFulton,30.2\n"))
	c := datasetKey("income", []byte("county,rate\nFulton,30.1\n"))

	assert.NotEqual(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Equal(t, a, datasetKey("rates", []byte("county,rate\nFulton,30.1\n")))
}

func TestDatasetCache_LRUEviction(t *testing.T) {
	cache := newDatasetCache(2)

	cache.put("a", loadedSource{})
	cache.put("b", loadedSource{})
	_, ok := cache.get("a") // a is now most recently used
	require.True(t, ok)

	cache.put("c", loadedSource{})

	_, ok = cache.get("b")
	assert.False(t, ok, "least recently used entry is evicted")
	_, ok = cache.get("a")
	assert.True(t, ok)
	_, ok = cache.get("c")
	assert.True(t, ok)
	assert.Equal(t, 2, cache.size())
}

func TestDatasetCache_ReplaceKeepsSize(t *testing.T) {
	cache := newDatasetCache(2)
	cache.put("a", loadedSource{})
	cache.put("a", loadedSource{trend: nil})
	assert.Equal(t, 1, cache.size())
}

func TestDatasetCache_NonPositiveSize(t *testing.T) {
	cache := newDatasetCache(0)
	cache.put("a", loadedSource{})
	cache.put("b", loadedSource{})
	assert.Equal(t, 1, cache.size())
}

func TestDatasetCache_ConcurrentLoaders(t *testing.T) {
	cache := newDatasetCache(4)

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			key := fmt.Sprintf("source-%d", i%4)
			cache.put(key, loadedSource{})
			_, _ = cache.get(key)
		}()
	}
	wg.Wait()

	assert.Equal(t, 4, cache.size())
}

func TestNextBackoff(t *testing.T) {
	assert.Equal(t, 2*initialBackoff, nextBackoff(initialBackoff, maxBackoff))
	assert.Equal(t, maxBackoff, nextBackoff(4*maxBackoff/5, maxBackoff))
	assert.Equal(t, maxBackoff, nextBackoff(maxBackoff, maxBackoff))
}
