package pipeline

import (
	"crypto/sha256"
	"encoding/hex"

	lru "github.com/hashicorp/golang-lru/v2"
)

// datasetKey identifies one parsed source by name and content hash, so an
// unchanged file is not parsed again on the next cycle.
func datasetKey(source string, data []byte) string {
	sum := sha256.Sum256(data)
	return source + "@" + hex.EncodeToString(sum[:])
}

// datasetCache holds recently loaded sources. Entries are immutable and
// replaced wholesale; the underlying LRU is safe for concurrent use by the
// source loaders.
type datasetCache struct {
	entries *lru.Cache[string, loadedSource]
}

func newDatasetCache(maxEntries int) *datasetCache {
	entries, err := lru.New[string, loadedSource](max(maxEntries, 1))
	if err != nil {
		// Only a non-positive size is rejected, and the size is clamped above.
		panic(err)
	}
	return &datasetCache{entries: entries}
}

func (c *datasetCache) get(key string) (loadedSource, bool) {
	return c.entries.Get(key)
}

func (c *datasetCache) put(key string, value loadedSource) {
	c.entries.Add(key, value)
}

func (c *datasetCache) size() int {
	return c.entries.Len()
}
