package transform

import (
	"github.com/dgraph-io/ristretto"
	"github.com/cespare/xxhash/v2"
)

// outputCache memoizes per-module transform results, including negative
// ("unmodified") results, keyed by a content hash of importer + source.
type outputCache struct {
	cache *ristretto.Cache
}

// cachedTransform wraps the result so that a nil output (module unmodified)
// is still a cache hit.
type cachedTransform struct {
	output *Output
}

func newOutputCache(maxCost int64) (*outputCache, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e6,
		MaxCost:     maxCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &outputCache{cache: cache}, nil
}

func (c *outputCache) get(importer string, code string) (*Output, bool) {
	v, ok := c.cache.Get(contentKey(importer, code))
	if !ok {
		return nil, false
	}
	return v.(*cachedTransform).output, true
}

func (c *outputCache) put(importer string, code string, output *Output) {
	c.cache.Set(contentKey(importer, code), &cachedTransform{output: output}, int64(len(code)))
}

func contentKey(importer string, code string) uint64 {
	h := xxhash.New()
	h.WriteString(importer)
	h.Write([]byte{0})
	h.WriteString(code)
	return h.Sum64()
}
