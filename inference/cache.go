package inference

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

type cacheKey struct {
	generation uint64
	record     PatientRecord
}

// predictionCache memoizes results per model generation, so entries from a
// replaced model are never served.
type predictionCache struct {
	entries *lru.Cache[cacheKey, PredictionResult]
}

func newPredictionCache(size int) (*predictionCache, error) {
	entries, err := lru.New[cacheKey, PredictionResult](size)
	if err != nil {
		return nil, err
	}
	return &predictionCache{entries: entries}, nil
}

func (c *predictionCache) get(generation uint64, record PatientRecord) (PredictionResult, bool) {
	if c == nil {
		return PredictionResult{}, false
	}
	return c.entries.Get(cacheKey{generation: generation, record: record})
}

func (c *predictionCache) add(generation uint64, record PatientRecord, result PredictionResult) {
	if c == nil {
		return
	}
	c.entries.Add(cacheKey{generation: generation, record: record}, result)
}

func (c *predictionCache) size() int {
	if c == nil {
		return 0
	}
	return c.entries.Len()
}
