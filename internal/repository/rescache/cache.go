// Package rescache caches ranked search results in a key-value store.
package rescache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/vecrag/internal/db"
	"github.com/kailas-cloud/vecrag/internal/domain/search/result"
)

// DefaultTTL is how long a cached result list stays valid.
const DefaultTTL = time.Hour

// store is the consumer interface for the result cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

type cachedHit struct {
	DocumentID int64   `json:"document_id"`
	Text       string  `json:"text"`
	Similarity float64 `json:"similarity"`
}

// Cache implements usecase/search.ResultCache.
// Backend failures degrade to a miss; they never fail a search.
type Cache struct {
	store      store
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a result cache.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"), passed explicitly.
func New(s store, cacheTotal *prometheus.CounterVec, logger *zap.Logger) *Cache {
	return &Cache{store: s, cacheTotal: cacheTotal, logger: logger}
}

// Get returns the cached results for key.
func (c *Cache) Get(ctx context.Context, key string) ([]result.Result, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to read cached results", zap.String("key", key), zap.Error(err))
		}
		c.inc("miss")
		return nil, false
	}

	var hits []cachedHit
	if err := json.Unmarshal(data, &hits); err != nil {
		c.logger.Warn("Failed to parse cached results", zap.String("key", key), zap.Error(err))
		c.inc("miss")
		return nil, false
	}

	out := make([]result.Result, len(hits))
	for i, h := range hits {
		out[i] = result.New(h.DocumentID, h.Text, h.Similarity)
	}
	c.inc("hit")
	return out, true
}

// Put stores results under key for ttl.
func (c *Cache) Put(ctx context.Context, key string, results []result.Result, ttl time.Duration) {
	hits := make([]cachedHit, len(results))
	for i := range results {
		r := &results[i]
		hits[i] = cachedHit{DocumentID: r.DocumentID(), Text: r.Text(), Similarity: r.Similarity()}
	}
	data, err := json.Marshal(hits)
	if err != nil {
		c.logger.Warn("Failed to encode results for cache", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.store.SetWithTTL(ctx, key, data, ttl); err != nil {
		c.logger.Warn("Failed to cache results", zap.String("key", key), zap.Error(err))
	}
}

func (c *Cache) inc(res string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(res).Inc()
	}
}
