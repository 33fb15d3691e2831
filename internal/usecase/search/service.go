package search

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/vecrag/internal/domain"
	"github.com/kailas-cloud/vecrag/internal/domain/search/request"
	"github.com/kailas-cloud/vecrag/internal/domain/search/result"
	"github.com/kailas-cloud/vecrag/internal/domain/similarity"
)

// Service handles quota-guarded, cached semantic retrieval.
type Service struct {
	docs     DocumentReader
	quota    QuotaChecker
	cache    ResultCache
	embed    Embedder
	cacheTTL time.Duration
	now      func() time.Time
}

// New creates a search service. cache may be nil to disable result caching.
func New(docs DocumentReader, quota QuotaChecker, cache ResultCache, embed Embedder, cacheTTL time.Duration) *Service {
	return &Service{
		docs:     docs,
		quota:    quota,
		cache:    cache,
		embed:    embed,
		cacheTTL: cacheTTL,
		now:      time.Now,
	}
}

// WithClock overrides the clock used to measure inference time.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Search counts the request against the user's quota, embeds the query and returns
// the topK documents above threshold. A cache hit reports zero inference time.
func (s *Service) Search(ctx context.Context, req request.Request) (result.Response, error) {
	start := s.now()

	ok, err := s.quota.CheckAndIncrement(ctx, req.UserID())
	if err != nil {
		return result.Response{}, fmt.Errorf("check quota: %w", err)
	}
	if !ok {
		return result.Response{}, domain.ErrQuotaExceeded
	}

	embResult, err := s.embed.Embed(ctx, req.Query())
	if err != nil {
		return result.Response{}, fmt.Errorf("vectorize query: %w", err)
	}
	usage := domain.TokenUsage{Embedding: embResult.TotalTokens}

	key := req.CacheKey()
	if s.cache != nil {
		if cached, hit := s.cache.Get(ctx, key); hit {
			return result.Response{Results: cached, CacheHit: true, Usage: usage}, nil
		}
	}

	docs, err := s.docs.All(ctx)
	if err != nil {
		return result.Response{}, fmt.Errorf("load documents: %w", err)
	}

	results, err := similarity.RankAndFilter(embResult.Embedding, docs, req.Threshold(), req.TopK())
	if err != nil {
		return result.Response{}, fmt.Errorf("rank documents: %w", err)
	}

	if s.cache != nil {
		s.cache.Put(ctx, key, results, s.cacheTTL)
	}

	return result.Response{
		Results:       results,
		InferenceTime: s.now().Sub(start).Seconds(),
		Usage:         usage,
	}, nil
}
