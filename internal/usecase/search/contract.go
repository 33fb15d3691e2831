package search

import (
	"context"
	"time"

	"github.com/kailas-cloud/vecrag/internal/domain"
	domdoc "github.com/kailas-cloud/vecrag/internal/domain/document"
	"github.com/kailas-cloud/vecrag/internal/domain/search/result"
)

// DocumentReader loads the full corpus for a brute-force scan.
type DocumentReader interface {
	All(ctx context.Context) ([]domdoc.Document, error)
}

// QuotaChecker counts one query-type request against the user's quota.
type QuotaChecker interface {
	CheckAndIncrement(ctx context.Context, userID string) (bool, error)
}

// ResultCache stores ranked results keyed by query parameters. Failures surface as misses.
type ResultCache interface {
	Get(ctx context.Context, key string) ([]result.Result, bool)
	Put(ctx context.Context, key string, results []result.Result, ttl time.Duration)
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
