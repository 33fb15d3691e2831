package chat

import (
	"context"

	"github.com/kailas-cloud/vecrag/internal/domain"
	domdoc "github.com/kailas-cloud/vecrag/internal/domain/document"
)

// DocumentReader loads the full corpus for a brute-force scan.
type DocumentReader interface {
	All(ctx context.Context) ([]domdoc.Document, error)
}

// QuotaChecker counts one query-type request against the user's quota.
type QuotaChecker interface {
	CheckAndIncrement(ctx context.Context, userID string) (bool, error)
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Generator produces the assistant reply.
type Generator interface {
	Generate(ctx context.Context, prompt string, opts domain.GenerateOptions) (domain.GenerationResult, error)
}
