package document

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/vecrag/internal/domain"
	domdoc "github.com/kailas-cloud/vecrag/internal/domain/document"
)

// Service ingests documents with automatic vectorization.
type Service struct {
	repo     Repository
	embedder Embedder
	stored   prometheus.Counter
}

// New creates a document service. stored may be nil.
func New(repo Repository, embedder Embedder, stored prometheus.Counter) *Service {
	return &Service{repo: repo, embedder: embedder, stored: stored}
}

// Stored reports a persisted document and the tokens spent embedding it.
type Stored struct {
	ID    int64
	Usage domain.TokenUsage
}

// Store embeds text and persists it.
func (s *Service) Store(ctx context.Context, text string) (Stored, error) {
	if err := domdoc.ValidateText(text); err != nil {
		return Stored{}, domain.NewValidationError("%s", err.Error())
	}

	result, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return Stored{}, fmt.Errorf("vectorize document: %w", err)
	}

	doc, err := domdoc.New(text, result.Embedding)
	if err != nil {
		return Stored{}, domain.NewEmbeddingProviderError("", "empty embedding returned", err)
	}

	id, err := s.repo.Insert(ctx, &doc)
	if err != nil {
		return Stored{}, fmt.Errorf("insert document: %w", err)
	}

	if s.stored != nil {
		s.stored.Inc()
	}
	return Stored{ID: id, Usage: domain.TokenUsage{Embedding: result.TotalTokens}}, nil
}
