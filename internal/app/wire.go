// Package app assembles the retrieval services from their storage and provider dependencies.
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vecrag/internal/db"
	"github.com/kailas-cloud/vecrag/internal/db/sqlite"
	"github.com/kailas-cloud/vecrag/internal/domain"
	"github.com/kailas-cloud/vecrag/internal/metrics"
	documentrepo "github.com/kailas-cloud/vecrag/internal/repository/document"
	quotarepo "github.com/kailas-cloud/vecrag/internal/repository/quota"
	"github.com/kailas-cloud/vecrag/internal/repository/rescache"
	chatuc "github.com/kailas-cloud/vecrag/internal/usecase/chat"
	documentuc "github.com/kailas-cloud/vecrag/internal/usecase/document"
	healthuc "github.com/kailas-cloud/vecrag/internal/usecase/health"
	quotauc "github.com/kailas-cloud/vecrag/internal/usecase/quota"
	searchuc "github.com/kailas-cloud/vecrag/internal/usecase/search"
)

// Deps are the externally constructed collaborators.
type Deps struct {
	DB        *sqlite.DB
	Cache     db.Store
	Embedder  domain.Embedder
	Generator domain.Generator
	Logger    *zap.Logger

	QuotaCeiling  int
	ResetInterval time.Duration
	CacheTTL      time.Duration
	Chat          chatuc.Config
}

// App holds the wired services.
type App struct {
	Store     *documentrepo.Repo
	Documents *documentuc.Service
	Search    *searchuc.Service
	Chat      *chatuc.Service
	Quota     *quotauc.Tracker
	Resetter  *quotauc.Resetter
	Health    *healthuc.Service
}

// Wire builds the service graph. Zero-valued settings take their defaults.
func Wire(d Deps) (*App, error) {
	if d.DB == nil {
		return nil, fmt.Errorf("database is required")
	}
	if d.Embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.QuotaCeiling <= 0 {
		d.QuotaCeiling = quotauc.DefaultCeiling
	}
	if d.CacheTTL <= 0 {
		d.CacheTTL = rescache.DefaultTTL
	}
	if d.Chat == (chatuc.Config{}) {
		d.Chat = chatuc.DefaultConfig()
	}

	docRepo := documentrepo.New(d.DB.Conn())
	tracker := quotauc.NewTracker(quotarepo.New(d.DB.Conn()), d.QuotaCeiling, metrics.QuotaDecisionsTotal)

	var cache searchuc.ResultCache
	var cachePinger healthuc.CachePinger
	if d.Cache != nil {
		cache = rescache.New(d.Cache, metrics.SearchCacheTotal, d.Logger)
		cachePinger = d.Cache
	}

	gen := d.Generator
	if gen == nil {
		gen = unconfiguredGenerator{}
	}

	return &App{
		Store:     docRepo,
		Documents: documentuc.New(docRepo, d.Embedder, metrics.DocumentsStoredTotal),
		Search:    searchuc.New(docRepo, tracker, cache, d.Embedder, d.CacheTTL),
		Chat:      chatuc.New(docRepo, tracker, d.Embedder, gen, d.Chat),
		Quota:     tracker,
		Resetter: quotauc.NewResetter(tracker, d.ResetInterval, d.Logger,
			quotauc.WithResetCounter(metrics.QuotaResetsTotal)),
		Health: healthuc.New(d.DB, cachePinger, embeddingHealth{d.Embedder}),
	}, nil
}

// embeddingHealth reports healthy for embedders that cannot check themselves.
type embeddingHealth struct {
	embedder domain.Embedder
}

func (h embeddingHealth) HealthCheck(ctx context.Context) error {
	if hc, ok := h.embedder.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedding health check: %w", err)
		}
	}
	return nil
}

type unconfiguredGenerator struct{}

func (unconfiguredGenerator) Generate(context.Context, string, domain.GenerateOptions) (domain.GenerationResult, error) {
	return domain.GenerationResult{}, domain.NewGenerationProviderError("", "generator not configured", nil)
}
