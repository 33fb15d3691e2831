package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kailas-cloud/vecrag/internal/app"
	"github.com/kailas-cloud/vecrag/internal/config"
	"github.com/kailas-cloud/vecrag/internal/db"
	"github.com/kailas-cloud/vecrag/internal/db/memory"
	dbRedis "github.com/kailas-cloud/vecrag/internal/db/redis"
	"github.com/kailas-cloud/vecrag/internal/db/sqlite"
	"github.com/kailas-cloud/vecrag/internal/domain"
	logpkg "github.com/kailas-cloud/vecrag/internal/logger"
	"github.com/kailas-cloud/vecrag/internal/metrics"
	"github.com/kailas-cloud/vecrag/internal/repository/embcache"
	chiTransport "github.com/kailas-cloud/vecrag/internal/transport/chi"
	openaiProvider "github.com/kailas-cloud/vecrag/internal/transport/openai"
	chatuc "github.com/kailas-cloud/vecrag/internal/usecase/chat"
	embeddinguc "github.com/kailas-cloud/vecrag/internal/usecase/embedding"
	generationuc "github.com/kailas-cloud/vecrag/internal/usecase/generation"
	"github.com/kailas-cloud/vecrag/internal/version"
)

func main() {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting vecrag API server",
		zap.Stringer("build", version.Get()),
		zap.String("built_at", version.Get().Date),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_path", cfg.Database.Path),
		zap.String("cache_driver", cfg.Cache.Driver),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := sqlite.Open(ctx, sqlite.Config{
		Path:          cfg.Database.Path,
		BusyTimeoutMs: cfg.Database.BusyTimeoutMs,
	})
	if err != nil {
		logger.Fatal("Failed to open database", zap.Error(err))
	}
	defer func() { _ = database.Close() }()
	logger.Info("Opened database", zap.String("path", database.Path()))

	cache, err := newCacheStore(cfg.Cache)
	if err != nil {
		logger.Fatal("Failed to create cache store", zap.Error(err))
	}
	defer cache.Close()

	if err := cache.WaitForReady(ctx, time.Duration(cfg.Cache.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Cache not ready", zap.Error(err))
	}
	logger.Info("Connected to cache")

	// Register metrics explicitly (no init())
	metrics.RegisterProviderMetrics()
	metrics.RegisterRetrievalMetrics()

	embedder := buildEmbedder(cfg.Embedding, cache, logger)
	generator := buildGenerator(cfg.Generation, logger)
	logger.Info("Providers created",
		zap.String("embedding_provider", cfg.Embedding.Provider),
		zap.String("embedding_model", cfg.Embedding.Model),
		zap.String("generation_model", cfg.Generation.Model),
	)

	services, err := app.Wire(app.Deps{
		DB:            database,
		Cache:         cache,
		Embedder:      embedder,
		Generator:     generator,
		Logger:        logger,
		QuotaCeiling:  cfg.Quota.Ceiling,
		ResetInterval: cfg.Quota.ResetInterval(),
		CacheTTL:      time.Duration(cfg.Search.CacheTTLSec) * time.Second,
		Chat: chatuc.Config{
			Threshold:   *cfg.Search.ChatThreshold,
			MaxTokens:   cfg.Generation.MaxTokens,
			Temperature: *cfg.Generation.Temperature,
		},
	})
	if err != nil {
		logger.Fatal("Failed to wire services", zap.Error(err))
	}
	if n, err := services.Store.Count(ctx); err == nil {
		logger.Info("Document store ready", zap.Int("documents", n))
	}

	resetDone := make(chan struct{})
	go func() {
		defer close(resetDone)
		services.Resetter.Run(ctx)
	}()

	server := chiTransport.NewServer(
		services.Documents, services.Search, services.Chat, services.Quota, services.Health,
	)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      chiTransport.NewRouter(server, logger),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}
	<-resetDone

	logger.Info("Server stopped gracefully")
}

func newCacheStore(cfg config.CacheConfig) (db.Store, error) {
	switch cfg.Driver {
	case config.CacheDriverRedis, config.CacheDriverValkey:
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Addrs,
			Username: cfg.Username,
			Password: cfg.Password,
			DB:       cfg.DB,
		})
		if err != nil {
			return nil, fmt.Errorf("create %s store: %w", cfg.Driver, err)
		}
		return s, nil
	case config.CacheDriverMemory:
		return memory.NewStore(), nil
	default:
		return nil, fmt.Errorf("unknown cache driver %q", cfg.Driver)
	}
}

// buildEmbedder assembles the decorator chain: OpenAI -> Cached -> Instrumented
func buildEmbedder(cfg config.EmbeddingConfig, cache db.Store, logger *zap.Logger) domain.Embedder {
	base := openaiProvider.NewEmbedder(&openaiProvider.Config{
		APIKey:     cfg.APIKey,
		BaseURL:    cfg.BaseURL,
		Model:      cfg.Model,
		Dimensions: cfg.Dimensions,
		Provider:   cfg.Provider,
		Logger:     logger,
	})

	var embedder domain.Embedder = base
	if cfg.CacheEmbeddings {
		embedder = embcache.New(base, cache, cfg.Model,
			time.Duration(cfg.CacheTTLSec)*time.Second, metrics.EmbeddingCacheTotal, logger)
	}

	opts := []embeddinguc.Option{embeddinguc.WithTimeout(time.Duration(cfg.TimeoutSec) * time.Second)}
	if l := newLimiter(cfg.RequestsPerSecond); l != nil {
		opts = append(opts, embeddinguc.WithLimiter(l))
	}
	return embeddinguc.NewInstrumentedEmbedder(embedder, cfg.Provider, cfg.Model, logger, opts...)
}

func buildGenerator(cfg config.GenerationConfig, logger *zap.Logger) domain.Generator {
	base := openaiProvider.NewGenerator(&openaiProvider.Config{
		APIKey:   cfg.APIKey,
		BaseURL:  cfg.BaseURL,
		Model:    cfg.Model,
		Provider: cfg.Provider,
		Logger:   logger,
	})

	// Pass nil interface (not typed nil pointer!) when throttling is off.
	var limiter generationuc.Limiter
	if l := newLimiter(cfg.RequestsPerSecond); l != nil {
		limiter = l
	}
	return generationuc.NewInstrumentedGenerator(
		base, cfg.Provider, cfg.Model, time.Duration(cfg.TimeoutSec)*time.Second, limiter, logger,
	)
}

// newLimiter returns a token bucket allowing rps sustained calls, or nil when rps is 0.
func newLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(rps), max(1, int(math.Ceil(rps))))
}
