package vecrag

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/vecrag/internal/app"
	"github.com/kailas-cloud/vecrag/internal/db"
	"github.com/kailas-cloud/vecrag/internal/db/memory"
	dbRedis "github.com/kailas-cloud/vecrag/internal/db/redis"
	"github.com/kailas-cloud/vecrag/internal/db/sqlite"
	"github.com/kailas-cloud/vecrag/internal/domain"
	"github.com/kailas-cloud/vecrag/internal/domain/search/request"
)

const defaultReadinessTimeout = 10 * time.Second

// Client is the vecrag SDK entry point.
type Client struct {
	database *sqlite.DB
	cache    db.Store // nil when caching is disabled
	svc      *app.App
	obs      *observer

	stopReset context.CancelFunc
	resetDone chan struct{}
}

// New opens the database, connects to the cache and starts the quota reset loop.
// The provided context is used for migrations and the cache readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := defaultConfig()
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.embedder == nil {
		return nil, errors.New("vecrag: embedder required (use WithEmbedder)")
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	database, err := sqlite.Open(ctx, sqlite.Config{Path: cfg.dbPath})
	if err != nil {
		return nil, fmt.Errorf("vecrag: open database: %w", err)
	}

	cache, err := createCache(cfg)
	if err != nil {
		_ = database.Close()
		return nil, err
	}
	if cache != nil {
		if err := cache.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
			cache.Close()
			_ = database.Close()
			return nil, fmt.Errorf("vecrag: cache not ready: %w", err)
		}
	}

	c, err := wireClient(database, cache, cfg, obs)
	if err != nil {
		if cache != nil {
			cache.Close()
		}
		_ = database.Close()
		return nil, err
	}
	return c, nil
}

func createCache(cfg *clientConfig) (db.Store, error) {
	switch cfg.cacheDriver {
	case "":
		return nil, nil
	case "memory":
		return memory.NewStore(), nil
	case "redis":
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.cacheAddrs,
			Password: cfg.password,
		})
		if err != nil {
			return nil, fmt.Errorf("vecrag: create redis store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("vecrag: unknown cache driver %q", cfg.cacheDriver)
	}
}

func wireClient(database *sqlite.DB, cache db.Store, cfg *clientConfig, obs *observer) (*Client, error) {
	var gen domain.Generator
	if cfg.generator != nil {
		gen = &generatorAdapter{inner: cfg.generator}
	}

	svc, err := app.Wire(app.Deps{
		DB:            database,
		Cache:         cache,
		Embedder:      &embedderAdapter{inner: cfg.embedder},
		Generator:     gen,
		QuotaCeiling:  cfg.quotaCeiling,
		ResetInterval: cfg.resetInterval,
		CacheTTL:      cfg.cacheTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("vecrag: %w", err)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		svc.Resetter.Run(runCtx)
	}()

	return &Client{
		database:  database,
		cache:     cache,
		svc:       svc,
		obs:       obs,
		stopReset: cancel,
		resetDone: done,
	}, nil
}

// Close stops the reset loop and releases all resources.
func (c *Client) Close() error {
	c.stopReset()
	<-c.resetDone
	if c.cache != nil {
		c.cache.Close()
	}
	if err := c.database.Close(); err != nil {
		return fmt.Errorf("vecrag: close database: %w", err)
	}
	return nil
}

// Ping checks database and cache connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	call := c.obs.begin("ping", "")
	defer func() { c.obs.end(call, err) }()

	if err = c.database.Ping(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	if c.cache != nil {
		if err = c.cache.Ping(ctx); err != nil {
			return fmt.Errorf("ping cache: %w", err)
		}
	}
	return nil
}

// Store embeds text and persists it, returning the new document ID.
func (c *Client) Store(ctx context.Context, text string) (id int64, err error) {
	call := c.obs.begin("store", "")
	defer func() { c.obs.end(call, err) }()

	stored, err := c.svc.Documents.Store(ctx, text)
	if err != nil {
		return 0, err
	}
	call.usage = stored.Usage
	return stored.ID, nil
}

// Search ranks stored documents against the query text.
// Counts against the user's quota even when the result is served from cache.
func (c *Client) Search(ctx context.Context, req SearchRequest) (resp SearchResponse, err error) {
	call := c.obs.begin("search", req.UserID)
	defer func() { c.obs.end(call, err) }()

	r, err := request.New(req.UserID, req.Text, req.TopK, req.Threshold)
	if err != nil {
		return SearchResponse{}, err
	}

	out, err := c.svc.Search.Search(ctx, r)
	if err != nil {
		return SearchResponse{}, err
	}
	call.cacheHit = out.CacheHit
	call.usage = out.Usage

	results := make([]SearchResult, len(out.Results))
	for i := range out.Results {
		res := &out.Results[i]
		results[i] = SearchResult{
			DocumentID: res.DocumentID(),
			Text:       res.Text(),
			Similarity: res.Similarity(),
		}
	}
	return SearchResponse{
		Results:       results,
		InferenceTime: out.InferenceTime,
		CacheHit:      out.CacheHit,
		Usage:         out.Usage,
	}, nil
}

// Count returns the number of stored documents.
func (c *Client) Count(ctx context.Context) (int, error) {
	return c.svc.Store.Count(ctx)
}

// Chat answers message using the best matching documents as context.
func (c *Client) Chat(ctx context.Context, userID, message string) (reply string, err error) {
	call := c.obs.begin("chat", userID)
	defer func() { c.obs.end(call, err) }()

	r, err := request.NewChat(userID, message, nil)
	if err != nil {
		return "", err
	}

	out, err := c.svc.Chat.Chat(ctx, r)
	if err != nil {
		return "", err
	}
	call.usage = out.Usage
	return out.Text, nil
}

// RemainingQuota returns how many search or chat requests userID has left in the current window.
func (c *Client) RemainingQuota(ctx context.Context, userID string) (int, error) {
	return c.svc.Quota.Remaining(ctx, userID)
}

// ResetQuotas clears every user's counter immediately, ahead of the scheduled reset.
func (c *Client) ResetQuotas(ctx context.Context) (err error) {
	call := c.obs.begin("reset_quotas", "")
	defer func() { c.obs.end(call, err) }()

	if _, err = c.svc.Quota.ResetAll(ctx); err != nil {
		return fmt.Errorf("reset quotas: %w", err)
	}
	return nil
}

// Health checks the health of all system components.
func (c *Client) Health(ctx context.Context) HealthStatus {
	report := c.svc.Health.Check(ctx)
	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}
	return HealthStatus{
		Status: string(report.Status),
		Checks: checks,
	}
}
