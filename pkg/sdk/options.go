package vecrag

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	dbPath string

	cacheDriver string // "memory", "redis" or "" (no result cache)
	cacheAddrs  []string
	password    string
	cacheTTL    time.Duration

	embedder  Embedder
	generator Generator

	quotaCeiling  int
	resetInterval time.Duration

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

func defaultConfig() *clientConfig {
	return &clientConfig{
		dbPath:      ":memory:",
		cacheDriver: "memory",
	}
}

// WithSQLite stores documents and quota counters in the SQLite file at path.
// Defaults to a private in-memory database.
func WithSQLite(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.dbPath = path
	})
}

// WithRedis caches search results in a Redis or Valkey instance.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.cacheDriver = "redis"
		c.cacheAddrs = []string{addr}
		c.password = password
	})
}

// WithMemoryCache caches search results in process memory (default).
func WithMemoryCache() Option {
	return optionFunc(func(c *clientConfig) {
		c.cacheDriver = "memory"
	})
}

// WithoutCache disables the search result cache.
func WithoutCache() Option {
	return optionFunc(func(c *clientConfig) {
		c.cacheDriver = ""
	})
}

// WithCacheTTL sets how long search results stay cached. Default: 1h.
func WithCacheTTL(ttl time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.cacheTTL = ttl
	})
}

// WithEmbedder sets the text embedding provider. Required.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
	})
}

// WithGenerator sets the text generation provider used by Chat.
// Without it Chat fails with ErrGenerationProviderError.
func WithGenerator(g Generator) Option {
	return optionFunc(func(c *clientConfig) {
		c.generator = g
	})
}

// WithQuota sets the per-user request ceiling and its reset interval.
// Defaults: 5 requests per 24h.
func WithQuota(ceiling int, resetInterval time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.quotaCeiling = ceiling
		c.resetInterval = resetInterval
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
