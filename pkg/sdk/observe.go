package vecrag

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/vecrag/internal/domain"
)

// Outcomes recorded per SDK call.
const (
	outcomeOK            = "ok"
	outcomeCacheHit      = "cache_hit"
	outcomeInvalid       = "invalid"
	outcomeQuotaDenied   = "quota_denied"
	outcomeProviderError = "provider_error"
	outcomeError         = "error"
)

// classify maps a finished call onto one outcome label.
func classify(err error, cacheHit bool) string {
	switch {
	case err == nil && cacheHit:
		return outcomeCacheHit
	case err == nil:
		return outcomeOK
	case errors.Is(err, domain.ErrValidation):
		return outcomeInvalid
	case errors.Is(err, domain.ErrQuotaExceeded):
		return outcomeQuotaDenied
	case errors.Is(err, domain.ErrEmbeddingProviderError), errors.Is(err, domain.ErrGenerationProviderError):
		return outcomeProviderError
	default:
		return outcomeError
	}
}

type sdkMetrics struct {
	calls    *prometheus.CounterVec
	duration *prometheus.HistogramVec
	tokens   *prometheus.CounterVec
}

func newSDKMetrics(reg prometheus.Registerer) (*sdkMetrics, error) {
	m := &sdkMetrics{
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vecrag",
			Subsystem: "sdk",
			Name:      "calls_total",
			Help:      "SDK calls by operation and outcome (ok, cache_hit, invalid, quota_denied, provider_error, error).",
		}, []string{"operation", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "vecrag",
			Subsystem: "sdk",
			Name:      "call_duration_seconds",
			Help:      "SDK call latency by operation.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		tokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vecrag",
			Subsystem: "sdk",
			Name:      "provider_tokens_total",
			Help:      "Provider tokens spent by SDK calls, split into embedding and generation.",
		}, []string{"operation", "kind"}),
	}
	if err := registerOrReuse(reg, &m.calls); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &m.duration); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &m.tokens); err != nil {
		return nil, err
	}
	return m, nil
}

// registerOrReuse lets several clients share one registry.
func registerOrReuse[T prometheus.Collector](reg prometheus.Registerer, c *T) error {
	err := reg.Register(*c)
	if err == nil {
		return nil
	}
	var are prometheus.AlreadyRegisteredError
	if !errors.As(err, &are) {
		return fmt.Errorf("vecrag: register metric: %w", err)
	}
	existing, ok := are.ExistingCollector.(T)
	if !ok {
		return fmt.Errorf("vecrag: metric already registered with incompatible type: %T", are.ExistingCollector)
	}
	*c = existing
	return nil
}

// call collects what one SDK operation reports before it finishes.
type call struct {
	op       string
	userID   string
	start    time.Time
	cacheHit bool
	usage    domain.TokenUsage
}

// observer records SDK calls. A nil observer, logger or registry disables that sink.
type observer struct {
	logger  *slog.Logger
	metrics *sdkMetrics
}

func newObserver(logger *slog.Logger, reg prometheus.Registerer) (*observer, error) {
	o := &observer{logger: logger}
	if reg != nil {
		m, err := newSDKMetrics(reg)
		if err != nil {
			return nil, err
		}
		o.metrics = m
	}
	return o, nil
}

func (o *observer) begin(op, userID string) *call {
	return &call{op: op, userID: userID, start: time.Now()}
}

func (o *observer) end(c *call, err error) {
	if o == nil {
		return
	}
	dur := time.Since(c.start)
	outcome := classify(err, c.cacheHit)

	if o.metrics != nil {
		o.metrics.calls.WithLabelValues(c.op, outcome).Inc()
		o.metrics.duration.WithLabelValues(c.op).Observe(dur.Seconds())
		if c.usage.Embedding > 0 {
			o.metrics.tokens.WithLabelValues(c.op, "embedding").Add(float64(c.usage.Embedding))
		}
		if n := c.usage.Generation(); n > 0 {
			o.metrics.tokens.WithLabelValues(c.op, "generation").Add(float64(n))
		}
	}

	if o.logger == nil {
		return
	}
	attrs := []any{"op", c.op, "outcome", outcome, "duration", dur}
	if c.userID != "" {
		attrs = append(attrs, "user_id", c.userID)
	}
	switch outcome {
	case outcomeOK, outcomeCacheHit:
		attrs = append(attrs, "embedding_tokens", c.usage.Embedding, "generation_tokens", c.usage.Generation())
		o.logger.Debug("call completed", attrs...)
	case outcomeInvalid:
		o.logger.Debug("call rejected", append(attrs, "error", err)...)
	case outcomeQuotaDenied:
		o.logger.Info("quota denied", attrs...)
	default:
		o.logger.Warn("call failed", append(attrs, "error", err)...)
	}
}
