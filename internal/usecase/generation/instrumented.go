package generation

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vecrag/internal/domain"
)

// Limiter throttles outbound provider calls.
type Limiter interface {
	Wait(ctx context.Context) error
}

// InstrumentedGenerator wraps Generator with a per-call deadline, optional throttling and logging.
type InstrumentedGenerator struct {
	inner    domain.Generator
	provider string
	model    string
	timeout  time.Duration
	limiter  Limiter
	logger   *zap.Logger
}

// NewInstrumentedGenerator wraps a generator. timeout <= 0 and a nil limiter disable the respective guard.
func NewInstrumentedGenerator(
	inner domain.Generator, provider, model string, timeout time.Duration, limiter Limiter, logger *zap.Logger,
) *InstrumentedGenerator {
	return &InstrumentedGenerator{
		inner:    inner,
		provider: provider,
		model:    model,
		timeout:  timeout,
		limiter:  limiter,
		logger:   logger,
	}
}

// Generate delegates to the inner generator and logs the outcome.
func (g *InstrumentedGenerator) Generate(
	ctx context.Context, prompt string, opts domain.GenerateOptions,
) (domain.GenerationResult, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			g.logger.Warn("Generation request throttled",
				zap.String("provider", g.provider),
				zap.Error(err),
			)
			return domain.GenerationResult{}, domain.NewGenerationProviderError(g.provider, "request throttled", err)
		}
	}

	start := time.Now()
	result, err := g.inner.Generate(ctx, prompt, opts)
	duration := time.Since(start)

	if err != nil {
		g.logger.Error("Generation request failed",
			zap.String("provider", g.provider),
			zap.String("model", g.model),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return domain.GenerationResult{}, fmt.Errorf("generate: %w", err)
	}

	g.logger.Debug("Generation request completed",
		zap.String("provider", g.provider),
		zap.String("model", g.model),
		zap.Duration("duration", duration),
		zap.Int("prompt_tokens", result.PromptTokens),
		zap.Int("completion_tokens", result.CompletionTokens),
	)
	return result, nil
}
