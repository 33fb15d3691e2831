package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/kailas-cloud/vecrag/internal/domain"
	"github.com/kailas-cloud/vecrag/internal/domain/search/request"
	"github.com/kailas-cloud/vecrag/internal/domain/similarity"
)

// Generation defaults.
const (
	DefaultThreshold   = 0.1
	DefaultMaxTokens   = 150
	DefaultTemperature = float32(0.7)
)

// Config tunes retrieval and generation for chat.
type Config struct {
	Threshold   float64
	MaxTokens   int
	Temperature float32
}

// DefaultConfig returns the standard chat settings.
func DefaultConfig() Config {
	return Config{Threshold: DefaultThreshold, MaxTokens: DefaultMaxTokens, Temperature: DefaultTemperature}
}

// Service answers a user message with generation grounded in retrieved documents.
type Service struct {
	docs  DocumentReader
	quota QuotaChecker
	embed Embedder
	gen   Generator
	cfg   Config
}

// New creates a chat service.
func New(docs DocumentReader, quota QuotaChecker, embed Embedder, gen Generator, cfg Config) *Service {
	return &Service{docs: docs, quota: quota, embed: embed, gen: gen, cfg: cfg}
}

// Reply is a generated answer and the tokens spent producing it.
type Reply struct {
	Text  string
	Usage domain.TokenUsage
}

// Chat retrieves up to req.TopK() relevant documents and asks the generator to answer
// req.Query() with them as context. The similarity floor comes from Config, not from req.
// req must come from request.NewChat. Results are never cached.
func (s *Service) Chat(ctx context.Context, req request.Request) (Reply, error) {
	ok, err := s.quota.CheckAndIncrement(ctx, req.UserID())
	if err != nil {
		return Reply{}, fmt.Errorf("check quota: %w", err)
	}
	if !ok {
		return Reply{}, domain.ErrQuotaExceeded
	}

	embResult, err := s.embed.Embed(ctx, req.Query())
	if err != nil {
		return Reply{}, fmt.Errorf("vectorize message: %w", err)
	}
	usage := domain.TokenUsage{Embedding: embResult.TotalTokens}

	docs, err := s.docs.All(ctx)
	if err != nil {
		return Reply{}, fmt.Errorf("load documents: %w", err)
	}

	hits, err := similarity.RankAndFilter(embResult.Embedding, docs, s.cfg.Threshold, req.TopK())
	if err != nil {
		return Reply{}, fmt.Errorf("rank documents: %w", err)
	}

	texts := make([]string, len(hits))
	for i := range hits {
		texts[i] = hits[i].Text()
	}

	gen, err := s.gen.Generate(ctx, BuildPrompt(strings.Join(texts, "\n"), req.Query()), domain.GenerateOptions{
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: s.cfg.Temperature,
	})
	if err != nil {
		return Reply{}, fmt.Errorf("generate reply: %w", err)
	}
	usage.Prompt = gen.PromptTokens
	usage.Completion = gen.CompletionTokens

	return Reply{Text: strings.TrimSpace(gen.Text), Usage: usage}, nil
}

// BuildPrompt renders the generation prompt. An empty context still yields the full template.
func BuildPrompt(contextText, message string) string {
	return "Context:\n" + contextText + "\n\nUser: " + message + "\nAI:"
}
