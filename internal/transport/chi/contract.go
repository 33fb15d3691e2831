package chi

import (
	"context"

	"github.com/kailas-cloud/vecrag/internal/domain/search/request"
	"github.com/kailas-cloud/vecrag/internal/domain/search/result"
	chatuc "github.com/kailas-cloud/vecrag/internal/usecase/chat"
	documentuc "github.com/kailas-cloud/vecrag/internal/usecase/document"
	healthuc "github.com/kailas-cloud/vecrag/internal/usecase/health"
)

// DocumentStorer ingests documents.
type DocumentStorer interface {
	Store(ctx context.Context, text string) (documentuc.Stored, error)
}

// Searcher runs retrieval queries.
type Searcher interface {
	Search(ctx context.Context, req request.Request) (result.Response, error)
}

// Chatter answers messages with retrieval-augmented generation.
type Chatter interface {
	Chat(ctx context.Context, req request.Request) (chatuc.Reply, error)
}

// QuotaReader reports how many query-type requests a user has left.
type QuotaReader interface {
	Remaining(ctx context.Context, userID string) (int, error)
}

// HealthChecker aggregates component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}
