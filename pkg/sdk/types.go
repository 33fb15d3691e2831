package vecrag

import "github.com/kailas-cloud/vecrag/internal/domain"

// TokenUsage counts provider tokens spent by one call.
type TokenUsage = domain.TokenUsage

// SearchRequest is a retrieval query. Nil TopK and Threshold take the defaults (5 and 0.1).
type SearchRequest struct {
	UserID    string
	Text      string
	TopK      *int
	Threshold *float64
}

// SearchResult is one ranked document.
type SearchResult struct {
	DocumentID int64
	Text       string
	Similarity float64
}

// SearchResponse holds ranked results. InferenceTime is zero for cached responses;
// Usage still counts the query embedding.
type SearchResponse struct {
	Results       []SearchResult
	InferenceTime float64
	CacheHit      bool
	Usage         TokenUsage
}

// HealthStatus represents the aggregated system health.
type HealthStatus struct {
	Status string            // "ok", "degraded"
	Checks map[string]string // component → "ok"/"error"
}
