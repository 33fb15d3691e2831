package result

import "github.com/kailas-cloud/vecrag/internal/domain"

// Result is a single ranked search hit.
type Result struct {
	documentID int64
	text       string
	similarity float64
}

// New creates a search result.
func New(documentID int64, text string, similarity float64) Result {
	return Result{documentID: documentID, text: text, similarity: similarity}
}

// DocumentID returns the matched document identifier.
func (r *Result) DocumentID() int64 { return r.documentID }

// Text returns the matched document text.
func (r *Result) Text() string { return r.text }

// Similarity returns the cosine similarity to the query.
func (r *Result) Similarity() float64 { return r.similarity }

// Response is the outcome of a retrieval call.
// InferenceTime is wall-clock seconds spent; zero when served from cache.
type Response struct {
	Results       []Result
	InferenceTime float64
	CacheHit      bool
	Usage         domain.TokenUsage
}
