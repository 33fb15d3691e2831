package search

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vecrag/internal/db/memory"
	"github.com/kailas-cloud/vecrag/internal/db/sqlite"
	"github.com/kailas-cloud/vecrag/internal/domain"
	domdoc "github.com/kailas-cloud/vecrag/internal/domain/document"
	"github.com/kailas-cloud/vecrag/internal/domain/search/request"
	"github.com/kailas-cloud/vecrag/internal/domain/search/result"
	docrepo "github.com/kailas-cloud/vecrag/internal/repository/document"
	"github.com/kailas-cloud/vecrag/internal/repository/rescache"
)

// --- Mocks ---

type mockDocs struct {
	docs  []domdoc.Document
	err   error
	calls int
}

func (m *mockDocs) All(_ context.Context) ([]domdoc.Document, error) {
	m.calls++
	return m.docs, m.err
}

type mockQuota struct {
	allow bool
	err   error
	calls int
}

func (m *mockQuota) CheckAndIncrement(_ context.Context, _ string) (bool, error) {
	m.calls++
	return m.allow, m.err
}

type mockCache struct {
	entries map[string][]result.Result
	ttl     time.Duration
	puts    int
}

func newMockCache() *mockCache { return &mockCache{entries: map[string][]result.Result{}} }

func (m *mockCache) Get(_ context.Context, key string) ([]result.Result, bool) {
	r, ok := m.entries[key]
	return r, ok
}

func (m *mockCache) Put(_ context.Context, key string, results []result.Result, ttl time.Duration) {
	m.puts++
	m.ttl = ttl
	m.entries[key] = results
}

// mockEmbedder maps known texts to fixed vectors.
type mockEmbedder struct {
	vectors map[string][]float32
	err     error
	calls   int
}

func (m *mockEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	m.calls++
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	v, ok := m.vectors[text]
	if !ok {
		v = []float32{0, 0, 1}
	}
	return domain.EmbeddingResult{Embedding: v, TotalTokens: 3}, nil
}

// stepClock advances by step on every call.
func stepClock(step time.Duration) func() time.Time {
	t := time.Unix(1_700_000_000, 0)
	return func() time.Time {
		t = t.Add(step)
		return t
	}
}

func corpus() []domdoc.Document {
	return []domdoc.Document{
		domdoc.Reconstruct(1, "cats", []float32{1, 0, 0}),
		domdoc.Reconstruct(2, "kittens", []float32{0.9, 0.1, 0}),
		domdoc.Reconstruct(3, "dogs", []float32{0, 1, 0}),
	}
}

func mustRequest(t *testing.T, user, query string, topK *int, threshold *float64) request.Request {
	t.Helper()
	r, err := request.New(user, query, topK, threshold)
	if err != nil {
		t.Fatalf("request.New: %v", err)
	}
	return r
}

func ptr[T any](v T) *T { return &v }

// --- Tests ---

func TestSearch_RanksAndCaches(t *testing.T) {
	docs := &mockDocs{docs: corpus()}
	cache := newMockCache()
	emb := &mockEmbedder{vectors: map[string][]float32{"feline": {1, 0, 0}}}
	svc := New(docs, &mockQuota{allow: true}, cache, emb, time.Hour).WithClock(stepClock(250 * time.Millisecond))

	resp, err := svc.Search(context.Background(), mustRequest(t, "u1", "feline", nil, nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Results) != 2 {
		t.Fatalf("got %d results, want 2", len(resp.Results))
	}
	if resp.Results[0].DocumentID() != 1 || resp.Results[1].DocumentID() != 2 {
		t.Errorf("unexpected order: %d, %d", resp.Results[0].DocumentID(), resp.Results[1].DocumentID())
	}
	if resp.InferenceTime != 0.25 {
		t.Errorf("inference time = %v, want 0.25", resp.InferenceTime)
	}
	if resp.CacheHit {
		t.Error("first call must not be a cache hit")
	}
	if cache.puts != 1 || cache.ttl != time.Hour {
		t.Errorf("cache puts = %d ttl = %v", cache.puts, cache.ttl)
	}
}

func TestSearch_CacheHitHasZeroInferenceTime(t *testing.T) {
	docs := &mockDocs{docs: corpus()}
	cache := newMockCache()
	emb := &mockEmbedder{vectors: map[string][]float32{"feline": {1, 0, 0}}}
	svc := New(docs, &mockQuota{allow: true}, cache, emb, time.Hour).WithClock(stepClock(time.Second))
	req := mustRequest(t, "u1", "feline", nil, nil)

	first, err := svc.Search(context.Background(), req)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	second, err := svc.Search(context.Background(), req)
	if err != nil {
		t.Fatalf("second: %v", err)
	}

	if !second.CacheHit || second.InferenceTime != 0 {
		t.Errorf("second call: hit=%v inference=%v", second.CacheHit, second.InferenceTime)
	}
	if len(first.Results) != len(second.Results) {
		t.Fatalf("result lengths differ: %d vs %d", len(first.Results), len(second.Results))
	}
	for i := range first.Results {
		if first.Results[i] != second.Results[i] {
			t.Errorf("result %d differs", i)
		}
	}
	if docs.calls != 1 {
		t.Errorf("store scanned %d times, want 1", docs.calls)
	}
	if emb.calls != 2 {
		t.Errorf("embedder called %d times, want 2", emb.calls)
	}
}

func TestSearch_QuotaExceeded(t *testing.T) {
	emb := &mockEmbedder{}
	docs := &mockDocs{}
	svc := New(docs, &mockQuota{allow: false}, newMockCache(), emb, time.Hour)

	_, err := svc.Search(context.Background(), mustRequest(t, "u1", "q", nil, nil))
	if !errors.Is(err, domain.ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}
	if emb.calls != 0 || docs.calls != 0 {
		t.Error("no provider or store call after quota rejection")
	}
}

func TestSearch_QuotaError(t *testing.T) {
	svc := New(&mockDocs{}, &mockQuota{err: errors.New("locked")}, nil, &mockEmbedder{}, time.Hour)
	_, err := svc.Search(context.Background(), mustRequest(t, "u1", "q", nil, nil))
	if err == nil || errors.Is(err, domain.ErrQuotaExceeded) {
		t.Fatalf("expected internal error, got %v", err)
	}
}

func TestSearch_EmbedError(t *testing.T) {
	emb := &mockEmbedder{err: domain.NewEmbeddingProviderError("cohere", "status 500", nil)}
	docs := &mockDocs{}
	svc := New(docs, &mockQuota{allow: true}, newMockCache(), emb, time.Hour)

	_, err := svc.Search(context.Background(), mustRequest(t, "u1", "q", nil, nil))
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("expected ErrEmbeddingProviderError, got %v", err)
	}
	if docs.calls != 0 {
		t.Error("store must not be scanned on provider failure")
	}
}

func TestSearch_EmptyStore(t *testing.T) {
	svc := New(&mockDocs{}, &mockQuota{allow: true}, newMockCache(), &mockEmbedder{}, time.Hour)

	resp, err := svc.Search(context.Background(), mustRequest(t, "u1", "q", nil, nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Results == nil || len(resp.Results) != 0 {
		t.Errorf("expected empty non-nil results, got %v", resp.Results)
	}
}

func TestSearch_ThresholdOneExcludesAll(t *testing.T) {
	emb := &mockEmbedder{vectors: map[string][]float32{"feline": {1, 0, 0}}}
	svc := New(&mockDocs{docs: corpus()}, &mockQuota{allow: true}, nil, emb, time.Hour)

	resp, err := svc.Search(context.Background(), mustRequest(t, "u1", "feline", nil, ptr(1.0)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Results) != 0 {
		t.Errorf("expected no results above 1.0, got %d", len(resp.Results))
	}
}

func TestSearch_TopKLimits(t *testing.T) {
	emb := &mockEmbedder{vectors: map[string][]float32{"feline": {1, 0, 0}}}
	svc := New(&mockDocs{docs: corpus()}, &mockQuota{allow: true}, nil, emb, time.Hour)

	resp, err := svc.Search(context.Background(), mustRequest(t, "u1", "feline", ptr(1), nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Results) != 1 || resp.Results[0].DocumentID() != 1 {
		t.Errorf("unexpected results: %+v", resp.Results)
	}
}

func TestSearch_StoreError(t *testing.T) {
	storeErr := errors.New("no such table")
	svc := New(&mockDocs{err: storeErr}, &mockQuota{allow: true}, nil, &mockEmbedder{}, time.Hour)

	_, err := svc.Search(context.Background(), mustRequest(t, "u1", "q", nil, nil))
	if !errors.Is(err, storeErr) {
		t.Fatalf("expected store error, got %v", err)
	}
}

func TestSearch_DimMismatch(t *testing.T) {
	emb := &mockEmbedder{vectors: map[string][]float32{"q": {1, 0}}}
	svc := New(&mockDocs{docs: corpus()}, &mockQuota{allow: true}, nil, emb, time.Hour)

	_, err := svc.Search(context.Background(), mustRequest(t, "u1", "q", nil, nil))
	if !errors.Is(err, domain.ErrVectorDimMismatch) {
		t.Fatalf("expected ErrVectorDimMismatch, got %v", err)
	}
}

func TestSearch_UsageReported(t *testing.T) {
	cache := newMockCache()
	svc := New(&mockDocs{}, &mockQuota{allow: true}, cache, &mockEmbedder{}, time.Hour)

	for _, wantHit := range []bool{false, true} {
		resp, err := svc.Search(context.Background(), mustRequest(t, "u1", "q", nil, nil))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if resp.CacheHit != wantHit {
			t.Fatalf("CacheHit = %v, want %v", resp.CacheHit, wantHit)
		}
		if resp.Usage.Embedding != 3 {
			t.Errorf("embedding tokens = %d, want 3 (cache hit: %v)", resp.Usage.Embedding, wantHit)
		}
	}
}

func TestSearch_StoreThenFind(t *testing.T) {
	ctx := context.Background()
	d, err := sqlite.Open(ctx, sqlite.Config{Path: filepath.Join(t.TempDir(), "s.db")})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })

	repo := docrepo.New(d.Conn())
	for _, doc := range []struct {
		text string
		vec  []float32
	}{
		{"The Eiffel Tower is in Paris.", []float32{0.9, 0.1, 0}},
		{"Bananas are yellow.", []float32{0, 0.2, 0.9}},
	} {
		dd, err := domdoc.New(doc.text, doc.vec)
		if err != nil {
			t.Fatalf("domdoc.New: %v", err)
		}
		if _, err := repo.Insert(ctx, &dd); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	emb := &mockEmbedder{vectors: map[string][]float32{"Where is the Eiffel Tower?": {1, 0, 0}}}
	cache := rescache.New(memory.NewStore(), nil, zap.NewNop())
	svc := New(repo, &mockQuota{allow: true}, cache, emb, time.Hour)

	resp, err := svc.Search(ctx, mustRequest(t, "u1", "Where is the Eiffel Tower?", nil, nil))
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(resp.Results) != 1 {
		t.Fatalf("got %d results, want 1", len(resp.Results))
	}
	if resp.Results[0].Text() != "The Eiffel Tower is in Paris." {
		t.Errorf("unexpected top result: %q", resp.Results[0].Text())
	}

	again, err := svc.Search(ctx, mustRequest(t, "u2", "Where is the Eiffel Tower?", nil, nil))
	if err != nil {
		t.Fatalf("second search: %v", err)
	}
	if !again.CacheHit || again.InferenceTime != 0 {
		t.Error("identical query from another user should hit the cache")
	}
}
