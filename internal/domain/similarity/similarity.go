// Package similarity ranks stored documents against a query embedding.
package similarity

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/kailas-cloud/vecrag/internal/domain"
	"github.com/kailas-cloud/vecrag/internal/domain/document"
	"github.com/kailas-cloud/vecrag/internal/domain/search/result"
)

// CosineSimilarity returns dot(a,b)/(|a||b|) computed in float64.
// A zero-magnitude vector has similarity 0 with everything.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", domain.ErrVectorDimMismatch, len(a), len(b))
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0, nil
	}
	s := dot / (math.Sqrt(na) * math.Sqrt(nb))
	// rounding can push |s| slightly past 1
	return max(-1, min(1, s)), nil
}

// RankAndFilter scores every document against query, keeps those strictly above threshold,
// and returns at most topK of them by descending similarity. Equal scores order by document ID.
func RankAndFilter(query []float32, docs []document.Document, threshold float64, topK int) ([]result.Result, error) {
	if topK <= 0 || len(docs) == 0 {
		return []result.Result{}, nil
	}

	hits := make([]result.Result, 0, min(topK, len(docs)))
	for i := range docs {
		d := &docs[i]
		s, err := CosineSimilarity(query, d.Embedding())
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", d.ID(), err)
		}
		if s > threshold {
			hits = append(hits, result.New(d.ID(), d.Text(), s))
		}
	}

	slices.SortFunc(hits, func(a, b result.Result) int {
		if c := cmp.Compare(b.Similarity(), a.Similarity()); c != 0 {
			return c
		}
		return cmp.Compare(a.DocumentID(), b.DocumentID())
	})

	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}
