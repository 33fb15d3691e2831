package quota

import (
	"context"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// DefaultCeiling is the number of query-type requests a user may make per reset window.
const DefaultCeiling = 5

// Tracker enforces the per-user request ceiling shared by search and chat.
type Tracker struct {
	repo      Repository
	ceiling   int
	decisions *prometheus.CounterVec

	mu sync.Mutex
}

// NewTracker creates a Tracker. decisions may be nil.
func NewTracker(repo Repository, ceiling int, decisions *prometheus.CounterVec) *Tracker {
	return &Tracker{repo: repo, ceiling: ceiling, decisions: decisions}
}

// Ceiling returns the configured per-window limit.
func (t *Tracker) Ceiling() int { return t.ceiling }

// CheckAndIncrement counts one request for userID if the user is still below the ceiling.
// Returns false without counting when the ceiling has been reached.
func (t *Tracker) CheckAndIncrement(ctx context.Context, userID string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	ok, err := t.repo.IncrementBelow(ctx, userID, t.ceiling)
	if err != nil {
		return false, fmt.Errorf("increment quota: %w", err)
	}

	if ok {
		t.inc("allowed")
	} else {
		t.inc("rejected")
	}
	return ok, nil
}

// Remaining returns how many requests userID has left in the current window.
func (t *Tracker) Remaining(ctx context.Context, userID string) (int, error) {
	n, err := t.repo.Count(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("count quota: %w", err)
	}
	return max(t.ceiling-n, 0), nil
}

// ResetAll zeroes every user's counter and returns the number of users touched.
func (t *Tracker) ResetAll(ctx context.Context) (int64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	n, err := t.repo.ResetAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("reset quotas: %w", err)
	}
	return n, nil
}

func (t *Tracker) inc(decision string) {
	if t.decisions != nil {
		t.decisions.WithLabelValues(decision).Inc()
	}
}
