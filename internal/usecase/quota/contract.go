package quota

import "context"

// Repository persists per-user request counters.
type Repository interface {
	IncrementBelow(ctx context.Context, userID string, ceiling int) (bool, error)
	Count(ctx context.Context, userID string) (int, error)
	ResetAll(ctx context.Context) (int64, error)
}
