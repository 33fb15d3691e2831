// Package quota stores per-user request counters in SQLite.
package quota

import (
	"context"
	"database/sql"
	"errors"

	"github.com/kailas-cloud/vecrag/internal/db"
)

// conn is the consumer interface over *sql.DB (ISP).
type conn interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Repo implements usecase/quota.Store.
type Repo struct {
	conn conn
}

// New creates a quota repository.
func New(c conn) *Repo {
	return &Repo{conn: c}
}

// The upsert only touches the row when the counter is below the ceiling, so
// RowsAffected is 1 for an accepted request and 0 for a rejected one.
const incrementBelowCeiling = `
	INSERT INTO users (user_id, request_count) VALUES (?, 1)
	ON CONFLICT(user_id) DO UPDATE SET request_count = request_count + 1
	WHERE users.request_count < ?`

// IncrementBelow adds one to the user's counter if it is below ceiling.
// The user row is created on first use. Returns false when the ceiling is reached.
func (r *Repo) IncrementBelow(ctx context.Context, userID string, ceiling int) (bool, error) {
	if ceiling <= 0 {
		return false, nil
	}
	res, err := r.conn.ExecContext(ctx, incrementBelowCeiling, userID, ceiling)
	if err != nil {
		return false, &db.Error{Op: db.OpUpsert, Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, &db.Error{Op: db.OpUpsert, Err: err}
	}
	return n == 1, nil
}

// Count returns the user's current counter; unknown users have 0.
func (r *Repo) Count(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.conn.QueryRowContext(ctx, "SELECT request_count FROM users WHERE user_id = ?", userID).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, &db.Error{Op: db.OpSelect, Err: err}
	}
	return n, nil
}

// ResetAll zeroes every counter and returns how many users were reset.
func (r *Repo) ResetAll(ctx context.Context) (int64, error) {
	res, err := r.conn.ExecContext(ctx, "UPDATE users SET request_count = 0 WHERE request_count <> 0")
	if err != nil {
		return 0, &db.Error{Op: db.OpUpdate, Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, &db.Error{Op: db.OpUpdate, Err: err}
	}
	return n, nil
}
