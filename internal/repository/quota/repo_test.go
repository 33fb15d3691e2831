package quota

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/vecrag/internal/db/sqlite"
)

func setupRepo(t *testing.T) *Repo {
	t.Helper()
	d, err := sqlite.Open(context.Background(), sqlite.Config{Path: filepath.Join(t.TempDir(), "quota.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return New(d.Conn())
}

func TestIncrementBelow_UpToCeiling(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		ok, err := repo.IncrementBelow(ctx, "alice", 5)
		require.NoError(t, err)
		assert.True(t, ok, "request %d should be accepted", i)
	}

	ok, err := repo.IncrementBelow(ctx, "alice", 5)
	require.NoError(t, err)
	assert.False(t, ok, "sixth request should be rejected")

	n, err := repo.Count(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 5, n, "rejected request must not increment")
}

func TestIncrementBelow_UsersIndependent(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	ok, err := repo.IncrementBelow(ctx, "alice", 1)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = repo.IncrementBelow(ctx, "bob", 1)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestIncrementBelow_ZeroCeiling(t *testing.T) {
	repo := setupRepo(t)

	ok, err := repo.IncrementBelow(context.Background(), "alice", 0)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCount_UnknownUser(t *testing.T) {
	repo := setupRepo(t)

	n, err := repo.Count(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestResetAll(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	for _, u := range []string{"alice", "alice", "bob"} {
		_, err := repo.IncrementBelow(ctx, u, 5)
		require.NoError(t, err)
	}

	reset, err := repo.ResetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), reset)

	for _, u := range []string{"alice", "bob"} {
		n, err := repo.Count(ctx, u)
		require.NoError(t, err)
		assert.Equal(t, 0, n, u)
	}

	ok, err := repo.IncrementBelow(ctx, "alice", 5)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestIncrementBelow_ConcurrentNeverExceedsCeiling(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	const (
		ceiling = 5
		callers = 40
	)
	var accepted atomic.Int32
	var wg sync.WaitGroup
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := repo.IncrementBelow(ctx, "shared", ceiling)
			if assert.NoError(t, err) && ok {
				accepted.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(ceiling), accepted.Load())
	n, err := repo.Count(ctx, "shared")
	require.NoError(t, err)
	assert.Equal(t, ceiling, n)
}
