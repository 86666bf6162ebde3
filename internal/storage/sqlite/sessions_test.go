package sqlite

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandevgo/dialogkit/internal/core"
)

func TestGetOrCreateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepo(newTestDB(t))

	first, err := repo.GetOrCreate(ctx, "s1")
	require.NoError(t, err)
	second, err := repo.GetOrCreate(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	var n int
	row, err := repo.db.QueryContext(ctx, `SELECT COUNT(*) FROM sessions WHERE session_id = 's1'`)
	require.NoError(t, err)
	defer row.Close()
	require.True(t, row.Next())
	require.NoError(t, row.Scan(&n))
	assert.Equal(t, 1, n)
}

func TestGetOrCreateGeneratesIdentifier(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepo(newTestDB(t))

	id, err := repo.GetOrCreate(ctx, "")
	require.NoError(t, err)
	require.NotEmpty(t, id)
	assert.NotContains(t, id, "-")

	other, err := repo.GetOrCreate(ctx, "")
	require.NoError(t, err)
	assert.NotEqual(t, id, other)
}

func TestGetOrCreateConcurrentCreators(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepo(newTestDB(t))

	const callers = 8
	ids := make([]string, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ids[i], errs[i] = repo.GetOrCreate(ctx, "racing")
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "racing", ids[i])
	}
}

func TestGetReportsNotFound(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepo(newTestDB(t))

	_, err := repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestSetTags(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepo(newTestDB(t))

	_, err := repo.GetOrCreate(ctx, "tagged")
	require.NoError(t, err)
	require.NoError(t, repo.SetTags(ctx, "tagged", "support,billing"))

	s, err := repo.Get(ctx, "tagged")
	require.NoError(t, err)
	assert.Equal(t, "support,billing", s.Tags)
}

func TestSetTagsNeverAutoCreates(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepo(newTestDB(t))

	err := repo.SetTags(ctx, "missing", "tag")
	require.True(t, errors.Is(err, core.ErrNotFound))

	_, err = repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, core.ErrNotFound)
}
