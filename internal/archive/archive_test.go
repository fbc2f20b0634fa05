package archive

import (
	"context"
	"path/filepath"
	"testing"
	"weibo-analysis/internal/comments"

	"github.com/stretchr/testify/require"
)

func TestInsert(t *testing.T) {
	ctx := context.Background()
	store, err := Open(ctx, ":memory:")
	require.NoError(t, err)
	defer store.Close()

	likes := 3
	page := []comments.Comment{
		{ID: "1", Author: "a", Text: "太棒了", Timestamp: "2023-08-12T10:00:00+08:00", LikeCount: &likes},
		{ID: "2", Author: "b", Text: "加油"},
	}

	require.NoError(t, store.Insert(ctx, "run-1", page))
	// the same page twice within a run is ignored
	require.NoError(t, store.Insert(ctx, "run-1", page))
	// another run keeps its duplicates
	require.NoError(t, store.Insert(ctx, "run-2", page[:1]))

	count, err := store.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, count)

	distinct, err := store.DistinctComments(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, distinct)
}

func TestOpenFileTwice(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "nested", "archive.db")

	store, err := Open(ctx, dsn)
	require.NoError(t, err)
	require.NoError(t, store.Insert(ctx, "run-1", []comments.Comment{{ID: "1", Text: "hi"}}))
	require.NoError(t, store.Close())

	// migrations are only applied once
	store, err = Open(ctx, dsn)
	require.NoError(t, err)
	defer store.Close()
	count, err := store.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestOpenEmptyDsn(t *testing.T) {
	_, err := Open(context.Background(), "")
	require.Error(t, err)
}
