package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := OpenSQLite(filepath.Join(t.TempDir(), "counters.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestOpenSQLite_RequiresPath(t *testing.T) {
	_, err := OpenSQLite("")
	require.Error(t, err)
}

func TestSQLite_AbsentConversationDefaultsToZero(t *testing.T) {
	store := openTestStore(t)

	turns, err := store.Get(context.Background(), "missing")
	require.NoError(t, err)
	require.Zero(t, turns)
}

func TestSQLite_SetIsInvisibleUntilCommit(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "conv-1", 1))

	turns, err := store.Get(ctx, "conv-1")
	require.NoError(t, err)
	require.Zero(t, turns)

	require.NoError(t, store.Commit(ctx))

	turns, err = store.Get(ctx, "conv-1")
	require.NoError(t, err)
	require.Equal(t, 1, turns)
}

func TestSQLite_CommitUpsertsAndClearsBuffer(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for n := 1; n <= 3; n++ {
		require.NoError(t, store.Set(ctx, "conv-1", n))
		require.NoError(t, store.Commit(ctx))
	}

	turns, err := store.Get(ctx, "conv-1")
	require.NoError(t, err)
	require.Equal(t, 3, turns)

	// Nothing pending: commit is a no-op.
	require.NoError(t, store.Commit(ctx))
}

func TestSQLite_CountersAreKeyedByConversation(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "conv-a", 5))
	require.NoError(t, store.Set(ctx, "conv-b", 1))
	require.NoError(t, store.Commit(ctx))

	turns, err := store.Get(ctx, "conv-a")
	require.NoError(t, err)
	require.Equal(t, 5, turns)

	turns, err = store.Get(ctx, "conv-b")
	require.NoError(t, err)
	require.Equal(t, 1, turns)
}
