package journal

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	store := newTestSQLiteStore(t)

	started := time.Now().UTC().Truncate(time.Millisecond)
	err := store.Append(context.Background(), Entry{
		Registry:  "app",
		Key:       "db",
		Outcome:   OutcomeCreated,
		StartedAt: started,
		Duration:  125 * time.Millisecond,
		Waiters:   3,
	})
	require.NoError(t, err)

	entries, err := store.ByKey(context.Background(), "app", "db")
	require.NoError(t, err)
	require.Len(t, entries, 1)

	e := entries[0]
	assert.Contains(t, e.ID, "jrn-")
	assert.Equal(t, "app", e.Registry)
	assert.Equal(t, "db", e.Key)
	assert.Equal(t, OutcomeCreated, e.Outcome)
	assert.True(t, e.StartedAt.Equal(started), "got %v want %v", e.StartedAt, started)
	assert.Equal(t, 125*time.Millisecond, e.Duration)
	assert.Equal(t, 3, e.Waiters)
	assert.Empty(t, e.Error)
}

func TestSQLiteStoreFailedEntry(t *testing.T) {
	store := newTestSQLiteStore(t)

	err := store.Append(context.Background(), Entry{
		Registry:  "app",
		Key:       "db",
		Outcome:   OutcomeFailed,
		StartedAt: time.Now(),
		Error:     "connect refused",
	})
	require.NoError(t, err)

	entries, err := store.ByKey(context.Background(), "app", "db")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, OutcomeFailed, entries[0].Outcome)
	assert.Equal(t, "connect refused", entries[0].Error)
}

func TestSQLiteStoreRecentNewestFirst(t *testing.T) {
	store := newTestSQLiteStore(t)

	base := time.Now().UTC()
	for i, key := range []string{"a", "b", "c"} {
		require.NoError(t, store.Append(context.Background(), Entry{
			Registry:  "app",
			Key:       key,
			Outcome:   OutcomeCreated,
			StartedAt: base.Add(time.Duration(i) * time.Second),
		}))
	}

	entries, err := store.Recent(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "c", entries[0].Key)
	assert.Equal(t, "b", entries[1].Key)

	entries, err = store.Recent(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestSQLiteStoreByKeyScopedToRegistry(t *testing.T) {
	store := newTestSQLiteStore(t)

	require.NoError(t, store.Append(context.Background(), Entry{
		Registry: "app", Key: "db", Outcome: OutcomeCreated, StartedAt: time.Now(),
	}))
	require.NoError(t, store.Append(context.Background(), Entry{
		Registry: "test", Key: "db", Outcome: OutcomeCreated, StartedAt: time.Now(),
	}))

	entries, err := store.ByKey(context.Background(), "app", "db")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestSQLiteStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")

	store, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Append(context.Background(), Entry{
		Registry: "app", Key: "db", Outcome: OutcomeCreated, StartedAt: time.Now(),
	}))
	require.NoError(t, store.Close())

	store, err = NewSQLiteStore(path)
	require.NoError(t, err)
	defer store.Close()

	entries, err := store.ByKey(context.Background(), "app", "db")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestSQLiteStoreClosed(t *testing.T) {
	store := newTestSQLiteStore(t)
	require.NoError(t, store.Close())
	require.NoError(t, store.Close(), "double close must be a no-op")

	err := store.Append(context.Background(), Entry{Registry: "app", Key: "k"})
	assert.ErrorIs(t, err, ErrStoreClosed)

	_, err = store.Recent(context.Background(), 1)
	assert.ErrorIs(t, err, ErrStoreClosed)
}
