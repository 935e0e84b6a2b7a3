package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func storesUnderTest(t *testing.T) map[string]Store {
	t.Helper()

	bolt, err := NewBoltStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { bolt.Close() })

	return map[string]Store{
		"bolt":   bolt,
		"memory": NewMemoryStore(),
	}
}

func TestStoreRoundTrip(t *testing.T) {
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.LoadSessionID()
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, store.SaveSessionID("session-1"))
			id, err := store.LoadSessionID()
			require.NoError(t, err)
			assert.Equal(t, "session-1", id)

			require.NoError(t, store.SaveSessionID("session-2"))
			id, err = store.LoadSessionID()
			require.NoError(t, err)
			assert.Equal(t, "session-2", id)

			require.NoError(t, store.ClearSessionID())
			_, err = store.LoadSessionID()
			assert.ErrorIs(t, err, ErrNotFound)

			// Clearing twice is fine
			assert.NoError(t, store.ClearSessionID())
		})
	}
}

func TestBoltStorePersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	store, err := NewBoltStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.SaveSessionID("resume-me"))
	require.NoError(t, store.Close())

	reopened, err := NewBoltStore(dir)
	require.NoError(t, err)
	defer reopened.Close()

	id, err := reopened.LoadSessionID()
	require.NoError(t, err)
	assert.Equal(t, "resume-me", id)
}

func TestBoltStoreRejectsEmptyID(t *testing.T) {
	store, err := NewBoltStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	assert.Error(t, store.SaveSessionID(""))
}
