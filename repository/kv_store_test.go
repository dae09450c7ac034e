package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseKeyValueStore(t *testing.T, kv KeyValueStore) {
	_, ok, err := kv.Get(KeyMovies)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, kv.Set(KeyMovies, `[{"id":"1"}]`))
	value, ok, err := kv.Get(KeyMovies)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[{"id":"1"}]`, value)

	// Overwrite
	require.NoError(t, kv.Set(KeyMovies, `[]`))
	value, _, err = kv.Get(KeyMovies)
	require.NoError(t, err)
	assert.Equal(t, `[]`, value)

	// Empty values are still present
	require.NoError(t, kv.Set(KeyUserName, ""))
	value, ok, err = kv.Get(KeyUserName)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, value)

	require.NoError(t, kv.Remove(KeyMovies))
	_, ok, err = kv.Get(KeyMovies)
	require.NoError(t, err)
	assert.False(t, ok)

	// Removing an absent key is fine
	assert.NoError(t, kv.Remove(KeyMovies))
	assert.NoError(t, kv.Remove("never-set"))
}

func TestSQLiteKeyValueStore(t *testing.T) {
	testDB, cleanup := setupTestDB(t)
	defer cleanup()

	exerciseKeyValueStore(t, NewSQLiteKeyValueStore(testDB))
}

func TestSQLiteKeyValueStore_ClosedDatabase(t *testing.T) {
	testDB, cleanup := setupTestDB(t)
	kv := NewSQLiteKeyValueStore(testDB)
	cleanup()

	assert.Error(t, kv.Set(KeyTheme, "dark"))
	_, _, err := kv.Get(KeyTheme)
	assert.Error(t, err)
	assert.Error(t, kv.Remove(KeyTheme))
}

func TestMemoryKeyValueStore(t *testing.T) {
	kv := NewMemoryKeyValueStore()
	exerciseKeyValueStore(t, kv)
	assert.Equal(t, 1, kv.Len())
}
