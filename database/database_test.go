package database

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitSchema_CreatesTables(t *testing.T) {
	db, err := NewDB(":memory:")
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.InitSchema())

	for _, table := range []string{"kv", "users", "activities"} {
		var name string
		err := db.Get(&name, `SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table)
		assert.NoError(t, err, "table %s", table)
		assert.Equal(t, table, name)
	}

	version, err := db.Version()
	require.NoError(t, err)
	assert.Equal(t, int64(3), version)
}

func TestInitSchema_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "anistream.db")

	db, err := NewDB(path)
	require.NoError(t, err)
	require.NoError(t, db.InitSchema())
	_, err = db.Exec(`INSERT INTO kv (key, value, updated_at) VALUES ('movies', '[]', ?)`, FormatTime(time.Now()))
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = NewDB(path)
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.InitSchema())

	var value string
	require.NoError(t, db.Get(&value, `SELECT value FROM kv WHERE key = 'movies'`))
	assert.Equal(t, "[]", value)
}

func TestFormatTime_UTC(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	ts := time.Date(2024, 3, 1, 12, 30, 0, 0, loc)

	assert.Equal(t, "2024-03-01 10:30:00", FormatTime(ts))
}
