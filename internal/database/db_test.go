package database

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateSQLiteIsIdempotent(t *testing.T) {
	db, err := OpenSQLite("file:" + uuid.NewString() + "?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	require.NoError(t, Migrate(ctx, db, "sqlite3"))
	require.NoError(t, Migrate(ctx, db, "sqlite3"))

	for _, table := range []string{"shows", "songs", "song_requests", "moderation_settings"} {
		var name string
		err := db.QueryRowContext(ctx, `SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		require.NoError(t, err, table)
		assert.Equal(t, table, name)
	}
}

func TestMigrateRejectsUnknownDriver(t *testing.T) {
	db, err := OpenSQLite("file:" + uuid.NewString() + "?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	assert.Error(t, Migrate(context.Background(), db, "postgres"))
}

func TestRequestedSongCannotBeDeleted(t *testing.T) {
	db, err := OpenSQLite("file:" + uuid.NewString() + "?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	ctx := context.Background()
	require.NoError(t, Migrate(ctx, db, "sqlite3"))

	_, err = db.ExecContext(ctx, `INSERT INTO shows (id, artist_id, name, status, created_at, updated_at)
		VALUES ('show-1', 'artist-1', 'Bar', 'live', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `INSERT INTO songs (id, artist_id, title, artist, created_at, updated_at)
		VALUES ('song-1', 'artist-1', 'Wonderwall', 'Oasis', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `INSERT INTO song_requests (id, show_id, song_id, requester_name, seq, created_at, updated_at)
		VALUES ('req-1', 'show-1', 'song-1', 'Ana', 1, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`)
	require.NoError(t, err)

	_, err = db.ExecContext(ctx, `DELETE FROM songs WHERE id = 'song-1'`)
	assert.Error(t, err, "a request must keep its catalog song")

	var songID string
	require.NoError(t, db.QueryRowContext(ctx, `SELECT song_id FROM song_requests WHERE id = 'req-1'`).Scan(&songID))
	assert.Equal(t, "song-1", songID)
}
