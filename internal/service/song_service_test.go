package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSongCreateAndAvailability(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	dur := 258
	song, err := f.Songs.Create(ctx, artist, NewSong{Title: " Wonderwall ", Artist: "Oasis", Key: "F#m", DurationSeconds: &dur})
	require.NoError(t, err)
	assert.Equal(t, "Wonderwall", song.Title)
	assert.True(t, song.IsAvailable)
	require.NotNil(t, song.Key)
	assert.Nil(t, song.Genre)

	_, err = f.Songs.Create(ctx, artist, NewSong{Title: "Untitled"})
	assert.ErrorIs(t, err, ErrValidation)
	neg := -1
	_, err = f.Songs.Create(ctx, artist, NewSong{Title: "A", Artist: "B", DurationSeconds: &neg})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.Songs.SetAvailability(ctx, song.ID, stranger, false)
	assert.ErrorIs(t, err, ErrForbidden)
	hidden, err := f.Songs.SetAvailability(ctx, song.ID, artist, false)
	require.NoError(t, err)
	assert.False(t, hidden.IsAvailable)

	all, err := f.Songs.ListByArtist(ctx, artist)
	require.NoError(t, err)
	require.Len(t, all, 1, "the library still lists hidden songs")
	found, err := f.Songs.Search(ctx, artist, "", 0)
	require.NoError(t, err)
	assert.Empty(t, found, "search only offers available songs")
}

func TestSongSearch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.song(t, artist, "Wonderwall", "Oasis")
	f.song(t, artist, "Don't Look Back in Anger", "Oasis")
	f.song(t, artist, "Garota de Ipanema", "Tom Jobim")
	f.song(t, stranger, "Wonderwall", "Ryan Adams")

	titles := func(query string, limit int) []string {
		songs, err := f.Songs.Search(ctx, artist, query, limit)
		require.NoError(t, err)
		var out []string
		for _, s := range songs {
			out = append(out, s.Title)
		}
		return out
	}

	assert.Equal(t, []string{"Wonderwall"}, titles("wonderwall", 0))
	assert.Equal(t, []string{"Wonderwall"}, titles("wondrwall", 0), "typos still match")
	assert.ElementsMatch(t, []string{"Wonderwall", "Don't Look Back in Anger"}, titles("oasis", 0))
	assert.Empty(t, titles("metallica", 0))
	assert.Equal(t, []string{"Don't Look Back in Anger", "Garota de Ipanema", "Wonderwall"}, titles("  ", 0))
	assert.Len(t, titles("", 2), 2)
}

func TestSongUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	show := f.liveShow(t, "Bar")
	song := f.song(t, artist, "Wonderwal", "Oasis")
	req, err := f.Queue.Submit(ctx, show.ID, Submission{RequesterName: "Ana", SongID: song.ID})
	require.NoError(t, err)
	_, err = f.Songs.SetAvailability(ctx, song.ID, artist, false)
	require.NoError(t, err)

	_, err = f.Songs.Update(ctx, song.ID, stranger, NewSong{Title: "Wonderwall", Artist: "Oasis"})
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.Songs.Update(ctx, song.ID, artist, NewSong{Title: " ", Artist: "Oasis"})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = f.Songs.Update(ctx, "missing", artist, NewSong{Title: "A", Artist: "B"})
	assert.ErrorIs(t, err, ErrNotFound)

	updated, err := f.Songs.Update(ctx, song.ID, artist, NewSong{Title: "Wonderwall", Artist: "Oasis", Genre: "britpop"})
	require.NoError(t, err)
	assert.Equal(t, "Wonderwall", updated.Title)
	require.NotNil(t, updated.Genre)
	assert.False(t, updated.IsAvailable, "editing keeps the availability flag")

	reqs, err := f.Queue.ListForArtist(ctx, show.ID, artist)
	require.NoError(t, err)
	require.Len(t, reqs, 1)
	assert.Equal(t, req.ID, reqs[0].ID)
	assert.Equal(t, "Wonderwall", reqs[0].Title, "requests read the current catalog entry")
}
