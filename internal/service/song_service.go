package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/adrg/strutil"
	strmetrics "github.com/adrg/strutil/metrics"
	"github.com/google/uuid"

	"github.com/tocafy/tocafy-server/internal/model"
)

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 100
	// Jaro-Winkler score a song needs to show up in search results.
	searchThreshold = 0.7
)

// NewSong is the input of SongService.Create.
type NewSong struct {
	Title           string
	Artist          string
	Key             string
	Genre           string
	Lyrics          string
	Chords          string
	DurationSeconds *int
}

// SongService manages artists' repertoires.
type SongService struct {
	*core
}

// Create adds a song to the artist's library.  New songs are available for
// requests.
func (s *SongService) Create(ctx context.Context, artistID string, in NewSong) (*model.Song, error) {
	ctx, done := s.bounded(ctx, "create_song")
	defer done()

	if strings.TrimSpace(artistID) == "" {
		return nil, validationf("artist is required")
	}
	title, artist, err := songNames(in)
	if err != nil {
		return nil, err
	}

	now := s.now()
	song := &model.Song{
		ID:              uuid.NewString(),
		ArtistID:        artistID,
		Title:           title,
		Artist:          artist,
		Key:             optional(in.Key),
		Genre:           optional(in.Genre),
		Lyrics:          optional(in.Lyrics),
		Chords:          optional(in.Chords),
		DurationSeconds: in.DurationSeconds,
		IsAvailable:     true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.songs.Create(ctx, s.db, song); err != nil {
		return nil, translate(err)
	}
	return song, nil
}

// Update replaces the descriptive fields of one of the actor's songs.
// Requests already made for the song show the new title and artist.
func (s *SongService) Update(ctx context.Context, songID, actorID string, in NewSong) (*model.Song, error) {
	ctx, done := s.bounded(ctx, "update_song")
	defer done()

	title, artist, err := songNames(in)
	if err != nil {
		return nil, err
	}
	song, err := s.songs.GetByID(ctx, s.db, songID)
	if err != nil {
		return nil, translate(err)
	}
	if song.ArtistID != actorID {
		return nil, fmt.Errorf("%w: song %s belongs to another artist", ErrForbidden, songID)
	}
	song.Title, song.Artist = title, artist
	song.Key = optional(in.Key)
	song.Genre = optional(in.Genre)
	song.Lyrics = optional(in.Lyrics)
	song.Chords = optional(in.Chords)
	song.DurationSeconds = in.DurationSeconds
	song.UpdatedAt = s.now()
	if err := s.songs.Update(ctx, s.db, song); err != nil {
		return nil, translate(err)
	}
	return song, nil
}

// songNames validates in and returns its trimmed title and artist.
func songNames(in NewSong) (string, string, error) {
	title, artist := strings.TrimSpace(in.Title), strings.TrimSpace(in.Artist)
	switch {
	case title == "" || artist == "":
		return "", "", validationf("title and artist are required")
	case utf8.RuneCountInString(title) > maxSongField || utf8.RuneCountInString(artist) > maxSongField:
		return "", "", validationf("title and artist are limited to %d characters", maxSongField)
	case in.DurationSeconds != nil && *in.DurationSeconds < 0:
		return "", "", validationf("duration must not be negative")
	}
	return title, artist, nil
}

// SetAvailability hides a song from new requests or shows it again.
// Existing requests for the song are not touched.
func (s *SongService) SetAvailability(ctx context.Context, songID, actorID string, available bool) (*model.Song, error) {
	ctx, done := s.bounded(ctx, "set_song_availability")
	defer done()

	song, err := s.songs.GetByID(ctx, s.db, songID)
	if err != nil {
		return nil, translate(err)
	}
	if song.ArtistID != actorID {
		return nil, fmt.Errorf("%w: song %s belongs to another artist", ErrForbidden, songID)
	}
	now := s.now()
	if err := s.songs.SetAvailability(ctx, s.db, songID, available, now); err != nil {
		return nil, translate(err)
	}
	song.IsAvailable = available
	song.UpdatedAt = now
	return song, nil
}

// ListByArtist returns the artist's full library ordered by title.
func (s *SongService) ListByArtist(ctx context.Context, artistID string) ([]*model.Song, error) {
	ctx, done := s.bounded(ctx, "list_songs")
	defer done()

	songs, err := s.songs.ListByArtist(ctx, s.db, artistID, false)
	if err != nil {
		return nil, translate(err)
	}
	return songs, nil
}

// Search ranks the artist's available songs against query for the
// audience request form.  An empty query lists available songs by title.
func (s *SongService) Search(ctx context.Context, artistID, query string, limit int) ([]*model.Song, error) {
	ctx, done := s.bounded(ctx, "search_songs")
	defer done()

	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}
	songs, err := s.songs.ListByArtist(ctx, s.db, artistID, true)
	if err != nil {
		return nil, translate(err)
	}
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		if len(songs) > limit {
			songs = songs[:limit]
		}
		return songs, nil
	}

	type scored struct {
		song  *model.Song
		score float64
	}
	jw := strmetrics.NewJaroWinkler()
	var hits []scored
	for _, song := range songs {
		score := bestScore(query, jw, song.Title, song.Artist, song.Artist+" "+song.Title)
		if score >= searchThreshold {
			hits = append(hits, scored{song, score})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })

	out := make([]*model.Song, 0, min(limit, len(hits)))
	for i := 0; i < len(hits) && i < limit; i++ {
		out = append(out, hits[i].song)
	}
	return out, nil
}

// bestScore is the highest similarity between query and any candidate.  A
// candidate containing query verbatim scores 1.
func bestScore(query string, jw *strmetrics.JaroWinkler, candidates ...string) float64 {
	best := 0.0
	for _, c := range candidates {
		c = strings.ToLower(c)
		if strings.Contains(c, query) {
			return 1
		}
		if score := strutil.Similarity(query, c, jw); score > best {
			best = score
		}
	}
	return best
}
