package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/tocafy/tocafy-server/internal/model"
)

const songColumns = `id, artist_id, title, artist, musical_key, genre, lyrics, chords, duration_seconds, is_available, created_at, updated_at`

// SongRepo manages an artist's repertoire.
type SongRepo struct{}

// NewSongRepo constructs a SongRepo.
func NewSongRepo() *SongRepo {
	return &SongRepo{}
}

// Create inserts a song.  The caller assigns ID and timestamps.
func (r *SongRepo) Create(ctx context.Context, q Querier, s *model.Song) error {
	const ins = `INSERT INTO songs (` + songColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := q.ExecContext(ctx, ins,
		s.ID, s.ArtistID, s.Title, s.Artist, s.Key, s.Genre, s.Lyrics, s.Chords, s.DurationSeconds,
		s.IsAvailable, s.CreatedAt, s.UpdatedAt,
	)
	return classify(err)
}

// GetByID retrieves a song.  It returns ErrSongNotFound if there is no
// matching row.
func (r *SongRepo) GetByID(ctx context.Context, q Querier, id string) (*model.Song, error) {
	s, err := scanSong(q.QueryRowContext(ctx, `SELECT `+songColumns+` FROM songs WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSongNotFound
		}
		return nil, classify(err)
	}
	return s, nil
}

// ListByArtist returns the artist's songs ordered by title.  With
// onlyAvailable set, songs hidden from the audience are left out.
func (r *SongRepo) ListByArtist(ctx context.Context, q Querier, artistID string, onlyAvailable bool) ([]*model.Song, error) {
	query := `SELECT ` + songColumns + ` FROM songs WHERE artist_id = ?`
	if onlyAvailable {
		query += ` AND is_available = 1`
	}
	query += ` ORDER BY title, id`

	rows, err := q.QueryContext(ctx, query, artistID)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var out []*model.Song
	for rows.Next() {
		s, err := scanSong(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// SetAvailability flips the is_available flag.
func (r *SongRepo) SetAvailability(ctx context.Context, q Querier, id string, available bool, now time.Time) error {
	res, err := q.ExecContext(ctx, `UPDATE songs SET is_available = ?, updated_at = ? WHERE id = ?`, available, now, id)
	if err != nil {
		return classify(err)
	}
	return expectOne(res, ErrSongNotFound)
}

// Update rewrites a song's descriptive fields.  Availability and
// ownership are left as they are.
func (r *SongRepo) Update(ctx context.Context, q Querier, s *model.Song) error {
	const upd = `UPDATE songs SET title = ?, artist = ?, musical_key = ?, genre = ?, lyrics = ?, chords = ?,
       duration_seconds = ?, updated_at = ? WHERE id = ?`
	res, err := q.ExecContext(ctx, upd,
		s.Title, s.Artist, s.Key, s.Genre, s.Lyrics, s.Chords, s.DurationSeconds, s.UpdatedAt, s.ID,
	)
	if err != nil {
		return classify(err)
	}
	return expectOne(res, ErrSongNotFound)
}

func scanSong(sc rowScanner) (*model.Song, error) {
	var (
		s                          model.Song
		key, genre, lyrics, chords sql.NullString
		duration                   sql.NullInt64
		created, updated           time.Time
	)
	if err := sc.Scan(&s.ID, &s.ArtistID, &s.Title, &s.Artist, &key, &genre, &lyrics, &chords, &duration,
		&s.IsAvailable, &created, &updated); err != nil {
		return nil, err
	}
	s.Key = nullStringPtr(key)
	s.Genre = nullStringPtr(genre)
	s.Lyrics = nullStringPtr(lyrics)
	s.Chords = nullStringPtr(chords)
	s.DurationSeconds = nullIntPtr(duration)
	s.CreatedAt = created.UTC()
	s.UpdatedAt = updated.UTC()
	return &s, nil
}
