package model

import "time"

// Song is an entry in an artist's repertoire.  Only available songs can be
// picked for a new request.
type Song struct {
	ID              string    `json:"id"`                         // songs.id
	ArtistID        string    `json:"artist_id"`                  // songs.artist_id
	Title           string    `json:"title"`                      // songs.title
	Artist          string    `json:"artist"`                     // songs.artist
	Key             *string   `json:"key,omitempty"`              // songs.musical_key (nullable)
	Genre           *string   `json:"genre,omitempty"`            // songs.genre (nullable)
	Lyrics          *string   `json:"lyrics,omitempty"`           // songs.lyrics (nullable)
	Chords          *string   `json:"chords,omitempty"`           // songs.chords (nullable)
	DurationSeconds *int      `json:"duration_seconds,omitempty"` // songs.duration_seconds (nullable)
	IsAvailable     bool      `json:"is_available"`               // songs.is_available
	CreatedAt       time.Time `json:"created_at"`                 // songs.created_at
	UpdatedAt       time.Time `json:"updated_at"`                 // songs.updated_at
}
