package model

import "time"

// RequestStatus is the queue state of a song request.
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestAccepted RequestStatus = "accepted"
	RequestPlaying  RequestStatus = "playing"
	RequestPlayed   RequestStatus = "played"
	RequestSkipped  RequestStatus = "skipped"
)

var requestTransitions = map[RequestStatus][]RequestStatus{
	RequestPending:  {RequestAccepted, RequestSkipped},
	RequestAccepted: {RequestPlaying, RequestSkipped},
	RequestPlaying:  {RequestPlayed},
}

// ActiveStatuses are the statuses that hold a queue position.
var ActiveStatuses = []RequestStatus{RequestPending, RequestAccepted}

// Valid reports whether s is a known request status.
func (s RequestStatus) Valid() bool {
	switch s {
	case RequestPending, RequestAccepted, RequestPlaying, RequestPlayed, RequestSkipped:
		return true
	}
	return false
}

// Active reports whether a request in status s is part of the queue.
func (s RequestStatus) Active() bool {
	return s == RequestPending || s == RequestAccepted
}

// Terminal reports whether no further transition is possible from s.
func (s RequestStatus) Terminal() bool {
	return s == RequestPlayed || s == RequestSkipped
}

// CanTransitionTo reports whether a request in status s may move to target.
func (s RequestStatus) CanTransitionTo(target RequestStatus) bool {
	for _, t := range requestTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// SongRequest is an audience request to play a catalog song or a custom
// title/artist pair during a show.  Exactly one of SongID or the custom pair
// is set.  Title and Artist are filled on read: from the catalog song for
// catalog requests and from the custom pair otherwise.
type SongRequest struct {
	ID            string        `json:"id"`                      // song_requests.id
	ShowID        string        `json:"show_id"`                 // song_requests.show_id
	SongID        *string       `json:"song_id,omitempty"`       // song_requests.song_id (nullable)
	CustomTitle   *string       `json:"custom_title,omitempty"`  // song_requests.custom_song_title (nullable)
	CustomArtist  *string       `json:"custom_artist,omitempty"` // song_requests.custom_song_artist (nullable)
	Title         string        `json:"title"`
	Artist        string        `json:"artist"`
	RequesterName string        `json:"requester_name"`          // song_requests.requester_name
	Message       *string       `json:"message,omitempty"`       // song_requests.message (nullable)
	TipCents      int64         `json:"tip_cents"`               // song_requests.tip_cents
	Status        RequestStatus `json:"status"`                  // song_requests.status
	Flagged       bool          `json:"flagged"`                 // song_requests.flagged
	FlagReason    *string       `json:"flag_reason,omitempty"`   // song_requests.flag_reason (nullable)
	Position      *int          `json:"position,omitempty"`      // song_requests.position_in_queue (nullable)
	Seq           int64         `json:"-"`                       // song_requests.seq
	CreatedAt     time.Time     `json:"created_at"`              // song_requests.created_at
	AcceptedAt    *time.Time    `json:"accepted_at,omitempty"`   // song_requests.accepted_at (nullable)
	PlayedAt      *time.Time    `json:"played_at,omitempty"`     // song_requests.played_at (nullable)
	UpdatedAt     time.Time     `json:"updated_at"`              // song_requests.updated_at
}

// IsCustom reports whether the request names a song outside the catalog.
func (r *SongRequest) IsCustom() bool {
	return r.SongID == nil
}
