package model

import "time"

// ShowStatus is the lifecycle state of a show.
type ShowStatus string

const (
	ShowDraft  ShowStatus = "draft"
	ShowLive   ShowStatus = "live"
	ShowPaused ShowStatus = "paused"
	ShowEnded  ShowStatus = "ended"
)

// showTransitions lists the legal moves out of each status.  Anything not
// listed here, including staying in the same status, is rejected.  Ended
// has no entry because it is terminal.
var showTransitions = map[ShowStatus][]ShowStatus{
	ShowDraft:  {ShowLive},
	ShowLive:   {ShowPaused, ShowEnded},
	ShowPaused: {ShowLive, ShowEnded},
}

// Valid reports whether s is one of the known show statuses.
func (s ShowStatus) Valid() bool {
	switch s {
	case ShowDraft, ShowLive, ShowPaused, ShowEnded:
		return true
	}
	return false
}

// CanTransitionTo reports whether a show in status s may move to target.
func (s ShowStatus) CanTransitionTo(target ShowStatus) bool {
	for _, t := range showTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// Show is a single live performance session owned by one artist.  The
// public code is assigned once and never changes afterwards.
//
// Fields:
//
//	ID          – primary key (UUID string).
//	OwnerID     – artist profile that owns the show.
//	Name        – display name, required.
//	Description – optional free text.
//	Location    – optional venue.
//	Status      – draft, live, paused or ended.
//	Code        – shareable code (nil until assigned).
//	StartedAt   – first time the show went live.
//	EndedAt     – when the show ended.
type Show struct {
	ID          string     `json:"id"`                    // shows.id
	OwnerID     string     `json:"artist_id"`             // shows.artist_id
	Name        string     `json:"name"`                  // shows.name
	Description *string    `json:"description,omitempty"` // shows.description (nullable)
	Location    *string    `json:"location,omitempty"`    // shows.location (nullable)
	Status      ShowStatus `json:"status"`                // shows.status
	Code        *string    `json:"code,omitempty"`        // shows.username_code (nullable, unique)
	CreatedAt   time.Time  `json:"created_at"`            // shows.created_at
	UpdatedAt   time.Time  `json:"updated_at"`            // shows.updated_at
	StartedAt   *time.Time `json:"started_at,omitempty"`  // shows.started_at (nullable)
	EndedAt     *time.Time `json:"ended_at,omitempty"`    // shows.ended_at (nullable)
}
