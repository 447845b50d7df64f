package model

import "time"

// Entity names used in change events.
const (
	EntityShow    = "show"
	EntityRequest = "request"
)

// ChangeEvent describes one committed mutation of a show or a song request.
// Subscribers apply it incrementally instead of reloading the whole show.
type ChangeEvent struct {
	Entity   string    `json:"entity"`
	ID       string    `json:"id"`
	ShowID   string    `json:"show_id"`
	NewState string    `json:"new_state"`
	Flagged  bool      `json:"flagged,omitempty"`
	Position *int      `json:"position,omitempty"`
	At       time.Time `json:"at"`
}

// ShowChanged builds the event emitted after a show mutation.
func ShowChanged(s *Show, at time.Time) ChangeEvent {
	return ChangeEvent{Entity: EntityShow, ID: s.ID, ShowID: s.ID, NewState: string(s.Status), At: at}
}

// RequestChanged builds the event emitted after a request mutation.
func RequestChanged(r *SongRequest, at time.Time) ChangeEvent {
	return ChangeEvent{
		Entity:   EntityRequest,
		ID:       r.ID,
		ShowID:   r.ShowID,
		NewState: string(r.Status),
		Flagged:  r.Flagged,
		Position: r.Position,
		At:       at,
	}
}
