package model

// ModerationConfig holds an artist's admission rules for song requests.
// BlockedWords are stored trimmed and lower-cased.  RejectLimit is a hard
// per-requester cap inside the time window; zero disables it.
type ModerationConfig struct {
	ArtistID          string   `json:"-"`
	ProfanityFilter   bool     `json:"profanity_filter"`
	SpamPrevention    bool     `json:"spam_prevention"`
	RequestLimit      int      `json:"request_limit"`
	TimeWindowMinutes int      `json:"time_window_minutes"`
	RequireModeration bool     `json:"require_moderation"`
	RejectLimit       int      `json:"reject_limit"`
	BlockedWords      []string `json:"blocked_words"`
}

// DefaultModerationConfig returns the settings used for artists that never
// saved their own.
func DefaultModerationConfig(artistID string) ModerationConfig {
	return ModerationConfig{
		ArtistID:          artistID,
		ProfanityFilter:   true,
		SpamPrevention:    true,
		RequestLimit:      3,
		TimeWindowMinutes: 15,
		RequireModeration: false,
		BlockedWords:      []string{},
	}
}
