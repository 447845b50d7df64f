package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/tocafy/tocafy-server/internal/model"
)

// ModerationRepo stores one moderation config per artist.  Blocked words are
// kept as a JSON array in a TEXT column.
type ModerationRepo struct {
	dialect Dialect
}

// NewModerationRepo constructs a ModerationRepo for the given dialect.
func NewModerationRepo(d Dialect) *ModerationRepo {
	return &ModerationRepo{dialect: d}
}

// Get returns the artist's stored config, or ErrSettingsNotFound.
func (r *ModerationRepo) Get(ctx context.Context, q Querier, artistID string) (*model.ModerationConfig, error) {
	const sel = `SELECT artist_id, profanity_filter, spam_prevention, request_limit, time_window_minutes,
       require_moderation, reject_limit, blocked_words
FROM moderation_settings WHERE artist_id = ?`
	var (
		cfg   model.ModerationConfig
		words string
	)
	err := q.QueryRowContext(ctx, sel, artistID).Scan(
		&cfg.ArtistID, &cfg.ProfanityFilter, &cfg.SpamPrevention, &cfg.RequestLimit, &cfg.TimeWindowMinutes,
		&cfg.RequireModeration, &cfg.RejectLimit, &words,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSettingsNotFound
		}
		return nil, classify(err)
	}
	if err := json.Unmarshal([]byte(words), &cfg.BlockedWords); err != nil {
		return nil, fmt.Errorf("decode blocked_words for %s: %w", artistID, err)
	}
	if cfg.BlockedWords == nil {
		cfg.BlockedWords = []string{}
	}
	return &cfg, nil
}

// Upsert inserts or replaces the artist's config.
func (r *ModerationRepo) Upsert(ctx context.Context, q Querier, cfg model.ModerationConfig, now time.Time) error {
	words := cfg.BlockedWords
	if words == nil {
		words = []string{}
	}
	encoded, err := json.Marshal(words)
	if err != nil {
		return err
	}

	ins := `INSERT INTO moderation_settings
  (artist_id, profanity_filter, spam_prevention, request_limit, time_window_minutes, require_moderation,
   reject_limit, blocked_words, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	switch r.dialect {
	case MySQL:
		ins += `
ON DUPLICATE KEY UPDATE profanity_filter = VALUES(profanity_filter), spam_prevention = VALUES(spam_prevention),
  request_limit = VALUES(request_limit), time_window_minutes = VALUES(time_window_minutes),
  require_moderation = VALUES(require_moderation), reject_limit = VALUES(reject_limit),
  blocked_words = VALUES(blocked_words), updated_at = VALUES(updated_at)`
	default:
		ins += `
ON CONFLICT (artist_id) DO UPDATE SET profanity_filter = excluded.profanity_filter,
  spam_prevention = excluded.spam_prevention, request_limit = excluded.request_limit,
  time_window_minutes = excluded.time_window_minutes, require_moderation = excluded.require_moderation,
  reject_limit = excluded.reject_limit, blocked_words = excluded.blocked_words, updated_at = excluded.updated_at`
	}
	_, err = q.ExecContext(ctx, ins,
		cfg.ArtistID, cfg.ProfanityFilter, cfg.SpamPrevention, cfg.RequestLimit, cfg.TimeWindowMinutes,
		cfg.RequireModeration, cfg.RejectLimit, string(encoded), now,
	)
	return classify(err)
}
