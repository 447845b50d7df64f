package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tocafy/tocafy-server/internal/model"
)

func TestModerationDefaults(t *testing.T) {
	f := newFixture(t)
	cfg, err := f.Moderation.Get(context.Background(), artist)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultModerationConfig(artist), cfg)
}

func TestModerationReplace(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cfg := model.DefaultModerationConfig(artist)
	cfg.BlockedWords = []string{" Spam ", "spam", "", "Golpe"}
	saved, err := f.Moderation.Replace(ctx, artist, cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"spam", "golpe"}, saved.BlockedWords)

	got, err := f.Moderation.Get(ctx, artist)
	require.NoError(t, err)
	assert.Equal(t, saved, got)

	other, err := f.Moderation.Get(ctx, stranger)
	require.NoError(t, err)
	assert.Empty(t, other.BlockedWords, "settings are per artist")

	cfg.RequestLimit = 0
	_, err = f.Moderation.Replace(ctx, artist, cfg)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestModerationReplaceJSONRejectsUnknownKeys(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	saved, err := f.Moderation.ReplaceJSON(ctx, artist, []byte(`{"profanity_filter":true,"spam_prevention":true,
		"request_limit":4,"time_window_minutes":10,"require_moderation":false,"blocked_words":["Spam"]}`))
	require.NoError(t, err)
	assert.Equal(t, 4, saved.RequestLimit)
	assert.Equal(t, []string{"spam"}, saved.BlockedWords)

	for _, body := range []string{
		`{"profanity_filter":true,"spam_prevention":true,"request_limit":3,"time_window_minutes":15,"blockedWords":["golpe"]}`,
		`{"request_limit":3,"time_window_minutes":15,"ArtistID":"artist-bruno"}`,
		`{"request_limit":"3","time_window_minutes":15}`,
		`{"request_limit":3,"time_window_minutes":15} {}`,
		`not json`,
	} {
		_, err := f.Moderation.ReplaceJSON(ctx, artist, []byte(body))
		assert.ErrorIs(t, err, ErrValidation, body)
	}

	got, err := f.Moderation.Get(ctx, artist)
	require.NoError(t, err)
	assert.Equal(t, saved, got, "a rejected document changes nothing")
}

func TestModerationPatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cfg, err := f.Moderation.Patch(ctx, artist, []byte(`{"request_limit": 5, "blocked_words": ["Spam"]}`))
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.RequestLimit)
	assert.Equal(t, []string{"spam"}, cfg.BlockedWords)
	assert.True(t, cfg.ProfanityFilter, "untouched keys keep their value")
	assert.Equal(t, 15, cfg.TimeWindowMinutes)

	cfg, err = f.Moderation.Patch(ctx, artist, []byte(`{"spam_prevention": false}`))
	require.NoError(t, err)
	assert.False(t, cfg.SpamPrevention)
	assert.Equal(t, 5, cfg.RequestLimit, "earlier patches persist")

	for name, patch := range map[string]string{
		"unknown key":   `{"profanity": true}`,
		"wrong type":    `{"request_limit": "many"}`,
		"invalid value": `{"time_window_minutes": 0}`,
		"not json":      `{`,
		"reject below":  `{"reject_limit": 2}`,
	} {
		_, err := f.Moderation.Patch(ctx, artist, []byte(patch))
		assert.ErrorIs(t, err, ErrValidation, name)
	}

	got, err := f.Moderation.Get(ctx, artist)
	require.NoError(t, err)
	assert.Equal(t, 5, got.RequestLimit, "rejected patches change nothing")
}
