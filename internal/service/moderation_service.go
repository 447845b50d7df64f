package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	jsonpatch "github.com/evanphx/json-patch/v5"

	"github.com/tocafy/tocafy-server/internal/model"
	"github.com/tocafy/tocafy-server/internal/moderation"
	"github.com/tocafy/tocafy-server/internal/repository"
)

// ModerationService stores each artist's moderation settings.  Artists that
// never saved any get model.DefaultModerationConfig.
type ModerationService struct {
	*core
}

// Get returns the artist's settings or the defaults.
func (m *ModerationService) Get(ctx context.Context, artistID string) (model.ModerationConfig, error) {
	ctx, done := m.bounded(ctx, "get_moderation")
	defer done()

	cfg, err := m.settings.Get(ctx, m.db, artistID)
	if errors.Is(err, repository.ErrSettingsNotFound) {
		return model.DefaultModerationConfig(artistID), nil
	}
	if err != nil {
		return model.ModerationConfig{}, translate(err)
	}
	return *cfg, nil
}

// Replace validates and stores a full config.
func (m *ModerationService) Replace(ctx context.Context, artistID string, cfg model.ModerationConfig) (model.ModerationConfig, error) {
	ctx, done := m.bounded(ctx, "replace_moderation")
	defer done()

	return m.store(ctx, artistID, cfg)
}

// Patch applies an RFC 7396 merge patch to the current settings.  Keys that
// are not config fields are rejected, as are values of the wrong type.
func (m *ModerationService) Patch(ctx context.Context, artistID string, patch []byte) (model.ModerationConfig, error) {
	ctx, done := m.bounded(ctx, "patch_moderation")
	defer done()

	current, err := m.Get(ctx, artistID)
	if err != nil {
		return model.ModerationConfig{}, err
	}
	doc, err := json.Marshal(current)
	if err != nil {
		return model.ModerationConfig{}, err
	}
	merged, err := jsonpatch.MergePatch(doc, patch)
	if err != nil {
		return model.ModerationConfig{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	next, err := decodeConfig(merged)
	if err != nil {
		return model.ModerationConfig{}, err
	}
	return m.store(ctx, artistID, next)
}

// ReplaceJSON is Replace for a JSON document.  Keys that are not config
// fields are rejected instead of ignored.
func (m *ModerationService) ReplaceJSON(ctx context.Context, artistID string, body []byte) (model.ModerationConfig, error) {
	cfg, err := decodeConfig(body)
	if err != nil {
		return model.ModerationConfig{}, err
	}
	return m.Replace(ctx, artistID, cfg)
}

// decodeConfig strictly decodes one JSON config object.
func decodeConfig(doc []byte) (model.ModerationConfig, error) {
	var cfg model.ModerationConfig
	dec := json.NewDecoder(bytes.NewReader(doc))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return model.ModerationConfig{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	if dec.More() {
		return model.ModerationConfig{}, validationf("trailing data after config")
	}
	return cfg, nil
}

func (m *ModerationService) store(ctx context.Context, artistID string, cfg model.ModerationConfig) (model.ModerationConfig, error) {
	cfg.ArtistID = artistID
	normalized, err := moderation.Normalize(cfg)
	if err != nil {
		return model.ModerationConfig{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	if err := m.settings.Upsert(ctx, m.db, normalized, m.now()); err != nil {
		return model.ModerationConfig{}, translate(err)
	}
	m.log.Info("moderation settings saved", "artist_id", artistID)
	return normalized, nil
}
