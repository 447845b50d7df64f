package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tocafy/tocafy-server/internal/model"
)

func TestCreateShow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	show, err := f.Shows.CreateShow(ctx, artist, NewShow{Name: "  Acoustic Night ", Location: "Bar do Zé"})
	require.NoError(t, err)
	assert.Equal(t, "Acoustic Night", show.Name)
	assert.Equal(t, model.ShowDraft, show.Status)
	assert.Nil(t, show.Code)
	assert.Nil(t, show.Description)
	require.NotNil(t, show.Location)

	_, err = f.Shows.CreateShow(ctx, artist, NewShow{Name: "   "})
	assert.ErrorIs(t, err, ErrValidation)

	st, err := f.Shows.Status(ctx, show.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ShowDraft, st)

	_, err = f.Shows.Status(ctx, uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestShowTransitions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	show, err := f.Shows.CreateShow(ctx, artist, NewShow{Name: "Acoustic Night"})
	require.NoError(t, err)

	_, err = f.Shows.Transition(ctx, show.ID, model.ShowPaused, artist)
	assert.ErrorIs(t, err, ErrInvalidTransition, "draft cannot pause")

	_, err = f.Shows.Transition(ctx, show.ID, model.ShowLive, stranger)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.Shows.Transition(ctx, uuid.NewString(), model.ShowLive, artist)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.Shows.Transition(ctx, show.ID, model.ShowStatus("cancelled"), artist)
	assert.ErrorIs(t, err, ErrValidation)

	live, err := f.Shows.Transition(ctx, show.ID, model.ShowLive, artist)
	require.NoError(t, err)
	require.NotNil(t, live.StartedAt)
	firstStart := *live.StartedAt

	_, err = f.Shows.Transition(ctx, show.ID, model.ShowLive, artist)
	assert.ErrorIs(t, err, ErrInvalidTransition, "live twice in a row")

	f.clock.Advance(10 * time.Minute)
	_, err = f.Shows.Transition(ctx, show.ID, model.ShowPaused, artist)
	require.NoError(t, err)
	again, err := f.Shows.Transition(ctx, show.ID, model.ShowLive, artist)
	require.NoError(t, err)
	assert.True(t, again.StartedAt.Equal(firstStart), "started_at is only set once")

	ended, err := f.Shows.Transition(ctx, show.ID, model.ShowEnded, artist)
	require.NoError(t, err)
	require.NotNil(t, ended.EndedAt)

	for _, target := range []model.ShowStatus{model.ShowDraft, model.ShowLive, model.ShowPaused, model.ShowEnded} {
		_, err := f.Shows.Transition(ctx, show.ID, target, artist)
		assert.ErrorIs(t, err, ErrInvalidTransition, "ended -> %s", target)
	}

	stored, err := f.Shows.Get(ctx, show.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ShowEnded, stored.Status)

	var states []string
	for _, ev := range f.events.snapshot() {
		if ev.Entity == model.EntityShow {
			states = append(states, ev.NewState)
		}
	}
	assert.Equal(t, []string{"live", "paused", "live", "ended"}, states, "one event per successful transition")
}

func TestOwnedAndList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	show := f.liveShow(t, "Acoustic Night")

	_, err := f.Shows.Owned(ctx, show.ID, stranger)
	assert.ErrorIs(t, err, ErrForbidden)
	got, err := f.Shows.Owned(ctx, show.ID, artist)
	require.NoError(t, err)
	assert.Equal(t, show.ID, got.ID)

	list, err := f.Shows.ListByOwner(ctx, artist)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	list, err = f.Shows.ListByOwner(ctx, stranger)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestEnsureCode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first, err := f.Shows.CreateShow(ctx, artist, NewShow{Name: "Noite Acústica"})
	require.NoError(t, err)
	second, err := f.Shows.CreateShow(ctx, artist, NewShow{Name: "Noite Acústica"})
	require.NoError(t, err)

	code, err := f.Shows.EnsureCode(ctx, first.ID, artist, "joaosilva")
	require.NoError(t, err)
	assert.Equal(t, "joaosilva-noite-acustica", code)

	again, err := f.Shows.EnsureCode(ctx, first.ID, artist, "joaosilva")
	require.NoError(t, err)
	assert.Equal(t, code, again, "an assigned code never changes")

	code2, err := f.Shows.EnsureCode(ctx, second.ID, artist, "joaosilva")
	require.NoError(t, err)
	assert.Equal(t, "joaosilva-noite-acustica-2", code2)

	stored, err := f.Shows.Get(ctx, first.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.Code)
	assert.Equal(t, code, *stored.Code, "first code was not overwritten")

	_, err = f.Shows.EnsureCode(ctx, second.ID, stranger, "bruno")
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.Shows.EnsureCode(ctx, second.ID, artist, "João Silva")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestResolve(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	draft, err := f.Shows.CreateShow(ctx, artist, NewShow{Name: "Soundcheck"})
	require.NoError(t, err)
	draftCode, err := f.Shows.EnsureCode(ctx, draft.ID, artist, "ana")
	require.NoError(t, err)
	live := f.liveShow(t, "Acoustic Night")
	liveCode, err := f.Shows.EnsureCode(ctx, live.ID, artist, "ana")
	require.NoError(t, err)

	got, err := f.Shows.Resolve(ctx, liveCode, ResolveAudience)
	require.NoError(t, err)
	assert.Equal(t, live.ID, got.ID)

	got, err = f.Shows.Resolve(ctx, live.ID, ResolveAudience)
	require.NoError(t, err, "raw ids still resolve")
	assert.Equal(t, live.ID, got.ID)

	_, err = f.Shows.Resolve(ctx, draftCode, ResolveAudience)
	assert.ErrorIs(t, err, ErrNotFound, "audience cannot join a draft show")
	got, err = f.Shows.Resolve(ctx, draftCode, ResolveArtist)
	require.NoError(t, err)
	assert.Equal(t, draft.ID, got.ID)

	for _, ref := range []string{"", "nobody-nothing", uuid.NewString()} {
		_, err = f.Shows.Resolve(ctx, ref, ResolveArtist)
		assert.ErrorIs(t, err, ErrNotFound, "ref %q", ref)
	}
}
