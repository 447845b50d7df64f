package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShowStatusTransitions(t *testing.T) {
	all := []ShowStatus{ShowDraft, ShowLive, ShowPaused, ShowEnded}
	allowed := map[[2]ShowStatus]bool{
		{ShowDraft, ShowLive}:   true,
		{ShowLive, ShowPaused}:  true,
		{ShowLive, ShowEnded}:   true,
		{ShowPaused, ShowLive}:  true,
		{ShowPaused, ShowEnded}: true,
	}
	for _, from := range all {
		for _, to := range all {
			assert.Equal(t, allowed[[2]ShowStatus{from, to}], from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
}

func TestRequestStatusTransitions(t *testing.T) {
	assert.True(t, RequestPending.CanTransitionTo(RequestAccepted))
	assert.True(t, RequestPending.CanTransitionTo(RequestSkipped))
	assert.True(t, RequestAccepted.CanTransitionTo(RequestPlaying))
	assert.True(t, RequestAccepted.CanTransitionTo(RequestSkipped))
	assert.True(t, RequestPlaying.CanTransitionTo(RequestPlayed))

	assert.False(t, RequestPending.CanTransitionTo(RequestPlaying))
	assert.False(t, RequestPlaying.CanTransitionTo(RequestSkipped))
	assert.False(t, RequestPlayed.CanTransitionTo(RequestPending))
	assert.False(t, RequestSkipped.CanTransitionTo(RequestAccepted))

	assert.True(t, RequestPending.Active())
	assert.True(t, RequestAccepted.Active())
	assert.False(t, RequestPlaying.Active())
	assert.True(t, RequestPlayed.Terminal())
	assert.True(t, RequestSkipped.Terminal())
}

func TestStatusValid(t *testing.T) {
	assert.True(t, ShowPaused.Valid())
	assert.False(t, ShowStatus("cancelled").Valid())
	assert.True(t, RequestPlayed.Valid())
	assert.False(t, RequestStatus("completed").Valid())
}
