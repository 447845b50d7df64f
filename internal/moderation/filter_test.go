package moderation

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tocafy/tocafy-server/internal/model"
)

var now = time.Date(2026, 3, 14, 21, 0, 0, 0, time.UTC)

func baseConfig() model.ModerationConfig {
	return model.ModerationConfig{
		ProfanityFilter:   true,
		SpamPrevention:    true,
		RequestLimit:      3,
		TimeWindowMinutes: 15,
		BlockedWords:      []string{"spam"},
	}
}

func minutesAgo(ms ...int) []time.Time {
	out := make([]time.Time, len(ms))
	for i, m := range ms {
		out[i] = now.Add(-time.Duration(m) * time.Minute)
	}
	return out
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*model.ModerationConfig)
		cand    Candidate
		history []time.Time
		want    Verdict
	}{
		{
			name: "clean request is admitted",
			cand: Candidate{Title: "Wonderwall", Artist: "Oasis", RequesterName: "Ana"},
			want: Verdict{Kind: Admit},
		},
		{
			name: "blocked word in message flags profanity",
			cand: Candidate{Title: "X", Artist: "Y", Message: "this is spam", RequesterName: "Ana"},
			want: Verdict{Kind: Flag, Reason: ReasonProfanity},
		},
		{
			name: "blocked word match ignores case",
			cand: Candidate{Title: "SPAMalot", Artist: "Monty", RequesterName: "Ana"},
			want: Verdict{Kind: Flag, Reason: ReasonProfanity},
		},
		{
			name:   "blocked words ignored when filter disabled",
			mutate: func(c *model.ModerationConfig) { c.ProfanityFilter = false },
			cand:   Candidate{Title: "X", Artist: "Y", Message: "spam", RequesterName: "Ana"},
			want:   Verdict{Kind: Admit},
		},
		{
			name:    "requester at the limit inside the window flags spam",
			cand:    Candidate{Title: "X", Artist: "Y", RequesterName: "Bruno"},
			history: minutesAgo(1, 5, 14),
			want:    Verdict{Kind: Flag, Reason: ReasonSpam},
		},
		{
			name:    "requests outside the window are not counted",
			cand:    Candidate{Title: "X", Artist: "Y", RequesterName: "Bruno"},
			history: minutesAgo(1, 5, 16, 40),
			want:    Verdict{Kind: Admit},
		},
		{
			name:    "spam check disabled",
			mutate:  func(c *model.ModerationConfig) { c.SpamPrevention = false },
			cand:    Candidate{Title: "X", Artist: "Y", RequesterName: "Bruno"},
			history: minutesAgo(1, 2, 3, 4),
			want:    Verdict{Kind: Admit},
		},
		{
			name:   "manual review flags everything else",
			mutate: func(c *model.ModerationConfig) { c.RequireModeration = true },
			cand:   Candidate{Title: "X", Artist: "Y", RequesterName: "Ana"},
			want:   Verdict{Kind: Flag, Reason: ReasonManual},
		},
		{
			name:   "profanity wins over manual review",
			mutate: func(c *model.ModerationConfig) { c.RequireModeration = true },
			cand:   Candidate{Title: "X", Artist: "Y", Message: "spam", RequesterName: "Ana"},
			want:   Verdict{Kind: Flag, Reason: ReasonProfanity},
		},
		{
			name:    "hard cap rejects",
			mutate:  func(c *model.ModerationConfig) { c.RejectLimit = 5 },
			cand:    Candidate{Title: "X", Artist: "Y", RequesterName: "Bruno"},
			history: minutesAgo(1, 2, 3, 4, 5),
			want:    Verdict{Kind: Reject, Reason: ReasonSpam},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := baseConfig()
			if tt.mutate != nil {
				tt.mutate(&cfg)
			}
			assert.Equal(t, tt.want, Check(cfg, tt.cand, tt.history, now))
		})
	}
}

func TestCheckIsDeterministic(t *testing.T) {
	cfg := baseConfig()
	cfg.RequireModeration = true
	cand := Candidate{Title: "Garota de Ipanema", Artist: "Tom Jobim", Message: "for my mom", RequesterName: "Ana"}
	history := minutesAgo(2, 9)

	first := Check(cfg, cand, history, now)
	for i := 0; i < 100; i++ {
		require.Equal(t, first, Check(cfg, cand, history, now))
	}
	assert.Equal(t, []string{"spam"}, cfg.BlockedWords, "config must not be mutated")
	assert.Len(t, history, 2)
}

func TestNormalize(t *testing.T) {
	cfg := baseConfig()
	cfg.BlockedWords = []string{"  Spam ", "", "spam", "Palavra1", "   "}
	got, err := Normalize(cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"spam", "palavra1"}, got.BlockedWords)

	for _, bad := range []func(*model.ModerationConfig){
		func(c *model.ModerationConfig) { c.RequestLimit = 0 },
		func(c *model.ModerationConfig) { c.TimeWindowMinutes = -1 },
		func(c *model.ModerationConfig) { c.RejectLimit = -2 },
		func(c *model.ModerationConfig) { c.RejectLimit = 2 },
	} {
		c := baseConfig()
		bad(&c)
		_, err := Normalize(c)
		assert.True(t, errors.Is(err, ErrInvalidConfig), "got %v", err)
	}
}

func TestVerdictString(t *testing.T) {
	assert.Equal(t, "admit", Verdict{Kind: Admit}.String())
	assert.Equal(t, "flag(spam)", Verdict{Kind: Flag, Reason: ReasonSpam}.String())
}
