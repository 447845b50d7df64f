// Package moderation decides whether a song request may enter a show's
// queue.  Everything here is a pure function of its inputs: the same config,
// candidate, history and clock reading always give the same verdict.
package moderation

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tocafy/tocafy-server/internal/model"
)

// Kind is the outcome class of a check.
type Kind string

const (
	Admit  Kind = "admit"
	Flag   Kind = "flag"
	Reject Kind = "reject"
)

// Reason explains a flag or reject verdict.
type Reason string

const (
	ReasonNone      Reason = ""
	ReasonProfanity Reason = "profanity"
	ReasonSpam      Reason = "spam"
	ReasonManual    Reason = "manual"
)

// Verdict is the result of Check.
type Verdict struct {
	Kind   Kind
	Reason Reason
}

func (v Verdict) String() string {
	if v.Reason == ReasonNone {
		return string(v.Kind)
	}
	return fmt.Sprintf("%s(%s)", v.Kind, v.Reason)
}

// Candidate carries the user-supplied text of a request.  For catalog
// requests Title and Artist come from the catalog song.
type Candidate struct {
	Title         string
	Artist        string
	Message       string
	RequesterName string
}

// ErrInvalidConfig is wrapped by Normalize failures.
var ErrInvalidConfig = errors.New("invalid moderation config")

// Check runs the admission rules in order: hard spam cap, blocked words,
// soft spam limit, manual review.  history holds the creation times of the
// requester's earlier requests in the same show; only entries inside the
// window ending at now are counted.
func Check(cfg model.ModerationConfig, c Candidate, history []time.Time, now time.Time) Verdict {
	recent := 0
	if cfg.SpamPrevention {
		recent = countWithin(history, now, time.Duration(cfg.TimeWindowMinutes)*time.Minute)
		if cfg.RejectLimit > 0 && recent >= cfg.RejectLimit {
			return Verdict{Kind: Reject, Reason: ReasonSpam}
		}
	}
	if cfg.ProfanityFilter && containsBlocked(cfg.BlockedWords, c.Title, c.Artist, c.Message) {
		return Verdict{Kind: Flag, Reason: ReasonProfanity}
	}
	if cfg.SpamPrevention && recent >= cfg.RequestLimit {
		return Verdict{Kind: Flag, Reason: ReasonSpam}
	}
	if cfg.RequireModeration {
		return Verdict{Kind: Flag, Reason: ReasonManual}
	}
	return Verdict{Kind: Admit}
}

func countWithin(history []time.Time, now time.Time, window time.Duration) int {
	since := now.Add(-window)
	n := 0
	for _, t := range history {
		if t.After(since) && !t.After(now) {
			n++
		}
	}
	return n
}

func containsBlocked(words []string, fields ...string) bool {
	if len(words) == 0 {
		return false
	}
	lowered := make([]string, len(fields))
	for i, f := range fields {
		lowered[i] = strings.ToLower(f)
	}
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		for _, f := range lowered {
			if strings.Contains(f, w) {
				return true
			}
		}
	}
	return false
}

// Normalize validates cfg and returns a copy with blocked words trimmed,
// lower-cased and deduplicated.  Limits and the window must be positive.
func Normalize(cfg model.ModerationConfig) (model.ModerationConfig, error) {
	if cfg.RequestLimit <= 0 {
		return cfg, fmt.Errorf("%w: request_limit must be positive", ErrInvalidConfig)
	}
	if cfg.TimeWindowMinutes <= 0 {
		return cfg, fmt.Errorf("%w: time_window_minutes must be positive", ErrInvalidConfig)
	}
	if cfg.RejectLimit < 0 {
		return cfg, fmt.Errorf("%w: reject_limit must not be negative", ErrInvalidConfig)
	}
	if cfg.RejectLimit > 0 && cfg.RejectLimit < cfg.RequestLimit {
		return cfg, fmt.Errorf("%w: reject_limit must be at least request_limit", ErrInvalidConfig)
	}
	seen := make(map[string]struct{}, len(cfg.BlockedWords))
	words := make([]string, 0, len(cfg.BlockedWords))
	for _, w := range cfg.BlockedWords {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		words = append(words, w)
	}
	cfg.BlockedWords = words
	return cfg, nil
}
