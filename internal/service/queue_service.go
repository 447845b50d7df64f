package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/tocafy/tocafy-server/internal/metrics"
	"github.com/tocafy/tocafy-server/internal/model"
	"github.com/tocafy/tocafy-server/internal/moderation"
	"github.com/tocafy/tocafy-server/internal/repository"
)

const (
	maxRequesterName = 120
	maxSongField     = 300
	maxMessage       = 1000
)

// Submission is what an audience member sends.  Either SongID or both
// custom fields must be set, never both forms.
type Submission struct {
	RequesterName string
	SongID        string
	CustomTitle   string
	CustomArtist  string
	Message       string
	TipCents      int64
}

// QueueService owns song requests and their queue positions.
type QueueService struct {
	*core
}

// Submit adds a request to a live show's queue.  The moderation verdict
// decides the outcome: admit and flag both create a pending request, flag
// additionally marks it for the artist's review; reject fails with
// ErrModerationRejected and stores nothing.  The new request takes the
// last position.
func (q *QueueService) Submit(ctx context.Context, showID string, in Submission) (*model.SongRequest, error) {
	ctx, done := q.bounded(ctx, "submit_request")
	defer done()

	in = normalizeSubmission(in)
	var (
		created *model.SongRequest
		verdict moderation.Verdict
		events  []model.ChangeEvent
	)
	err := q.inShow(ctx, showID, func(tx *sql.Tx, show *model.Show) error {
		if show.Status != model.ShowLive {
			return fmt.Errorf("%w: show %s is %s", ErrShowNotLive, showID, show.Status)
		}
		if err := validateSubmission(in); err != nil {
			return err
		}

		now := q.now()
		req := &model.SongRequest{
			ID:            uuid.NewString(),
			ShowID:        showID,
			RequesterName: in.RequesterName,
			Message:       optional(in.Message),
			TipCents:      in.TipCents,
			Status:        model.RequestPending,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if in.SongID != "" {
			song, err := q.songs.GetByID(ctx, tx, in.SongID)
			if errors.Is(err, repository.ErrSongNotFound) || (err == nil && song.ArtistID != show.OwnerID) {
				return fmt.Errorf("%w: song %s is not in this artist's library", ErrNotFound, in.SongID)
			}
			if err != nil {
				return err
			}
			if !song.IsAvailable {
				return validationf("song %s is not available for requests", song.ID)
			}
			req.SongID = &song.ID
			req.Title, req.Artist = song.Title, song.Artist
		} else {
			req.CustomTitle, req.CustomArtist = &in.CustomTitle, &in.CustomArtist
			req.Title, req.Artist = in.CustomTitle, in.CustomArtist
		}

		cfg, err := q.moderationConfig(ctx, tx, show.OwnerID)
		if err != nil {
			return err
		}
		history, err := q.requests.RequesterHistory(ctx, tx, showID, in.RequesterName)
		if err != nil {
			return err
		}
		verdict = moderation.Check(cfg, moderation.Candidate{
			Title:         req.Title,
			Artist:        req.Artist,
			Message:       in.Message,
			RequesterName: in.RequesterName,
		}, history, now)
		switch verdict.Kind {
		case moderation.Reject:
			return fmt.Errorf("%w: %s", ErrModerationRejected, verdict.Reason)
		case moderation.Flag:
			reason := string(verdict.Reason)
			req.Flagged = true
			req.FlagReason = &reason
		}

		active, err := q.requests.ListActive(ctx, tx, showID)
		if err != nil {
			return err
		}
		seq, err := q.requests.MaxSeq(ctx, tx, showID)
		if err != nil {
			return err
		}
		position := len(active) + 1
		req.Position = &position
		req.Seq = seq + 1
		if err := q.requests.Create(ctx, tx, req); err != nil {
			return err
		}

		changed, err := q.recompute(ctx, tx, showID, now)
		if err != nil {
			return err
		}
		created = req
		events = append(events, model.RequestChanged(req, now))
		events = append(events, positionEvents(changed, req.ID, now)...)
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrModerationRejected) {
			metrics.RequestsSubmitted.WithLabelValues(string(moderation.Reject)).Inc()
		}
		return nil, err
	}
	metrics.RequestsSubmitted.WithLabelValues(string(verdict.Kind)).Inc()
	q.log.WithShowID(showID).Info("request submitted", "request_id", created.ID, "verdict", verdict.String())
	q.emit(ctx, events)
	return created, nil
}

// Accept moves a pending request to accepted.  Accepting a flagged request
// also approves it.
func (q *QueueService) Accept(ctx context.Context, requestID, actorID string) (*model.SongRequest, error) {
	return q.transition(ctx, "accept_request", requestID, actorID, model.RequestAccepted,
		func(_ context.Context, _ *sql.Tx, req *model.SongRequest, now time.Time) ([]model.ChangeEvent, error) {
			req.AcceptedAt = &now
			req.Flagged = false
			req.FlagReason = nil
			return nil, nil
		})
}

// Play moves an accepted request to playing.  Any other request of the show
// still playing is completed first, so at most one request plays at a time.
func (q *QueueService) Play(ctx context.Context, requestID, actorID string) (*model.SongRequest, error) {
	return q.transition(ctx, "play_request", requestID, actorID, model.RequestPlaying,
		func(ctx context.Context, tx *sql.Tx, req *model.SongRequest, now time.Time) ([]model.ChangeEvent, error) {
			playing, err := q.requests.ListByStatus(ctx, tx, req.ShowID, model.RequestPlaying)
			if err != nil {
				return nil, err
			}
			var events []model.ChangeEvent
			for _, other := range playing {
				if other.ID == req.ID {
					continue
				}
				other.Status = model.RequestPlayed
				other.PlayedAt = &now
				other.Position = nil
				other.UpdatedAt = now
				if err := q.requests.Update(ctx, tx, other); err != nil {
					return nil, err
				}
				metrics.RequestTransitions.WithLabelValues(string(model.RequestPlayed)).Inc()
				events = append(events, model.RequestChanged(other, now))
			}
			return events, nil
		})
}

// Complete moves a playing request to played.
func (q *QueueService) Complete(ctx context.Context, requestID, actorID string) (*model.SongRequest, error) {
	return q.transition(ctx, "complete_request", requestID, actorID, model.RequestPlayed,
		func(_ context.Context, _ *sql.Tx, req *model.SongRequest, now time.Time) ([]model.ChangeEvent, error) {
			req.PlayedAt = &now
			return nil, nil
		})
}

// Skip removes a pending or accepted request from the queue.  Skipping is
// also how a flagged request is rejected.
func (q *QueueService) Skip(ctx context.Context, requestID, actorID string) (*model.SongRequest, error) {
	return q.transition(ctx, "skip_request", requestID, actorID, model.RequestSkipped, nil)
}

// Approve clears the flag of a pending flagged request so it shows up in
// the audience queue.  Its status and position do not change.
func (q *QueueService) Approve(ctx context.Context, requestID, actorID string) (*model.SongRequest, error) {
	ctx, done := q.bounded(ctx, "approve_request")
	defer done()

	var out *model.SongRequest
	err := q.inRequest(ctx, requestID, actorID, func(tx *sql.Tx, req *model.SongRequest) error {
		if req.Status != model.RequestPending || !req.Flagged {
			return fmt.Errorf("%w: request %s is not awaiting approval", ErrInvalidTransition, requestID)
		}
		req.Flagged = false
		req.FlagReason = nil
		req.UpdatedAt = q.now()
		if err := q.requests.Update(ctx, tx, req); err != nil {
			return err
		}
		out = req
		return nil
	})
	if err != nil {
		return nil, err
	}
	q.log.WithShowID(out.ShowID).Info("request approved", "request_id", out.ID)
	q.emit(ctx, []model.ChangeEvent{model.RequestChanged(out, out.UpdatedAt)})
	return out, nil
}

// RecomputePositions renumbers the show's active requests 1..N in
// submission order.  Every queue mutation already does this; the explicit
// call repairs positions written by other tools.
func (q *QueueService) RecomputePositions(ctx context.Context, showID, actorID string) ([]*model.SongRequest, error) {
	ctx, done := q.bounded(ctx, "recompute_positions")
	defer done()

	var (
		active []*model.SongRequest
		events []model.ChangeEvent
	)
	err := q.inShow(ctx, showID, func(tx *sql.Tx, show *model.Show) error {
		if show.OwnerID != actorID {
			return fmt.Errorf("%w: show %s belongs to another artist", ErrForbidden, showID)
		}
		now := q.now()
		if err := q.clearInactivePositions(ctx, tx, showID, now); err != nil {
			return err
		}
		changed, err := q.recompute(ctx, tx, showID, now)
		if err != nil {
			return err
		}
		events = positionEvents(changed, "", now)
		active, err = q.requests.ListActive(ctx, tx, showID)
		return err
	})
	if err != nil {
		return nil, err
	}
	q.emit(ctx, events)
	return active, nil
}

// ListForArtist returns every request of the show, flagged ones included,
// in submission order.
func (q *QueueService) ListForArtist(ctx context.Context, showID, actorID string) ([]*model.SongRequest, error) {
	ctx, done := q.bounded(ctx, "list_requests")
	defer done()

	show, err := q.shows.GetByID(ctx, q.db, showID)
	if err != nil {
		return nil, translate(err)
	}
	if show.OwnerID != actorID {
		return nil, fmt.Errorf("%w: show %s belongs to another artist", ErrForbidden, showID)
	}
	reqs, err := q.requests.ListByShow(ctx, q.db, showID)
	if err != nil {
		return nil, translate(err)
	}
	return reqs, nil
}

// PublicQueue is the audience view of a show: the playing request, then
// the active requests that are not held for review, by position.
func (q *QueueService) PublicQueue(ctx context.Context, showID string) ([]*model.SongRequest, error) {
	ctx, done := q.bounded(ctx, "public_queue")
	defer done()

	reqs, err := q.requests.ListByStatus(ctx, q.db, showID,
		model.RequestPlaying, model.RequestPending, model.RequestAccepted)
	if err != nil {
		return nil, translate(err)
	}
	out := make([]*model.SongRequest, 0, len(reqs))
	for _, r := range reqs {
		if r.Flagged && r.Status.Active() {
			continue
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return queueRank(out[i]) < queueRank(out[j])
	})
	return out, nil
}

// queueRank puts the playing request first and the rest by position.
func queueRank(r *model.SongRequest) int {
	if r.Status == model.RequestPlaying || r.Position == nil {
		return 0
	}
	return *r.Position
}

type transitionHook func(ctx context.Context, tx *sql.Tx, req *model.SongRequest, now time.Time) ([]model.ChangeEvent, error)

// transition is the shared body of the request state changes: owner check,
// state table check, the hook, the write and the position recompute, all in
// the show's exclusion scope.
func (q *QueueService) transition(ctx context.Context, op, requestID, actorID string, target model.RequestStatus, hook transitionHook) (*model.SongRequest, error) {
	ctx, done := q.bounded(ctx, op)
	defer done()

	var (
		out    *model.SongRequest
		events []model.ChangeEvent
	)
	err := q.inRequest(ctx, requestID, actorID, func(tx *sql.Tx, req *model.SongRequest) error {
		if !req.Status.CanTransitionTo(target) {
			return fmt.Errorf("%w: request %s is %s, cannot become %s", ErrInvalidTransition, requestID, req.Status, target)
		}
		now := q.now()
		if hook != nil {
			extra, err := hook(ctx, tx, req, now)
			if err != nil {
				return err
			}
			events = append(events, extra...)
		}
		req.Status = target
		req.UpdatedAt = now
		if !target.Active() {
			req.Position = nil
		}
		if err := q.requests.Update(ctx, tx, req); err != nil {
			return err
		}
		changed, err := q.recompute(ctx, tx, req.ShowID, now)
		if err != nil {
			return err
		}
		out = req
		events = append(events, model.RequestChanged(req, now))
		events = append(events, positionEvents(changed, req.ID, now)...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	metrics.RequestTransitions.WithLabelValues(string(target)).Inc()
	q.log.WithShowID(out.ShowID).Info("request transitioned", "request_id", out.ID, "to", target)
	q.emit(ctx, events)
	return out, nil
}

// inRequest locates the request's show, enters the show's exclusion scope,
// re-reads the request inside the transaction and checks that actorID owns
// the show.
func (q *QueueService) inRequest(ctx context.Context, requestID, actorID string, fn func(tx *sql.Tx, req *model.SongRequest) error) error {
	probe, err := q.requests.GetByID(ctx, q.db, requestID)
	if err != nil {
		return translate(err)
	}
	return q.inShow(ctx, probe.ShowID, func(tx *sql.Tx, show *model.Show) error {
		if show.OwnerID != actorID {
			return fmt.Errorf("%w: show %s belongs to another artist", ErrForbidden, show.ID)
		}
		req, err := q.requests.GetByID(ctx, tx, requestID)
		if err != nil {
			return err
		}
		return fn(tx, req)
	})
}

// clearInactivePositions drops stale positions from requests that already
// left the queue.
func (q *QueueService) clearInactivePositions(ctx context.Context, tx *sql.Tx, showID string, now time.Time) error {
	left, err := q.requests.ListByStatus(ctx, tx, showID, model.RequestPlaying, model.RequestPlayed, model.RequestSkipped)
	if err != nil {
		return err
	}
	for _, r := range left {
		if r.Position == nil {
			continue
		}
		if err := q.requests.SetPosition(ctx, tx, r.ID, nil, now); err != nil {
			return err
		}
	}
	return nil
}

func (q *QueueService) moderationConfig(ctx context.Context, tx *sql.Tx, artistID string) (model.ModerationConfig, error) {
	cfg, err := q.settings.Get(ctx, tx, artistID)
	if errors.Is(err, repository.ErrSettingsNotFound) {
		return model.DefaultModerationConfig(artistID), nil
	}
	if err != nil {
		return model.ModerationConfig{}, err
	}
	return *cfg, nil
}

// positionEvents builds events for requests whose position moved, leaving
// out skipID which already has its own event.
func positionEvents(changed []*model.SongRequest, skipID string, now time.Time) []model.ChangeEvent {
	var events []model.ChangeEvent
	for _, r := range changed {
		if r.ID == skipID {
			continue
		}
		events = append(events, model.RequestChanged(r, now))
	}
	return events
}

func normalizeSubmission(in Submission) Submission {
	in.RequesterName = strings.TrimSpace(in.RequesterName)
	in.SongID = strings.TrimSpace(in.SongID)
	in.CustomTitle = strings.TrimSpace(in.CustomTitle)
	in.CustomArtist = strings.TrimSpace(in.CustomArtist)
	in.Message = strings.TrimSpace(in.Message)
	return in
}

func validateSubmission(in Submission) error {
	if in.RequesterName == "" {
		return validationf("requester name is required")
	}
	if utf8.RuneCountInString(in.RequesterName) > maxRequesterName {
		return validationf("requester name longer than %d characters", maxRequesterName)
	}
	hasCustom := in.CustomTitle != "" || in.CustomArtist != ""
	switch {
	case in.SongID != "" && hasCustom:
		return validationf("give either a catalog song or a custom title and artist, not both")
	case in.SongID == "" && (in.CustomTitle == "" || in.CustomArtist == ""):
		return validationf("a catalog song or both custom title and artist are required")
	}
	if utf8.RuneCountInString(in.CustomTitle) > maxSongField || utf8.RuneCountInString(in.CustomArtist) > maxSongField {
		return validationf("custom title and artist are limited to %d characters", maxSongField)
	}
	if utf8.RuneCountInString(in.Message) > maxMessage {
		return validationf("message longer than %d characters", maxMessage)
	}
	if in.TipCents < 0 {
		return validationf("tip must not be negative")
	}
	return nil
}
