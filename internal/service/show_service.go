package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/tocafy/tocafy-server/internal/metrics"
	"github.com/tocafy/tocafy-server/internal/model"
	"github.com/tocafy/tocafy-server/internal/repository"
	"github.com/tocafy/tocafy-server/internal/showcode"
)

const (
	maxShowName     = 200
	maxShowLocation = 200
)

// NewShow is the input of CreateShow.
type NewShow struct {
	Name        string
	Description string
	Location    string
}

// ResolvePurpose selects which shows Resolve may return.
type ResolvePurpose int

const (
	// ResolveAudience only finds live shows.
	ResolveAudience ResolvePurpose = iota
	// ResolveArtist finds shows in any status.
	ResolveArtist
)

// ShowService owns shows and their status state machine.
type ShowService struct {
	*core
}

// CreateShow creates a draft show without a code.
func (s *ShowService) CreateShow(ctx context.Context, ownerID string, in NewShow) (*model.Show, error) {
	ctx, done := s.bounded(ctx, "create_show")
	defer done()

	if strings.TrimSpace(ownerID) == "" {
		return nil, validationf("owner is required")
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, validationf("name is required")
	}
	if utf8.RuneCountInString(name) > maxShowName {
		return nil, validationf("name longer than %d characters", maxShowName)
	}
	location := strings.TrimSpace(in.Location)
	if utf8.RuneCountInString(location) > maxShowLocation {
		return nil, validationf("location longer than %d characters", maxShowLocation)
	}

	now := s.now()
	show := &model.Show{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		Name:        name,
		Description: optional(in.Description),
		Location:    optional(location),
		Status:      model.ShowDraft,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.shows.Create(ctx, s.db, show); err != nil {
		return nil, translate(err)
	}
	s.log.Info("show created", "show_id", show.ID, "artist_id", ownerID)
	return show, nil
}

// Transition moves a show to target.  Only the owner may do so and only
// along the edges of the status table.  Entering live stamps StartedAt the
// first time; entering ended stamps EndedAt.
func (s *ShowService) Transition(ctx context.Context, showID string, target model.ShowStatus, actorID string) (*model.Show, error) {
	ctx, done := s.bounded(ctx, "show_transition")
	defer done()

	if !target.Valid() {
		return nil, validationf("unknown show status %q", target)
	}
	var out *model.Show
	err := s.inShow(ctx, showID, func(tx *sql.Tx, show *model.Show) error {
		if show.OwnerID != actorID {
			return fmt.Errorf("%w: show %s belongs to another artist", ErrForbidden, showID)
		}
		if !show.Status.CanTransitionTo(target) {
			return fmt.Errorf("%w: show %s is %s, cannot become %s", ErrInvalidTransition, showID, show.Status, target)
		}
		now := s.now()
		show.Status = target
		show.UpdatedAt = now
		switch target {
		case model.ShowLive:
			if show.StartedAt == nil {
				show.StartedAt = &now
			}
		case model.ShowEnded:
			show.EndedAt = &now
		}
		if err := s.shows.UpdateStatus(ctx, tx, show); err != nil {
			return err
		}
		out = show
		return nil
	})
	if err != nil {
		return nil, err
	}
	metrics.ShowTransitions.WithLabelValues(string(target)).Inc()
	s.log.WithShowID(showID).Info("show transitioned", "to", target)
	s.emit(ctx, []model.ChangeEvent{model.ShowChanged(out, out.UpdatedAt)})
	return out, nil
}

// Status returns the current status of a show.
func (s *ShowService) Status(ctx context.Context, showID string) (model.ShowStatus, error) {
	show, err := s.Get(ctx, showID)
	if err != nil {
		return "", err
	}
	return show.Status, nil
}

// Get returns a show by id.
func (s *ShowService) Get(ctx context.Context, showID string) (*model.Show, error) {
	ctx, done := s.bounded(ctx, "get_show")
	defer done()

	show, err := s.shows.GetByID(ctx, s.db, showID)
	if err != nil {
		return nil, translate(err)
	}
	return show, nil
}

// Owned is Get restricted to the show's owner.
func (s *ShowService) Owned(ctx context.Context, showID, actorID string) (*model.Show, error) {
	show, err := s.Get(ctx, showID)
	if err != nil {
		return nil, err
	}
	if show.OwnerID != actorID {
		return nil, fmt.Errorf("%w: show %s belongs to another artist", ErrForbidden, showID)
	}
	return show, nil
}

// ListByOwner returns the artist's shows, newest first.
func (s *ShowService) ListByOwner(ctx context.Context, ownerID string) ([]*model.Show, error) {
	ctx, done := s.bounded(ctx, "list_shows")
	defer done()

	shows, err := s.shows.ListByOwner(ctx, s.db, ownerID)
	if err != nil {
		return nil, translate(err)
	}
	return shows, nil
}

// EnsureCode returns the show's public code, generating and storing one
// from the artist's username and the show name when none is assigned yet.
// Codes never change once stored.  The show's status does not matter.
func (s *ShowService) EnsureCode(ctx context.Context, showID, actorID, username string) (string, error) {
	ctx, done := s.bounded(ctx, "ensure_code")
	defer done()

	if err := showcode.ValidateUsername(username); err != nil {
		return "", fmt.Errorf("%w: %w", ErrValidation, err)
	}
	var code string
	err := s.inShow(ctx, showID, func(tx *sql.Tx, show *model.Show) error {
		if show.OwnerID != actorID {
			return fmt.Errorf("%w: show %s belongs to another artist", ErrForbidden, showID)
		}
		if show.Code != nil {
			code = *show.Code
			return nil
		}
		exists := func(ctx context.Context, candidate string) (bool, error) {
			return s.shows.CodeExists(ctx, tx, candidate)
		}
		generated, err := showcode.Generate(ctx, exists, username, show.Name)
		if err != nil {
			if errors.Is(err, showcode.ErrInvalidUsername) {
				return fmt.Errorf("%w: %w", ErrValidation, err)
			}
			if errors.Is(err, showcode.ErrExhausted) {
				return fmt.Errorf("%w: %w", ErrConflict, err)
			}
			return err
		}
		if err := s.shows.SetCode(ctx, tx, showID, generated, s.now()); err != nil {
			return err
		}
		code = generated
		return nil
	})
	if err != nil {
		return "", err
	}
	return code, nil
}

// Resolve finds the show behind a public reference: a code, or a raw show
// id for old direct links.  For the audience only live shows resolve;
// anything else is reported as not found.
func (s *ShowService) Resolve(ctx context.Context, ref string, purpose ResolvePurpose) (*model.Show, error) {
	ctx, done := s.bounded(ctx, "resolve_show")
	defer done()

	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("%w: empty show reference", ErrNotFound)
	}
	show, err := s.shows.GetByCode(ctx, s.db, ref)
	if errors.Is(err, repository.ErrShowNotFound) && showcode.LooksLikeID(ref) {
		show, err = s.shows.GetByID(ctx, s.db, strings.ToLower(ref))
	}
	if err != nil {
		return nil, translate(err)
	}
	if purpose == ResolveAudience && show.Status != model.ShowLive {
		return nil, fmt.Errorf("%w: show %s is %s", ErrNotFound, show.ID, show.Status)
	}
	return show, nil
}

// optional trims s and returns nil when nothing is left.
func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
