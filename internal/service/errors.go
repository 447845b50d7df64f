// Package service implements the show lifecycle, the song request queue,
// the song library and per-artist moderation settings on top of the SQL
// repositories.  Every mutation of a show or of its queue runs under the
// show's exclusion scope and publishes change events after commit.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/tocafy/tocafy-server/internal/repository"
)

// Error taxonomy returned by every service operation.  Callers test with
// errors.Is; the wrapped message carries the detail.
var (
	ErrValidation         = errors.New("validation failed")
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidTransition  = errors.New("invalid transition")
	ErrShowNotLive        = errors.New("show is not live")
	ErrModerationRejected = errors.New("rejected by moderation")
	ErrTimeout            = errors.New("operation timed out")
	// ErrConflict marks a lost race detected by the database.  The whole
	// operation can be retried.
	ErrConflict = errors.New("conflict")
)

var taxonomy = []error{
	ErrValidation, ErrNotFound, ErrForbidden, ErrInvalidTransition,
	ErrShowNotLive, ErrModerationRejected, ErrTimeout, ErrConflict,
}

// translate maps repository and context errors onto the taxonomy.  Errors
// that already belong to it pass through unchanged.
func translate(err error) error {
	if err == nil {
		return nil
	}
	for _, known := range taxonomy {
		if errors.Is(err, known) {
			return err
		}
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	case errors.Is(err, repository.ErrShowNotFound),
		errors.Is(err, repository.ErrRequestNotFound),
		errors.Is(err, repository.ErrSongNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, repository.ErrConflict), errors.Is(err, repository.ErrNoChange):
		return fmt.Errorf("%w: %w", ErrConflict, err)
	case errors.Is(err, repository.ErrForbidden):
		return fmt.Errorf("%w: %w", ErrForbidden, err)
	}
	return err
}

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
