// Package repository defines error types that are reused across multiple
// repositories.  These sentinel values allow the service layer to tell the
// different failure scenarios apart without inspecting driver errors.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a write lost a race: a unique key was taken
// concurrently, or the database aborted the statement on a deadlock or lock
// wait.  Callers may retry the whole operation.
var ErrConflict = errors.New("conflict")

// ErrShowNotFound indicates that a show was not located in the DB.
var ErrShowNotFound = errors.New("show not found")

// ErrRequestNotFound indicates that a song request was not located in the DB.
var ErrRequestNotFound = errors.New("song request not found")

// ErrSongNotFound indicates that a song was not located in the DB.
var ErrSongNotFound = errors.New("song not found")

// ErrSettingsNotFound means the artist never saved moderation settings.
var ErrSettingsNotFound = errors.New("moderation settings not found")

// ErrNoChange indicates the UPDATE matched no row in the expected state.
var ErrNoChange = errors.New("no change")
