// Package repository contains data access logic for shows, songs, song
// requests and moderation settings.  Repositories are stateless apart from
// the dialect; the caller passes the Querier so several repositories can
// share one transaction.
package repository

import (
	"context"      // context for controlling query lifetime
	"database/sql" // sql provides DB abstraction
	"errors"       // errors for sentinel checks
	"time"

	"github.com/tocafy/tocafy-server/internal/model"
)

const showColumns = `id, artist_id, name, description, location, status, username_code, created_at, updated_at, started_at, ended_at`

// ShowRepo manages persistence for shows.
type ShowRepo struct {
	dialect Dialect
}

// NewShowRepo constructs a ShowRepo for the given dialect.
func NewShowRepo(d Dialect) *ShowRepo {
	return &ShowRepo{dialect: d}
}

// Create inserts a new show.  The caller assigns ID, status and timestamps.
func (r *ShowRepo) Create(ctx context.Context, q Querier, s *model.Show) error {
	const ins = `INSERT INTO shows (` + showColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := q.ExecContext(ctx, ins,
		s.ID, s.OwnerID, s.Name, s.Description, s.Location, string(s.Status), s.Code,
		s.CreatedAt, s.UpdatedAt, s.StartedAt, s.EndedAt,
	)
	return classify(err)
}

// GetByID retrieves a show by its ID.  It returns ErrShowNotFound if
// there is no matching row.
func (r *ShowRepo) GetByID(ctx context.Context, q Querier, id string) (*model.Show, error) {
	return r.getOne(ctx, q, `SELECT `+showColumns+` FROM shows WHERE id = ?`, id)
}

// GetForUpdate is GetByID plus a row lock held until the surrounding
// transaction ends.  Every show or queue mutation starts with it.
func (r *ShowRepo) GetForUpdate(ctx context.Context, q Querier, id string) (*model.Show, error) {
	return r.getOne(ctx, q, `SELECT `+showColumns+` FROM shows WHERE id = ?`+r.dialect.lockSuffix(), id)
}

// GetByCode retrieves a show by its public code.
func (r *ShowRepo) GetByCode(ctx context.Context, q Querier, code string) (*model.Show, error) {
	return r.getOne(ctx, q, `SELECT `+showColumns+` FROM shows WHERE username_code = ?`, code)
}

// CodeExists reports whether any show already carries code.
func (r *ShowRepo) CodeExists(ctx context.Context, q Querier, code string) (bool, error) {
	var n int
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM shows WHERE username_code = ?`, code).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListByOwner returns the artist's shows, newest first.
func (r *ShowRepo) ListByOwner(ctx context.Context, q Querier, ownerID string) ([]*model.Show, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+showColumns+` FROM shows WHERE artist_id = ? ORDER BY created_at DESC, id`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Show
	for rows.Next() {
		s, err := scanShow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// UpdateStatus writes status, started_at, ended_at and updated_at from s.
func (r *ShowRepo) UpdateStatus(ctx context.Context, q Querier, s *model.Show) error {
	const upd = `UPDATE shows SET status = ?, started_at = ?, ended_at = ?, updated_at = ? WHERE id = ?`
	res, err := q.ExecContext(ctx, upd, string(s.Status), s.StartedAt, s.EndedAt, s.UpdatedAt, s.ID)
	if err != nil {
		return classify(err)
	}
	return expectOne(res, ErrShowNotFound)
}

// SetCode assigns a code to a show that has none.  It returns ErrNoChange
// when the show already has a code and ErrConflict when another show took
// the same code first.
func (r *ShowRepo) SetCode(ctx context.Context, q Querier, id, code string, now time.Time) error {
	const upd = `UPDATE shows SET username_code = ?, updated_at = ? WHERE id = ? AND username_code IS NULL`
	res, err := q.ExecContext(ctx, upd, code, now, id)
	if err != nil {
		return classify(err)
	}
	return expectOne(res, ErrNoChange)
}

func (r *ShowRepo) getOne(ctx context.Context, q Querier, query string, arg any) (*model.Show, error) {
	s, err := scanShow(q.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrShowNotFound
		}
		return nil, classify(err)
	}
	return s, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanShow(sc rowScanner) (*model.Show, error) {
	var (
		s                model.Show
		status           string
		desc, loc, code  sql.NullString
		started, ended   sql.NullTime
		created, updated time.Time
	)
	if err := sc.Scan(&s.ID, &s.OwnerID, &s.Name, &desc, &loc, &status, &code,
		&created, &updated, &started, &ended); err != nil {
		return nil, err
	}
	s.Status = model.ShowStatus(status)
	s.Description = nullStringPtr(desc)
	s.Location = nullStringPtr(loc)
	s.Code = nullStringPtr(code)
	s.CreatedAt = created.UTC()
	s.UpdatedAt = updated.UTC()
	s.StartedAt = nullTimePtr(started)
	s.EndedAt = nullTimePtr(ended)
	return &s, nil
}

// expectOne turns "zero rows affected" into notFound.  The MySQL DSN sets
// clientFoundRows, so an UPDATE that matched but changed nothing still
// counts as one.
func expectOne(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}
