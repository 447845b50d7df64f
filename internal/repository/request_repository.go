package repository

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/tocafy/tocafy-server/internal/model"
)

// requestSelect reads a request together with the title and artist shown to
// users: the catalog song's for catalog requests, the custom pair otherwise.
const requestSelect = `SELECT r.id, r.show_id, r.song_id, r.custom_song_title, r.custom_song_artist,
       COALESCE(s.title, r.custom_song_title, ''), COALESCE(s.artist, r.custom_song_artist, ''),
       r.requester_name, r.message, r.tip_cents, r.status, r.flagged, r.flag_reason,
       r.position_in_queue, r.seq, r.created_at, r.accepted_at, r.played_at, r.updated_at
FROM song_requests r
LEFT JOIN songs s ON s.id = r.song_id`

// RequestRepo manages persistence for song requests.
type RequestRepo struct {
	dialect Dialect
}

// NewRequestRepo constructs a RequestRepo for the given dialect.
func NewRequestRepo(d Dialect) *RequestRepo {
	return &RequestRepo{dialect: d}
}

// Create inserts a new request.  The caller assigns every field, including
// Seq; a duplicate (show_id, seq) surfaces as ErrConflict.
func (r *RequestRepo) Create(ctx context.Context, q Querier, req *model.SongRequest) error {
	const ins = `INSERT INTO song_requests
  (id, show_id, song_id, custom_song_title, custom_song_artist, requester_name, message, tip_cents,
   status, flagged, flag_reason, position_in_queue, seq, created_at, accepted_at, played_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := q.ExecContext(ctx, ins,
		req.ID, req.ShowID, req.SongID, req.CustomTitle, req.CustomArtist, req.RequesterName, req.Message, req.TipCents,
		string(req.Status), req.Flagged, req.FlagReason, req.Position, req.Seq, req.CreatedAt, req.AcceptedAt, req.PlayedAt, req.UpdatedAt,
	)
	return classify(err)
}

// GetByID retrieves a request.  It returns ErrRequestNotFound if there is
// no matching row.
func (r *RequestRepo) GetByID(ctx context.Context, q Querier, id string) (*model.SongRequest, error) {
	req, err := scanRequest(q.QueryRowContext(ctx, requestSelect+` WHERE r.id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRequestNotFound
		}
		return nil, classify(err)
	}
	return req, nil
}

// ListByShow returns every request of a show in submission order.
func (r *RequestRepo) ListByShow(ctx context.Context, q Querier, showID string) ([]*model.SongRequest, error) {
	return r.list(ctx, q, requestSelect+` WHERE r.show_id = ?`, showID)
}

// ListByStatus returns the show's requests in any of the given statuses, in
// submission order.
func (r *RequestRepo) ListByStatus(ctx context.Context, q Querier, showID string, statuses ...model.RequestStatus) ([]*model.SongRequest, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	args := make([]any, 0, len(statuses)+1)
	args = append(args, showID)
	for _, st := range statuses {
		args = append(args, string(st))
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(statuses)), ", ")
	return r.list(ctx, q, requestSelect+` WHERE r.show_id = ? AND r.status IN (`+placeholders+`)`, args...)
}

// ListActive returns the show's pending and accepted requests in queue
// order.
func (r *RequestRepo) ListActive(ctx context.Context, q Querier, showID string) ([]*model.SongRequest, error) {
	return r.ListByStatus(ctx, q, showID, model.ActiveStatuses...)
}

// MaxSeq returns the highest submission counter used in the show, or 0.
func (r *RequestRepo) MaxSeq(ctx context.Context, q Querier, showID string) (int64, error) {
	var n int64
	err := q.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) FROM song_requests WHERE show_id = ?`, showID).Scan(&n)
	return n, classify(err)
}

// RequesterHistory returns the creation times of every request in the show
// whose requester name matches name, ignoring case.  Names are compared in
// Go so the rule does not depend on the column collation.
func (r *RequestRepo) RequesterHistory(ctx context.Context, q Querier, showID, name string) ([]time.Time, error) {
	rows, err := q.QueryContext(ctx, `SELECT requester_name, created_at FROM song_requests WHERE show_id = ?`, showID)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	name = strings.TrimSpace(name)
	var out []time.Time
	for rows.Next() {
		var (
			who string
			at  time.Time
		)
		if err := rows.Scan(&who, &at); err != nil {
			return nil, err
		}
		if strings.EqualFold(strings.TrimSpace(who), name) {
			out = append(out, at.UTC())
		}
	}
	return out, rows.Err()
}

// Update writes the mutable fields of req: status, flag, position and the
// lifecycle timestamps.
func (r *RequestRepo) Update(ctx context.Context, q Querier, req *model.SongRequest) error {
	const upd = `UPDATE song_requests
SET status = ?, flagged = ?, flag_reason = ?, position_in_queue = ?, accepted_at = ?, played_at = ?, updated_at = ?
WHERE id = ?`
	res, err := q.ExecContext(ctx, upd,
		string(req.Status), req.Flagged, req.FlagReason, req.Position, req.AcceptedAt, req.PlayedAt, req.UpdatedAt, req.ID,
	)
	if err != nil {
		return classify(err)
	}
	return expectOne(res, ErrRequestNotFound)
}

// SetPosition stores a queue position, or clears it when pos is nil.
func (r *RequestRepo) SetPosition(ctx context.Context, q Querier, id string, pos *int, now time.Time) error {
	res, err := q.ExecContext(ctx, `UPDATE song_requests SET position_in_queue = ?, updated_at = ? WHERE id = ?`, pos, now, id)
	if err != nil {
		return classify(err)
	}
	return expectOne(res, ErrRequestNotFound)
}

func (r *RequestRepo) list(ctx context.Context, q Querier, query string, args ...any) ([]*model.SongRequest, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var out []*model.SongRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	SortBySubmission(out)
	return out, nil
}

// SortBySubmission orders requests by creation time, then by the per-show
// submission counter.  This is the queue order.
func SortBySubmission(reqs []*model.SongRequest) {
	sort.SliceStable(reqs, func(i, j int) bool {
		if !reqs[i].CreatedAt.Equal(reqs[j].CreatedAt) {
			return reqs[i].CreatedAt.Before(reqs[j].CreatedAt)
		}
		return reqs[i].Seq < reqs[j].Seq
	})
}

func scanRequest(sc rowScanner) (*model.SongRequest, error) {
	var (
		req                               model.SongRequest
		status                            string
		songID, customTitle, customArtist sql.NullString
		message, flagReason               sql.NullString
		position                          sql.NullInt64
		acceptedAt, playedAt              sql.NullTime
		createdAt, updatedAt              time.Time
	)
	if err := sc.Scan(
		&req.ID, &req.ShowID, &songID, &customTitle, &customArtist,
		&req.Title, &req.Artist,
		&req.RequesterName, &message, &req.TipCents, &status, &req.Flagged, &flagReason,
		&position, &req.Seq, &createdAt, &acceptedAt, &playedAt, &updatedAt,
	); err != nil {
		return nil, err
	}
	req.Status = model.RequestStatus(status)
	req.SongID = nullStringPtr(songID)
	req.CustomTitle = nullStringPtr(customTitle)
	req.CustomArtist = nullStringPtr(customArtist)
	req.Message = nullStringPtr(message)
	req.FlagReason = nullStringPtr(flagReason)
	req.Position = nullIntPtr(position)
	req.CreatedAt = createdAt.UTC()
	req.UpdatedAt = updatedAt.UTC()
	req.AcceptedAt = nullTimePtr(acceptedAt)
	req.PlayedAt = nullTimePtr(playedAt)
	return &req, nil
}
