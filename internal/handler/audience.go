// This file defines the audience API.  These routes are public: an audience
// member only knows the show's code (or its id from an old link) and sees
// sanitized data.  Requester messages, tips of others, flag reasons and
// owner ids are never exposed.

package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tocafy/tocafy-server/internal/logger"
	"github.com/tocafy/tocafy-server/internal/model"
	"github.com/tocafy/tocafy-server/internal/realtime"
	"github.com/tocafy/tocafy-server/internal/service"
)

// AudienceHandler serves the pages behind a show's QR code.
type AudienceHandler struct {
	Shows  *service.ShowService
	Queue  *service.QueueService
	Songs  *service.SongService
	Hub    *realtime.Hub // nil disables the live feed
	Origin string        // allowed websocket Origin; empty allows any
	Log    *logger.Logger
}

// NewAudienceHandler constructs an AudienceHandler and panics if a service
// is missing.
func NewAudienceHandler(svcs *service.Services, hub *realtime.Hub, origin string, log *logger.Logger) *AudienceHandler {
	if svcs == nil || svcs.Shows == nil || svcs.Queue == nil || svcs.Songs == nil {
		panic("nil service passed to NewAudienceHandler")
	}
	if log == nil {
		log = logger.Discard()
	}
	return &AudienceHandler{Shows: svcs.Shows, Queue: svcs.Queue, Songs: svcs.Songs, Hub: hub, Origin: origin, Log: log}
}

// PublicShow is a show as the audience sees it.
type PublicShow struct {
	ID        string     `json:"id"`
	Code      string     `json:"code,omitempty"`
	Name      string     `json:"name"`
	Location  *string    `json:"location,omitempty"`
	Status    string     `json:"status"`
	StartedAt *time.Time `json:"started_at,omitempty"`
}

// PublicRequest is a queue entry as the audience sees it.
type PublicRequest struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Artist        string `json:"artist"`
	RequesterName string `json:"requester_name"`
	Status        string `json:"status"`
	Position      *int   `json:"position,omitempty"`
}

// PublicSong is a library entry offered on the request form.
type PublicSong struct {
	ID              string  `json:"id"`
	Title           string  `json:"title"`
	Artist          string  `json:"artist"`
	Key             *string `json:"key,omitempty"`
	Genre           *string `json:"genre,omitempty"`
	DurationSeconds *int    `json:"duration_seconds,omitempty"`
}

func publicShow(s *model.Show) PublicShow {
	out := PublicShow{ID: s.ID, Name: s.Name, Location: s.Location, Status: string(s.Status), StartedAt: s.StartedAt}
	if s.Code != nil {
		out.Code = *s.Code
	}
	return out
}

func publicRequest(r *model.SongRequest) PublicRequest {
	return PublicRequest{
		ID:            r.ID,
		Title:         r.Title,
		Artist:        r.Artist,
		RequesterName: r.RequesterName,
		Status:        string(r.Status),
		Position:      r.Position,
	}
}

// resolve looks up the live show behind :code.
func (h *AudienceHandler) resolve(c echo.Context) (*model.Show, error) {
	return h.Shows.Resolve(c.Request().Context(), c.Param("code"), service.ResolveAudience)
}

// GetShow handles GET /v1/audience/:code.
func (h *AudienceHandler) GetShow(c echo.Context) error {
	show, err := h.resolve(c)
	if err != nil {
		return respondAudienceError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, publicShow(show))
}

// GetQueue handles GET /v1/audience/:code/queue: the playing request
// first, then the queue by position.  Requests held for review are hidden.
func (h *AudienceHandler) GetQueue(c echo.Context) error {
	show, err := h.resolve(c)
	if err != nil {
		return respondAudienceError(c, h.Log, err)
	}
	reqs, err := h.Queue.PublicQueue(c.Request().Context(), show.ID)
	if err != nil {
		return respondAudienceError(c, h.Log, err)
	}
	out := make([]PublicRequest, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, publicRequest(r))
	}
	return c.JSON(http.StatusOK, items(out))
}

// SearchSongs handles GET /v1/audience/:code/songs?q=&limit=.
func (h *AudienceHandler) SearchSongs(c echo.Context) error {
	show, err := h.resolve(c)
	if err != nil {
		return respondAudienceError(c, h.Log, err)
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	songs, err := h.Songs.Search(c.Request().Context(), show.OwnerID, c.QueryParam("q"), limit)
	if err != nil {
		return respondAudienceError(c, h.Log, err)
	}
	out := make([]PublicSong, 0, len(songs))
	for _, s := range songs {
		out = append(out, PublicSong{
			ID: s.ID, Title: s.Title, Artist: s.Artist, Key: s.Key, Genre: s.Genre, DurationSeconds: s.DurationSeconds,
		})
	}
	return c.JSON(http.StatusOK, items(out))
}

// SubmitRequest handles POST /v1/audience/:code/requests.  A flagged
// request is still accepted (201) and waits for the artist's review.
func (h *AudienceHandler) SubmitRequest(c echo.Context) error {
	show, err := h.resolve(c)
	if err != nil {
		return respondAudienceError(c, h.Log, err)
	}
	var body struct {
		RequesterName string `json:"requester_name"`
		SongID        string `json:"song_id"`
		CustomTitle   string `json:"custom_title"`
		CustomArtist  string `json:"custom_artist"`
		Message       string `json:"message"`
		TipCents      int64  `json:"tip_cents"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "request could not be submitted"})
	}
	req, err := h.Queue.Submit(c.Request().Context(), show.ID, service.Submission{
		RequesterName: body.RequesterName,
		SongID:        body.SongID,
		CustomTitle:   body.CustomTitle,
		CustomArtist:  body.CustomArtist,
		Message:       body.Message,
		TipCents:      body.TipCents,
	})
	if err != nil {
		return respondAudienceError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"id":       req.ID,
		"status":   req.Status,
		"position": req.Position,
		"flagged":  req.Flagged,
	})
}

// Live handles GET /v1/audience/:code/live, a websocket that streams the
// show's change events.  Requests held for review stay off this stream.
func (h *AudienceHandler) Live(c echo.Context) error {
	if h.Hub == nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "live updates are disabled"})
	}
	show, err := h.resolve(c)
	if err != nil {
		return respondAudienceError(c, h.Log, err)
	}
	if err := h.Hub.ServeWS(c.Response(), c.Request(), show.ID, h.Origin, realtime.Audience); err != nil {
		// The upgrader already wrote the HTTP error.
		h.Log.WithContext(c.Request().Context()).Debug("websocket upgrade failed", "show_id", show.ID, "error", err)
	}
	return nil
}
