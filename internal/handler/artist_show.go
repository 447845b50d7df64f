package handler // handler package contains artist-side show handlers

import (
	"net/http" // http defines status codes

	"github.com/labstack/echo/v4" // echo provides the web context and JSON helpers

	"github.com/tocafy/tocafy-server/internal/logger"
	"github.com/tocafy/tocafy-server/internal/middleware"
	"github.com/tocafy/tocafy-server/internal/model"
	"github.com/tocafy/tocafy-server/internal/realtime"
	"github.com/tocafy/tocafy-server/internal/service"
	"github.com/tocafy/tocafy-server/internal/showcode"
)

// ArtistHandler bundles the services an artist uses to run shows, the
// request queue, the song library and moderation settings.
type ArtistHandler struct {
	Shows      *service.ShowService
	Queue      *service.QueueService
	Songs      *service.SongService
	Moderation *service.ModerationService
	Hub        *realtime.Hub // nil disables the live feed
	Origin     string        // public origin used in share links and the websocket Origin check
	Log        *logger.Logger
}

// NewArtistHandler constructs an ArtistHandler and panics if a service is
// missing.
func NewArtistHandler(svcs *service.Services, hub *realtime.Hub, origin string, log *logger.Logger) *ArtistHandler {
	if svcs == nil || svcs.Shows == nil || svcs.Queue == nil || svcs.Songs == nil || svcs.Moderation == nil {
		panic("nil service passed to NewArtistHandler")
	}
	if log == nil {
		log = logger.Discard()
	}
	return &ArtistHandler{
		Shows:      svcs.Shows,
		Queue:      svcs.Queue,
		Songs:      svcs.Songs,
		Moderation: svcs.Moderation,
		Hub:        hub,
		Origin:     origin,
		Log:        log,
	}
}

// ShowView is a show plus its share links once a code exists.
type ShowView struct {
	*model.Show
	AudienceURL string `json:"audience_url,omitempty"`
	ShowURL     string `json:"show_url"`
}

func (h *ArtistHandler) view(s *model.Show) ShowView {
	v := ShowView{Show: s, ShowURL: showcode.ShowURL(h.Origin, s.ID)}
	if s.Code != nil {
		v.AudienceURL = showcode.AudienceURL(h.Origin, *s.Code)
	}
	return v
}

// CreateShow handles POST /v1/shows.  New shows start as drafts.
func (h *ArtistHandler) CreateShow(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Location    string `json:"location"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	show, err := h.Shows.CreateShow(c.Request().Context(), ownerID, service.NewShow{
		Name:        body.Name,
		Description: body.Description,
		Location:    body.Location,
	})
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, h.view(show))
}

// ListShows handles GET /v1/shows: the artist's shows, newest first.
func (h *ArtistHandler) ListShows(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	shows, err := h.Shows.ListByOwner(c.Request().Context(), ownerID)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	out := make([]ShowView, 0, len(shows))
	for _, s := range shows {
		out = append(out, h.view(s))
	}
	return c.JSON(http.StatusOK, items(out))
}

// GetShow handles GET /v1/shows/:id.
func (h *ArtistHandler) GetShow(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	show, err := h.Shows.Owned(c.Request().Context(), c.Param("id"), ownerID)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, h.view(show))
}

// SetShowStatus handles POST /v1/shows/:id/status with {"status": "live"}.
func (h *ArtistHandler) SetShowStatus(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&body); err != nil || body.Status == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "status is required"})
	}
	show, err := h.Shows.Transition(c.Request().Context(), c.Param("id"), model.ShowStatus(body.Status), ownerID)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, h.view(show))
}

// EnsureCode handles POST /v1/shows/:id/code.  The code is derived from the
// username claim of the artist's token and returned with the join link.
func (h *ArtistHandler) EnsureCode(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	username := middleware.Username(c)
	if username == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "token has no username"})
	}
	showID := c.Param("id")
	code, err := h.Shows.EnsureCode(c.Request().Context(), showID, ownerID, username)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"code":         code,
		"audience_url": showcode.AudienceURL(h.Origin, code),
		"show_url":     showcode.ShowURL(h.Origin, showID),
	})
}

// Live handles GET /v1/shows/:id/live, the dashboard websocket.  It carries
// every change of the show, flagged requests included, in any status.
func (h *ArtistHandler) Live(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	if h.Hub == nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "live updates are disabled"})
	}
	show, err := h.Shows.Resolve(c.Request().Context(), c.Param("id"), service.ResolveArtist)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	if show.OwnerID != ownerID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	if err := h.Hub.ServeWS(c.Response(), c.Request(), show.ID, h.Origin, realtime.Artist); err != nil {
		h.Log.WithContext(c.Request().Context()).Debug("websocket upgrade failed", "show_id", show.ID, "error", err)
	}
	return nil
}
