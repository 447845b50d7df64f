package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tocafy/tocafy-server/internal/service"
)

// songBody is the JSON form of a library entry.
type songBody struct {
	Title           string `json:"title"`
	Artist          string `json:"artist"`
	Key             string `json:"key"`
	Genre           string `json:"genre"`
	Lyrics          string `json:"lyrics"`
	Chords          string `json:"chords"`
	DurationSeconds *int   `json:"duration_seconds"`
}

func (b songBody) newSong() service.NewSong {
	return service.NewSong{
		Title:           b.Title,
		Artist:          b.Artist,
		Key:             b.Key,
		Genre:           b.Genre,
		Lyrics:          b.Lyrics,
		Chords:          b.Chords,
		DurationSeconds: b.DurationSeconds,
	}
}

// CreateSong handles POST /v1/songs.
func (h *ArtistHandler) CreateSong(c echo.Context) error {
	artistID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body songBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	song, err := h.Songs.Create(c.Request().Context(), artistID, body.newSong())
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, song)
}

// UpdateSong handles PUT /v1/songs/:id.  Omitted optional fields are
// cleared.
func (h *ArtistHandler) UpdateSong(c echo.Context) error {
	artistID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body songBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	song, err := h.Songs.Update(c.Request().Context(), c.Param("id"), artistID, body.newSong())
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, song)
}

// ListSongs handles GET /v1/songs: the artist's whole library.
func (h *ArtistHandler) ListSongs(c echo.Context) error {
	artistID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	songs, err := h.Songs.ListByArtist(c.Request().Context(), artistID)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, items(songs))
}

// SetSongAvailability handles PATCH /v1/songs/:id/availability with
// {"available": false}.
func (h *ArtistHandler) SetSongAvailability(c echo.Context) error {
	artistID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		Available *bool `json:"available"`
	}
	if err := c.Bind(&body); err != nil || body.Available == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "available is required"})
	}
	song, err := h.Songs.SetAvailability(c.Request().Context(), c.Param("id"), artistID, *body.Available)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, song)
}
