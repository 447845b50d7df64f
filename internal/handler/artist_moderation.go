package handler

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
)

const maxConfigBytes = 64 << 10

// GetModeration handles GET /v1/moderation.
func (h *ArtistHandler) GetModeration(c echo.Context) error {
	artistID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	cfg, err := h.Moderation.Get(c.Request().Context(), artistID)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, cfg)
}

// ReplaceModeration handles PUT /v1/moderation with a full config.  Unknown
// keys are a 400.
func (h *ArtistHandler) ReplaceModeration(c echo.Context) error {
	artistID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxConfigBytes))
	if err != nil || len(body) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	cfg, err := h.Moderation.ReplaceJSON(c.Request().Context(), artistID, body)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, cfg)
}

// PatchModeration handles PATCH /v1/moderation with an RFC 7396 merge
// patch, e.g. {"blocked_words": ["spam"], "request_limit": 5}.
func (h *ArtistHandler) PatchModeration(c echo.Context) error {
	artistID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	patch, err := io.ReadAll(io.LimitReader(c.Request().Body, maxConfigBytes))
	if err != nil || len(patch) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	cfg, err := h.Moderation.Patch(c.Request().Context(), artistID, patch)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, cfg)
}
