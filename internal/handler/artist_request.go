package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tocafy/tocafy-server/internal/model"
)

// ListRequests handles GET /v1/shows/:id/requests: every request of the
// show, flagged ones included, in submission order.  ?status= narrows the
// list to one status.
func (h *ArtistHandler) ListRequests(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	reqs, err := h.Queue.ListForArtist(c.Request().Context(), c.Param("id"), ownerID)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	if want := model.RequestStatus(c.QueryParam("status")); want != "" {
		if !want.Valid() {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown status filter"})
		}
		filtered := reqs[:0]
		for _, r := range reqs {
			if r.Status == want {
				filtered = append(filtered, r)
			}
		}
		reqs = filtered
	}
	return c.JSON(http.StatusOK, items(reqs))
}

// RecomputePositions handles POST /v1/shows/:id/requests/recompute and
// returns the renumbered active queue.
func (h *ArtistHandler) RecomputePositions(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	active, err := h.Queue.RecomputePositions(c.Request().Context(), c.Param("id"), ownerID)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, items(active))
}

type requestAction func(ctx context.Context, requestID, actorID string) (*model.SongRequest, error)

// RequestAction builds the handler for POST /v1/requests/:id/<action>.
func (h *ArtistHandler) RequestAction(action requestAction) echo.HandlerFunc {
	return func(c echo.Context) error {
		ownerID, err := getUserID(c)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
		}
		req, err := action(c.Request().Context(), c.Param("id"), ownerID)
		if err != nil {
			return respondError(c, h.Log, err)
		}
		return c.JSON(http.StatusOK, req)
	}
}
