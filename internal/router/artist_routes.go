package router

import (
	"github.com/labstack/echo/v4"

	"github.com/tocafy/tocafy-server/internal/handler"    // artist handlers
	"github.com/tocafy/tocafy-server/internal/middleware" // JWT + role middlewares
)

// RegisterArtist registers artist-scoped endpoints under /v1.
// All routes require a valid JWT with the artist role.
func RegisterArtist(e *echo.Echo, a *handler.ArtistHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(middleware.RoleArtist),
	)

	// ---- Shows ----
	g.POST("/shows", a.CreateShow)
	g.GET("/shows", a.ListShows)
	g.GET("/shows/:id", a.GetShow)
	g.POST("/shows/:id/status", a.SetShowStatus)
	g.POST("/shows/:id/code", a.EnsureCode)
	g.GET("/shows/:id/live", a.Live)

	// ---- Queue ----
	g.GET("/shows/:id/requests", a.ListRequests)
	g.POST("/shows/:id/requests/recompute", a.RecomputePositions)
	g.POST("/requests/:id/accept", a.RequestAction(a.Queue.Accept))
	g.POST("/requests/:id/play", a.RequestAction(a.Queue.Play))
	g.POST("/requests/:id/complete", a.RequestAction(a.Queue.Complete))
	g.POST("/requests/:id/skip", a.RequestAction(a.Queue.Skip))
	g.POST("/requests/:id/approve", a.RequestAction(a.Queue.Approve))

	// ---- Songs ----
	g.POST("/songs", a.CreateSong)
	g.GET("/songs", a.ListSongs)
	g.PUT("/songs/:id", a.UpdateSong)
	g.PATCH("/songs/:id/availability", a.SetSongAvailability)

	// ---- Moderation ----
	g.GET("/moderation", a.GetModeration)
	g.PUT("/moderation", a.ReplaceModeration)
	g.PATCH("/moderation", a.PatchModeration)
}
