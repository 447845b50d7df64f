package router // package router defines how HTTP routes are registered for the API

import (
	"database/sql"

	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing
	"github.com/redis/go-redis/v9"

	"github.com/tocafy/tocafy-server/internal/config"
	"github.com/tocafy/tocafy-server/internal/handler"    // import the handlers that implement business logic
	"github.com/tocafy/tocafy-server/internal/logger"
	"github.com/tocafy/tocafy-server/internal/metrics"
	"github.com/tocafy/tocafy-server/internal/middleware" // import middleware for rate limiting and caching
)

// RegisterRoutes registers the operational endpoints that do not require
// authentication: liveness, readiness and prometheus metrics.
func RegisterRoutes(e *echo.Echo, db *sql.DB) {
	e.GET("/healthz", handler.Health)
	e.GET("/readyz", handler.Ready(db))
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))
}

// RegisterAudience registers the public audience endpoints under
// /v1/audience/:code.  Song search responses are cached in Redis and
// request submission goes through the token bucket; both degrade to plain
// handlers when rdb is nil (the bucket then lives in process memory).
func RegisterAudience(e *echo.Echo, h *handler.AudienceHandler, rdb *redis.Client, rl config.RateLimitConfig, cc config.CacheConfig, log *logger.Logger) {
	g := e.Group("/v1/audience/:code")
	g.GET("", h.GetShow)
	g.GET("/queue", h.GetQueue)
	g.GET("/songs", h.SearchSongs, middleware.NewRedisCache(cc, rdb))
	g.POST("/requests", h.SubmitRequest, middleware.NewTokenBucket(rl, rdb, log))
	g.GET("/live", h.Live)
}
