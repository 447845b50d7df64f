package handler // handler defines http handlers

import (
	"errors"   // errors provides sentinel values used in getUserID
	"net/http" // http defines status codes

	"github.com/labstack/echo/v4" // echo defines request context types

	"github.com/tocafy/tocafy-server/internal/logger"
	"github.com/tocafy/tocafy-server/internal/middleware"
	"github.com/tocafy/tocafy-server/internal/service"
)

// getUserID returns the authenticated subject JWTAuth stored on the context.
func getUserID(c echo.Context) (string, error) {
	if id := middleware.UserID(c); id != "" {
		return id, nil
	}
	return "", errors.New("invalid user_id in context")
}

// statusFor maps the service error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrShowNotLive),
		errors.Is(err, service.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, service.ErrModerationRejected):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrTimeout):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

// respondError writes err for an artist.  The message carries the detail;
// unexpected errors are logged and hidden.
func respondError(c echo.Context, log *logger.Logger, err error) error {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.WithContext(c.Request().Context()).Error("request failed", "path", c.Path(), "error", err)
		return c.JSON(status, echo.Map{"error": "internal error"})
	}
	return c.JSON(status, echo.Map{"error": err.Error()})
}

// audienceMessages are the only texts audience members see on failure.
var audienceMessages = map[int]string{
	http.StatusBadRequest:          "request could not be submitted",
	http.StatusNotFound:            "show not found",
	http.StatusConflict:            "request could not be submitted",
	http.StatusUnprocessableEntity: "request could not be submitted",
	http.StatusGatewayTimeout:      "please try again",
}

// respondAudienceError is respondError with generic messages.  Anything an
// audience member could not have caused is reported as a server error.
func respondAudienceError(c echo.Context, log *logger.Logger, err error) error {
	status := statusFor(err)
	msg, ok := audienceMessages[status]
	if !ok {
		log.WithContext(c.Request().Context()).Error("audience request failed", "path", c.Path(), "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	log.WithContext(c.Request().Context()).Debug("audience request refused", "status", status, "error", err)
	return c.JSON(status, echo.Map{"error": msg})
}

// items wraps a list response; nil lists encode as [].
func items[T any](list []T) echo.Map {
	if list == nil {
		list = []T{}
	}
	return echo.Map{"items": list}
}
