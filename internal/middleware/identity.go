package middleware

// identity.go holds the context keys JWTAuth fills and the accessors
// handlers and the rate limiter read them with.

import (
	"github.com/labstack/echo/v4"
)

// Roles carried in the "role" claim.
const (
	RoleArtist   = "artist"
	RoleAudience = "audience"
)

const (
	keyUserID   = "user_id"
	keyRole     = "role"
	keyUsername = "username"
)

// UserID returns the authenticated subject, or "" for anonymous requests.
func UserID(c echo.Context) string {
	s, _ := c.Get(keyUserID).(string)
	return s
}

// Role returns the role claim, or "".
func Role(c echo.Context) string {
	s, _ := c.Get(keyRole).(string)
	return s
}

// Username returns the username claim, or "".  Artists need one to get a
// show code.
func Username(c echo.Context) string {
	s, _ := c.Get(keyUsername).(string)
	return s
}

// userKey identifies the caller for rate limiting: the subject when
// authenticated, otherwise "guest".
func userKey(c echo.Context) string {
	if id := UserID(c); id != "" {
		return id
	}
	return "guest"
}
