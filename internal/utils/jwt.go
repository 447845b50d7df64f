package utils // package utils provides helpers for issuing development access tokens

import (
	"errors"
	"strings"
	"time" // time utilities for generating expirations

	"github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
)

// AccessToken represents a signed JWT access token along with its expiry.
// The Token field contains the JWT string.  Exp stores the expiration
// timestamp.  Production tokens come from the identity provider; this type
// serves local development and tests, which need tokens the JWTAuth
// middleware accepts.
type AccessToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// Claims is what an access token asserts about its bearer.
type Claims struct {
	Subject  string // opaque user id, becomes the owner id of shows and songs
	Role     string // "artist" or "audience"
	Username string // artist handle used as the show code prefix; optional
}

// NewAccessToken builds and signs an HS256 JWT.  The token carries sub,
// role, the optional username, exp and iat.
func NewAccessToken(secret string, cl Claims, ttl time.Duration) (AccessToken, error) {
	if strings.TrimSpace(cl.Subject) == "" {
		return AccessToken{}, errors.New("subject is required")
	}
	now := time.Now().UTC()
	exp := now.Add(ttl)
	claims := jwt.MapClaims{
		"sub":  cl.Subject,
		"role": cl.Role,
		"exp":  exp.Unix(),
		"iat":  now.Unix(),
	}
	if cl.Username != "" {
		claims["username"] = cl.Username
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}
