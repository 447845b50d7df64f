package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAccessToken(t *testing.T) {
	tok, err := NewAccessToken("secret", Claims{Subject: "artist-1", Role: "artist", Username: "joaosilva"}, time.Hour)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), tok.Exp, time.Minute)

	claims := jwt.MapClaims{}
	_, err = jwt.ParseWithClaims(tok.Token, claims, func(*jwt.Token) (any, error) { return []byte("secret"), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	require.NoError(t, err)
	assert.Equal(t, "artist-1", claims["sub"])
	assert.Equal(t, "artist", claims["role"])
	assert.Equal(t, "joaosilva", claims["username"])
}

func TestNewAccessTokenOmitsEmptyUsername(t *testing.T) {
	tok, err := NewAccessToken("secret", Claims{Subject: "fan-1", Role: "audience"}, time.Hour)
	require.NoError(t, err)
	claims := jwt.MapClaims{}
	_, err = jwt.ParseWithClaims(tok.Token, claims, func(*jwt.Token) (any, error) { return []byte("secret"), nil })
	require.NoError(t, err)
	assert.NotContains(t, claims, "username")
}

func TestNewAccessTokenNeedsSubject(t *testing.T) {
	_, err := NewAccessToken("secret", Claims{Subject: "  ", Role: "artist"}, time.Hour)
	assert.Error(t, err)
}
