// Package showcode builds the shareable codes audience members use to join a
// show, e.g. "joaosilva-acoustic-night" or "joaosilva-acoustic-night-2".
package showcode

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ErrInvalidUsername is returned when an artist username cannot be used as
// a code prefix.
var ErrInvalidUsername = errors.New("invalid username")

// ErrExhausted is returned when no free suffix was found.
var ErrExhausted = errors.New("no free show code")

const maxAttempts = 1000

var usernamePattern = regexp.MustCompile(`^[a-z0-9_-]+$`)

// ExistsFunc reports whether a code is already taken.
type ExistsFunc func(ctx context.Context, code string) (bool, error)

// ValidateUsername checks that u is non-empty and only uses [a-z0-9_-].
func ValidateUsername(u string) error {
	if u == "" {
		return fmt.Errorf("%w: empty", ErrInvalidUsername)
	}
	if !usernamePattern.MatchString(u) {
		return fmt.Errorf("%w: %q must match [a-z0-9_-]", ErrInvalidUsername, u)
	}
	return nil
}

// Slug lower-cases s, folds accents ("Acústica" -> "acustica") and collapses
// every run of other characters into a single hyphen.
func Slug(s string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), s)
	if err != nil {
		folded = s
	}
	var b strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(folded) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}
	return b.String()
}

// Base returns the code before any collision suffix.
func Base(username, showName string) (string, error) {
	if err := ValidateUsername(username); err != nil {
		return "", err
	}
	user := Slug(username)
	if user == "" {
		return "", fmt.Errorf("%w: %q has no letters or digits", ErrInvalidUsername, username)
	}
	if show := Slug(showName); show != "" {
		return user + "-" + show, nil
	}
	return user, nil
}

// WithSuffix returns the n-th candidate for base: base itself for n <= 1,
// then base-2, base-3, ...
func WithSuffix(base string, n int) string {
	if n <= 1 {
		return base
	}
	return base + "-" + strconv.Itoa(n)
}

// Generate returns the first candidate for (username, showName) that exists
// reports as free.  It never returns a taken code, so calling it again after
// the previous result was stored yields the next suffix.
func Generate(ctx context.Context, exists ExistsFunc, username, showName string) (string, error) {
	base, err := Base(username, showName)
	if err != nil {
		return "", err
	}
	for n := 1; n <= maxAttempts; n++ {
		code := WithSuffix(base, n)
		taken, err := exists(ctx, code)
		if err != nil {
			return "", err
		}
		if !taken {
			return code, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrExhausted, base)
}

// LooksLikeID reports whether ref is a raw show id (a canonical UUID) rather
// than a code.  Direct-id links predate codes and are still accepted.
func LooksLikeID(ref string) bool {
	if len(ref) != 36 {
		return false
	}
	_, err := uuid.Parse(ref)
	return err == nil
}

// AudienceURL is the join link printed on the QR code.
func AudienceURL(origin, code string) string {
	return strings.TrimRight(origin, "/") + "/audience/" + code
}

// ShowURL is the direct-id link accepted for backward compatibility.
func ShowURL(origin, showID string) string {
	return strings.TrimRight(origin, "/") + "/show/" + showID
}
