package token

import (
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// ExpiryOf reads the exp claim of a JWT access token without verifying its signature.
// The backend is the only party that verifies tokens; the client only needs the lifetime
// when a login or refresh response does not state expires_in.
func ExpiryOf(rawToken string) (time.Time, bool) {
	if strings.TrimSpace(rawToken) == "" {
		return time.Time{}, false
	}

	claims := jwtlib.MapClaims{}
	if _, _, err := jwtlib.NewParser().ParseUnverified(rawToken, claims); err != nil {
		return time.Time{}, false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// Lifetime returns the time left until the token's exp claim, relative to now.
func Lifetime(rawToken string, now time.Time) (time.Duration, bool) {
	exp, ok := ExpiryOf(rawToken)
	if !ok {
		return 0, false
	}
	return exp.Sub(now), true
}
