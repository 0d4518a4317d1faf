package oauthmodel

import (
	"encoding/json"
	"time"
)

// TokenResponse is the body returned by the login, master-admin login and refresh endpoints.
type TokenResponse struct {
	// AccessToken is the short-lived bearer credential.
	// Usage: Include in Authorization header: "Bearer <access_token>"
	AccessToken string `json:"access_token"`

	// RefreshToken is the long-lived credential exchanged for new access tokens.
	// Present on login. The refresh endpoint may echo it back; the backend does not rotate it,
	// so the client keeps the one it already holds.
	RefreshToken string `json:"refresh_token,omitempty"`

	// TokenType indicates how to use the access token (always "bearer").
	TokenType string `json:"token_type,omitempty"`

	// ExpiresIn is the lifetime in seconds of the access token.
	// Example: 900 (for 15 minutes)
	// Note: When absent the "exp" claim of the access token is used instead
	ExpiresIn int `json:"expires_in,omitempty"`

	// User is the signed-in user as the backend describes it. Cached verbatim.
	User json.RawMessage `json:"user,omitempty"`

	// Organization is the user's organization. Absent for master admins.
	Organization json.RawMessage `json:"organization,omitempty"`
}

// Lifetime returns ExpiresIn as a duration, and false when the backend did not state one.
func (r TokenResponse) Lifetime() (time.Duration, bool) {
	if r.ExpiresIn <= 0 {
		return 0, false
	}
	return time.Duration(r.ExpiresIn) * time.Second, true
}

// RefreshRequest is the JSON body of the refresh endpoint.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}
