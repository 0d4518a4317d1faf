package oauthmodel

import (
	"net/url"
	"strings"

	apperrors "github.com/jrsteele09/go-practice-client/internal/errors"
)

// GrantType represents the OAuth 2.0 grant type sent to the login endpoints.
type GrantType string

const (
	// PasswordGrant exchanges a username and password for tokens.
	// Used in: Login and master-admin login (form-urlencoded)
	PasswordGrant GrantType = "password"
)

// LoginForm holds the fields of the form-urlencoded login request.
type LoginForm struct {
	Username string
	Password string
}

// Values encodes the form for the login endpoints.
func (f LoginForm) Values() (url.Values, error) {
	if strings.TrimSpace(f.Username) == "" || f.Password == "" {
		return nil, apperrors.Wrapf(apperrors.ErrMissingCredentials, "username and password are required")
	}
	v := url.Values{}
	v.Set("username", strings.TrimSpace(f.Username))
	v.Set("password", f.Password)
	v.Set("grant_type", string(PasswordGrant))
	return v, nil
}
