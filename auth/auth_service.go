package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/jrsteele09/go-practice-client/api"
	"github.com/jrsteele09/go-practice-client/oauthmodel"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	LoginEndpoint            = "/auth/login"
	MasterAdminLoginEndpoint = "/auth/master-admin/login"
	LogoutEndpoint           = "/auth/logout"
	CurrentUserEndpoint      = "/auth/me"
)

// Status describes the locally held session.
type Status struct {
	LoggedIn     bool      // an unexpired access token is held
	CanRefresh   bool      // a refresh token is held
	ExpiresAt    time.Time // zero when unknown
	User         json.RawMessage
	Organization json.RawMessage
}

// Authenticator signs users in and out of the backend.
type Authenticator struct {
	exec *Executor
}

func NewAuthenticator(exec *Executor) *Authenticator {
	return &Authenticator{exec: exec}
}

// Login signs in a practice user with the form-urlencoded password grant.
func (a *Authenticator) Login(ctx context.Context, username, password string) (*Status, error) {
	return a.login(ctx, LoginEndpoint, username, password)
}

// MasterAdminLogin signs in a tenant-spanning administrator.
func (a *Authenticator) MasterAdminLogin(ctx context.Context, username, password string) (*Status, error) {
	return a.login(ctx, MasterAdminLoginEndpoint, username, password)
}

func (a *Authenticator) login(ctx context.Context, endpoint, username, password string) (*Status, error) {
	form, err := oauthmodel.LoginForm{Username: username, Password: password}.Values()
	if err != nil {
		return nil, errors.Wrap(err, "[Authenticator.Login] form")
	}

	resp, err := a.exec.client.Send(ctx, api.Request{
		Method:   http.MethodPost,
		Endpoint: endpoint,
		Body:     api.Form(form),
	}, "")
	if err != nil {
		return nil, errors.Wrap(err, "[Authenticator.Login] send")
	}

	var tr oauthmodel.TokenResponse
	if err := resp.Decode(&tr); err != nil {
		return nil, errors.Wrap(err, "[Authenticator.Login] decode")
	}
	if tr.AccessToken == "" {
		return nil, &api.Failure{Kind: api.KindDecode, Status: resp.Status, Message: "login response has no access_token"}
	}

	// A previous user's snapshot must not survive into the new session.
	if err := a.exec.terminator.Clear(ctx); err != nil {
		return nil, errors.Wrap(err, "[Authenticator.Login] clear previous session")
	}
	if err := a.exec.store(ctx, tr); err != nil {
		return nil, errors.Wrap(err, "[Authenticator.Login] store tokens")
	}
	log.Info().Str("endpoint", endpoint).Msg("Logged in")
	return a.Status(ctx)
}

// Refresh forces a refresh cycle. On failure the session is torn down.
func (a *Authenticator) Refresh(ctx context.Context) error {
	_, err := a.exec.refreshOrTeardown(ctx, ErrAuthenticationRequired)
	return err
}

// Logout tells the backend the session is over, best effort, and clears local state.
// The user chose to leave, so no navigation happens.
func (a *Authenticator) Logout(ctx context.Context) error {
	tokens, err := a.exec.sess.Tokens(ctx)
	if err != nil {
		return errors.Wrap(err, "[Authenticator.Logout] tokens")
	}

	if tokens.AccessToken != "" && !tokens.Expired(a.exec.nowTime()) {
		_, err := a.exec.client.Send(ctx, api.Request{
			Method:   http.MethodPost,
			Endpoint: LogoutEndpoint,
			Body:     api.JSON(oauthmodel.RefreshRequest{RefreshToken: tokens.RefreshToken}),
		}, tokens.AccessToken)
		if err != nil {
			log.Warn().Err(err).Msg("Backend logout failed, clearing local session anyway")
		}
	}

	if err := a.exec.terminator.Clear(ctx); err != nil {
		return errors.Wrap(err, "[Authenticator.Logout] clear")
	}
	log.Info().Msg("Logged out")
	return nil
}

// CurrentUser fetches the signed-in user and refreshes the cached snapshot.
func (a *Authenticator) CurrentUser(ctx context.Context) (json.RawMessage, error) {
	resp, err := a.exec.Raw(ctx, api.Request{
		Method:       http.MethodGet,
		Endpoint:     CurrentUserEndpoint,
		RequiresAuth: true,
	})
	if err != nil {
		return nil, err
	}
	user := json.RawMessage(resp.Body)
	if err := a.exec.sess.SetUser(ctx, user); err != nil {
		return nil, errors.Wrap(err, "[Authenticator.CurrentUser] cache user")
	}
	return user, nil
}

// Status reports what is held locally without calling the backend.
func (a *Authenticator) Status(ctx context.Context) (*Status, error) {
	tokens, err := a.exec.sess.Tokens(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "[Authenticator.Status] tokens")
	}
	user, err := a.exec.sess.User(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "[Authenticator.Status] user")
	}
	org, err := a.exec.sess.Organization(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "[Authenticator.Status] organization")
	}
	return &Status{
		LoggedIn:     tokens.AccessToken != "" && !tokens.Expired(a.exec.nowTime()),
		CanRefresh:   tokens.RefreshToken != "",
		ExpiresAt:    tokens.ExpiresAt,
		User:         user,
		Organization: org,
	}, nil
}
