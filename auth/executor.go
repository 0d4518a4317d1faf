package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jrsteele09/go-practice-client/api"
	"github.com/jrsteele09/go-practice-client/expiry"
	"github.com/jrsteele09/go-practice-client/oauthmodel"
	"github.com/jrsteele09/go-practice-client/session"
	"github.com/jrsteele09/go-practice-client/token"
	"github.com/rs/zerolog/log"
)

const DefaultRefreshEndpoint = "/auth/refresh"

// Executor performs backend calls that may need a bearer token. A call rejected with a
// retryable status gets one refresh and one re-issue; when that is not possible the session is
// torn down and the caller gets an auth Failure.
type Executor struct {
	client          *api.Client
	sess            *session.Session
	timer           *expiry.Timer
	nav             Navigator
	terminator      *Terminator
	retryStatuses   []int
	refreshEndpoint string
	nowTime         func() time.Time
}

type ExecutorOption func(*Executor)

// WithNavigator sets where an interactive user is sent after teardown.
func WithNavigator(nav Navigator) ExecutorOption {
	return func(e *Executor) {
		e.nav = nav
	}
}

// WithExpiryTimer arms timer on every login and refresh.
func WithExpiryTimer(timer *expiry.Timer) ExecutorOption {
	return func(e *Executor) {
		e.timer = timer
	}
}

// WithRetryStatuses sets the statuses that trigger refresh-and-retry (default 401 and 403).
func WithRetryStatuses(statuses ...int) ExecutorOption {
	return func(e *Executor) {
		e.retryStatuses = statuses
	}
}

func WithRefreshEndpoint(endpoint string) ExecutorOption {
	return func(e *Executor) {
		e.refreshEndpoint = endpoint
	}
}

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ExecutorOption {
	return func(e *Executor) {
		e.nowTime = nowFunc
	}
}

func NewExecutor(client *api.Client, sess *session.Session, options ...ExecutorOption) *Executor {
	e := &Executor{
		client:          client,
		sess:            sess,
		retryStatuses:   []int{http.StatusUnauthorized, http.StatusForbidden},
		refreshEndpoint: DefaultRefreshEndpoint,
		nowTime:         sess.Now,
	}
	for _, opt := range options {
		opt(e)
	}
	e.terminator = NewTerminator(sess, e.timer, e.nav)
	return e
}

func (e *Executor) Session() *session.Session {
	return e.sess
}

func (e *Executor) Client() *api.Client {
	return e.client
}

func (e *Executor) Terminator() *Terminator {
	return e.terminator
}

// Do performs req and decodes the JSON response into out, which may be nil.
func (e *Executor) Do(ctx context.Context, req api.Request, out any) error {
	resp, err := e.Raw(ctx, req)
	if err != nil {
		return err
	}
	return resp.Decode(out)
}

// Raw performs req and returns the successful response undecoded.
func (e *Executor) Raw(ctx context.Context, req api.Request) (*api.Response, error) {
	if !req.RequiresAuth {
		return e.client.Send(ctx, req, "")
	}

	accessToken, err := e.sess.UsableAccessToken(ctx)
	if err != nil {
		return nil, err
	}

	refreshed := false
	if accessToken == "" {
		log.Debug().Str("route", req.Route()).Msg("No usable access token")
		if accessToken, err = e.refreshOrTeardown(ctx, ErrAuthenticationRequired); err != nil {
			return nil, err
		}
		refreshed = true
	}

	resp, err := e.client.Send(ctx, req, accessToken)
	if err == nil || !e.retryable(err) {
		return resp, err
	}
	if refreshed {
		return nil, e.teardown(ctx, ErrSessionExpired, err)
	}

	log.Debug().Str("route", req.Route()).Msg("Access token rejected, refreshing")
	if accessToken, err = e.refreshOrTeardown(ctx, ErrAuthenticationRequired); err != nil {
		return nil, err
	}

	resp, err = e.client.Send(ctx, req, accessToken)
	if err != nil && e.retryable(err) {
		return nil, e.teardown(ctx, ErrSessionExpired, err)
	}
	return resp, err
}

// Refresh exchanges the held refresh token for a new access token and stores it.
// The held refresh token is kept whatever the backend returns.
func (e *Executor) Refresh(ctx context.Context) (string, error) {
	refreshToken, err := e.sess.RefreshToken(ctx)
	if err != nil {
		return "", err
	}
	if refreshToken == "" {
		return "", &api.Failure{Kind: api.KindAuth, Message: "no refresh token held", Cause: ErrAuthenticationRequired}
	}

	resp, err := e.client.Send(ctx, api.Request{
		Method:   http.MethodPost,
		Endpoint: e.refreshEndpoint,
		Body:     api.JSON(oauthmodel.RefreshRequest{RefreshToken: refreshToken}),
	}, "")
	if err != nil {
		return "", err
	}

	var tr oauthmodel.TokenResponse
	if err := resp.Decode(&tr); err != nil {
		return "", err
	}
	if tr.AccessToken == "" {
		return "", &api.Failure{Kind: api.KindDecode, Status: resp.Status, Message: "refresh response has no access_token"}
	}

	tr.RefreshToken = refreshToken
	if err := e.store(ctx, tr); err != nil {
		return "", err
	}
	log.Info().Msg("Access token refreshed")
	return tr.AccessToken, nil
}

// store persists a login or refresh response and arms the expiry timer. expires_in wins over
// the token's exp claim; with neither, no expiry is recorded.
func (e *Executor) store(ctx context.Context, tr oauthmodel.TokenResponse) error {
	var expiresAt time.Time
	if lifetime, ok := tr.Lifetime(); ok {
		expiresAt = e.nowTime().Add(lifetime)
	} else if exp, ok := token.ExpiryOf(tr.AccessToken); ok {
		expiresAt = exp
	}

	if err := e.sess.SaveTokens(ctx, session.Tokens{
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
		ExpiresAt:    expiresAt,
	}); err != nil {
		return err
	}
	if err := e.sess.SetUser(ctx, tr.User); err != nil {
		return err
	}
	if err := e.sess.SetOrganization(ctx, tr.Organization); err != nil {
		return err
	}

	if e.timer == nil {
		return nil
	}
	if expiresAt.IsZero() {
		e.timer.Stop()
		return nil
	}
	return e.timer.ArmAt(ctx, expiresAt)
}

func (e *Executor) refreshOrTeardown(ctx context.Context, noTokenReason error) (string, error) {
	refreshToken, err := e.sess.RefreshToken(ctx)
	if err != nil {
		return "", err
	}
	if refreshToken == "" {
		return "", e.teardown(ctx, noTokenReason, nil)
	}
	accessToken, err := e.Refresh(ctx)
	if err != nil {
		return "", e.teardown(ctx, ErrSessionExpired, err)
	}
	return accessToken, nil
}

func (e *Executor) retryable(err error) bool {
	return api.IsStatus(err, e.retryStatuses...)
}

// teardown ends the session and returns the auth Failure for the caller.
func (e *Executor) teardown(ctx context.Context, reason error, cause error) error {
	if err := e.terminator.Teardown(ctx, reason); err != nil {
		log.Err(err).Msg("Failed to clear session")
	}
	failure := &api.Failure{Kind: api.KindAuth, Message: reason.Error(), Cause: reason}
	if cause != nil {
		failure.Cause = errors.Join(reason, cause)
		if f, ok := api.AsFailure(cause); ok && f.Kind == api.KindHTTP {
			failure.Status = f.Status
			failure.Message = fmt.Sprintf("%s (%s)", reason.Error(), f.Message)
		}
	}
	return failure
}
