package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/jrsteele09/go-practice-client/api"
	"github.com/jrsteele09/go-practice-client/auth"
	apperrors "github.com/jrsteele09/go-practice-client/internal/errors"
	"github.com/jrsteele09/go-practice-client/internal/fakebackend"
	"github.com/jrsteele09/go-practice-client/session"
	"github.com/stretchr/testify/require"
)

// TestAuthenticator_Login tests the password login flow
func TestAuthenticator_Login(t *testing.T) {
	f := setupTestFixture(t, nil)
	ctx := context.Background()

	status, err := f.authn.Login(ctx, testUsername, testPassword)
	require.NoError(t, err)
	require.True(t, status.LoggedIn)
	require.True(t, status.CanRefresh)
	require.True(t, loginTime.Add(15*time.Minute).Equal(status.ExpiresAt))
	require.JSONEq(t, `{"id":"usr-1","email":"ca@firm.test","role":"admin"}`, string(status.User))
	require.JSONEq(t, `{"id":"org-1","name":"Sharma & Co"}`, string(status.Organization))

	tokens, err := f.sess.Tokens(ctx)
	require.NoError(t, err)
	require.Equal(t, "access-1", tokens.AccessToken)
	require.Equal(t, "refresh-2", tokens.RefreshToken)

	raw, ok, err := f.store.Get(ctx, session.KeyExpiresAt)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "1773479700000", raw)
	require.True(t, loginTime.Add(15*time.Minute).Equal(f.timer.ExpiresAt()))
}

func TestAuthenticator_LoginFailures(t *testing.T) {
	t.Run("wrong password", func(t *testing.T) {
		f := setupTestFixture(t, nil)
		_, err := f.authn.Login(context.Background(), testUsername, "nope")
		require.True(t, api.IsStatus(err, http.StatusUnauthorized))

		failure, _ := api.AsFailure(err)
		require.Equal(t, "Incorrect username or password", failure.Message)
		f.requireTornDown(t)
		require.Empty(t, f.nav.Reasons())
	})

	t.Run("missing credentials", func(t *testing.T) {
		f := setupTestFixture(t, nil)
		_, err := f.authn.Login(context.Background(), "", "")
		require.ErrorIs(t, err, apperrors.ErrMissingCredentials)
		require.Equal(t, 0, f.backend.Calls("POST /auth/login"))
	})

	t.Run("master admin on practice endpoint", func(t *testing.T) {
		f := setupTestFixture(t, nil)
		_, err := f.authn.Login(context.Background(), testAdminName, testAdminSecret)
		require.True(t, api.IsStatus(err, http.StatusUnauthorized))
	})
}

func TestAuthenticator_LoginReplacesPreviousSession(t *testing.T) {
	f := setupTestFixture(t, nil)
	ctx := context.Background()
	f.login(t)

	status, err := f.authn.MasterAdminLogin(ctx, testAdminName, testAdminSecret)
	require.NoError(t, err)
	require.JSONEq(t, `{"id":"usr-0","email":"root@platform.test","role":"master_admin"}`, string(status.User))
	require.Nil(t, status.Organization)
	require.Equal(t, 1, f.clock.Pending())
}

// TestAuthenticator_MasterAdmin tests that master admins reach organization management
func TestAuthenticator_MasterAdmin(t *testing.T) {
	f := setupTestFixture(t, nil)
	ctx := context.Background()

	_, err := f.authn.MasterAdminLogin(ctx, testAdminName, testAdminSecret)
	require.NoError(t, err)
	require.Equal(t, 1, f.backend.Calls("POST /auth/master-admin/login"))

	f.backend.Seed(fakebackend.Organizations, map[string]any{"name": "Sharma & Co", "is_active": true})
	var page struct {
		Total int `json:"total"`
	}
	require.NoError(t, f.exec.Do(ctx, api.Request{Method: http.MethodGet, Endpoint: "/organizations", RequiresAuth: true}, &page))
	require.Equal(t, 1, page.Total)
}

func TestAuthenticator_JWTExpiryFallback(t *testing.T) {
	f := setupTestFixture(t, []fakebackend.Option{fakebackend.WithJWTAccessTokens(10 * time.Minute)})

	status, err := f.authn.Login(context.Background(), testUsername, testPassword)
	require.NoError(t, err)
	require.True(t, loginTime.Add(10*time.Minute).Equal(status.ExpiresAt))
	require.True(t, loginTime.Add(10*time.Minute).Equal(f.timer.ExpiresAt()))
}

func TestAuthenticator_NoLifetime(t *testing.T) {
	f := setupTestFixture(t, nil)
	f.backend.SetExpiresIn(0)

	status, err := f.authn.Login(context.Background(), testUsername, testPassword)
	require.NoError(t, err)
	require.True(t, status.LoggedIn)
	require.True(t, status.ExpiresAt.IsZero())
	require.Equal(t, 0, f.clock.Pending())
}

// TestAuthenticator_Logout tests that logout clears the session without navigating
func TestAuthenticator_Logout(t *testing.T) {
	f := setupTestFixture(t, nil)
	ctx := context.Background()
	f.login(t)
	require.NoError(t, f.sess.SetSidebarCollapsed(ctx, true))

	require.NoError(t, f.authn.Logout(ctx))
	require.Equal(t, 1, f.backend.Calls("POST /auth/logout"))
	f.requireTornDown(t)
	require.Empty(t, f.nav.Reasons())
	require.Equal(t, 0, f.clock.Pending())

	collapsed, err := f.sess.SidebarCollapsed(ctx)
	require.NoError(t, err)
	require.True(t, collapsed)

	t.Run("backend failure still clears", func(t *testing.T) {
		f := setupTestFixture(t, nil)
		f.login(t)
		f.backend.FailNext("POST /auth/logout", http.StatusInternalServerError, 1)
		require.NoError(t, f.authn.Logout(context.Background()))
		f.requireTornDown(t)
	})

	t.Run("nothing held", func(t *testing.T) {
		f := setupTestFixture(t, nil)
		require.NoError(t, f.authn.Logout(context.Background()))
		require.Equal(t, 0, f.backend.Calls("POST /auth/logout"))
	})
}

func TestAuthenticator_CurrentUser(t *testing.T) {
	f := setupTestFixture(t, nil)
	ctx := context.Background()
	f.login(t)
	require.NoError(t, f.sess.SetUser(ctx, json.RawMessage(`{"id":"usr-1","email":"old@firm.test"}`)))

	user, err := f.authn.CurrentUser(ctx)
	require.NoError(t, err)
	require.JSONEq(t, `{"id":"usr-1","email":"ca@firm.test","role":"admin"}`, string(user))

	cached, err := f.sess.User(ctx)
	require.NoError(t, err)
	require.JSONEq(t, string(user), string(cached))
}

func TestAuthenticator_RefreshWithoutSession(t *testing.T) {
	f := setupTestFixture(t, nil)

	err := f.authn.Refresh(context.Background())
	requireAuthFailure(t, err, auth.ErrAuthenticationRequired)
	require.Equal(t, 0, f.backend.Calls(routeRefresh))
	require.Len(t, f.nav.Reasons(), 1)
}

func TestAuthenticator_Status(t *testing.T) {
	f := setupTestFixture(t, nil)
	ctx := context.Background()

	status, err := f.authn.Status(ctx)
	require.NoError(t, err)
	require.Equal(t, &auth.Status{}, status)

	f.login(t)
	f.timer.Stop()
	f.clock.Advance(20 * time.Minute)

	status, err = f.authn.Status(ctx)
	require.NoError(t, err)
	require.False(t, status.LoggedIn)
	require.True(t, status.CanRefresh)
}
