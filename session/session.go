package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	apperrors "github.com/jrsteele09/go-practice-client/internal/errors"
)

// Key names one entry of the persisted client state.
type Key string

const (
	KeyAccessToken      Key = "access_token"
	KeyRefreshToken     Key = "refresh_token"
	KeyExpiresAt        Key = "expires_at" // epoch milliseconds
	KeyUser             Key = "user"
	KeyOrganization     Key = "organization"
	KeySidebarCollapsed Key = "sidebar_collapsed" // UI preference, survives logout
)

// SessionKeys are the entries removed when a session is torn down.
var SessionKeys = []Key{KeyAccessToken, KeyRefreshToken, KeyExpiresAt, KeyUser, KeyOrganization}

// Store is the persistence surface for session state.
// Implementations must be safe for concurrent use.
type Store interface {
	Get(ctx context.Context, key Key) (string, bool, error)
	Set(ctx context.Context, key Key, value string) error
	Clear(ctx context.Context, keys ...Key) error
}

// Tokens is the credential part of a session.
type Tokens struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time // zero when the backend did not declare a lifetime
}

// Expired reports whether ExpiresAt is set and not after now.
func (t Tokens) Expired(now time.Time) bool {
	return !t.ExpiresAt.IsZero() && !now.Before(t.ExpiresAt)
}

// Session gives typed access to the values kept in a Store.
type Session struct {
	store   Store
	nowTime func() time.Time
}

type Option func(*Session)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) Option {
	return func(s *Session) {
		s.nowTime = nowFunc
	}
}

func New(store Store, options ...Option) *Session {
	s := &Session{
		store:   store,
		nowTime: time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

func (s *Session) Store() Store {
	return s.store
}

func (s *Session) Now() time.Time {
	return s.nowTime()
}

func (s *Session) get(ctx context.Context, key Key) (string, error) {
	v, _, err := s.store.Get(ctx, key)
	if err != nil {
		return "", fmt.Errorf("session get %s: %w", key, err)
	}
	return v, nil
}

// Tokens returns whatever credentials are held, expired or not.
func (s *Session) Tokens(ctx context.Context) (Tokens, error) {
	access, err := s.get(ctx, KeyAccessToken)
	if err != nil {
		return Tokens{}, err
	}
	refresh, err := s.get(ctx, KeyRefreshToken)
	if err != nil {
		return Tokens{}, err
	}
	expiresAt, _, err := s.ExpiresAt(ctx)
	if err != nil {
		return Tokens{}, err
	}
	return Tokens{AccessToken: access, RefreshToken: refresh, ExpiresAt: expiresAt}, nil
}

// UsableAccessToken returns the access token, or "" when none is held, it has expired, or its
// expiry cannot be read.
func (s *Session) UsableAccessToken(ctx context.Context) (string, error) {
	access, err := s.get(ctx, KeyAccessToken)
	if err != nil || access == "" {
		return "", err
	}
	expiresAt, _, err := s.ExpiresAt(ctx)
	if errors.Is(err, apperrors.ErrCorruptStore) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if (Tokens{ExpiresAt: expiresAt}).Expired(s.nowTime()) {
		return "", nil
	}
	return access, nil
}

func (s *Session) RefreshToken(ctx context.Context) (string, error) {
	return s.get(ctx, KeyRefreshToken)
}

// SaveTokens stores a full credential set. An empty refresh token leaves the stored one alone.
func (s *Session) SaveTokens(ctx context.Context, tokens Tokens) error {
	if err := s.SetAccessToken(ctx, tokens.AccessToken); err != nil {
		return err
	}
	if tokens.RefreshToken != "" {
		if err := s.store.Set(ctx, KeyRefreshToken, tokens.RefreshToken); err != nil {
			return fmt.Errorf("session set %s: %w", KeyRefreshToken, err)
		}
	}
	return s.SetExpiresAt(ctx, tokens.ExpiresAt)
}

func (s *Session) SetAccessToken(ctx context.Context, token string) error {
	if err := s.store.Set(ctx, KeyAccessToken, token); err != nil {
		return fmt.Errorf("session set %s: %w", KeyAccessToken, err)
	}
	return nil
}

// ExpiresAt returns the persisted absolute expiry, if any.
func (s *Session) ExpiresAt(ctx context.Context) (time.Time, bool, error) {
	raw, err := s.get(ctx, KeyExpiresAt)
	if err != nil || raw == "" {
		return time.Time{}, false, err
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, false, apperrors.Wrapf(apperrors.ErrCorruptStore, "%s=%q", KeyExpiresAt, raw)
	}
	return time.UnixMilli(ms), true, nil
}

// SetExpiresAt persists t as epoch milliseconds; the zero time removes the entry.
func (s *Session) SetExpiresAt(ctx context.Context, t time.Time) error {
	if t.IsZero() {
		if err := s.store.Clear(ctx, KeyExpiresAt); err != nil {
			return fmt.Errorf("session clear %s: %w", KeyExpiresAt, err)
		}
		return nil
	}
	if err := s.store.Set(ctx, KeyExpiresAt, strconv.FormatInt(t.UnixMilli(), 10)); err != nil {
		return fmt.Errorf("session set %s: %w", KeyExpiresAt, err)
	}
	return nil
}

func (s *Session) User(ctx context.Context) (json.RawMessage, error) {
	return s.snapshot(ctx, KeyUser)
}

func (s *Session) SetUser(ctx context.Context, user json.RawMessage) error {
	return s.setSnapshot(ctx, KeyUser, user)
}

func (s *Session) Organization(ctx context.Context) (json.RawMessage, error) {
	return s.snapshot(ctx, KeyOrganization)
}

func (s *Session) SetOrganization(ctx context.Context, org json.RawMessage) error {
	return s.setSnapshot(ctx, KeyOrganization, org)
}

func (s *Session) snapshot(ctx context.Context, key Key) (json.RawMessage, error) {
	raw, err := s.get(ctx, key)
	if err != nil || raw == "" {
		return nil, err
	}
	return json.RawMessage(raw), nil
}

// setSnapshot ignores empty and null blobs so a partial response does not wipe the cache.
func (s *Session) setSnapshot(ctx context.Context, key Key, blob json.RawMessage) error {
	if len(blob) == 0 || string(blob) == "null" {
		return nil
	}
	if !json.Valid(blob) {
		return apperrors.Wrapf(apperrors.ErrInvalidPayload, "%s is not valid JSON", key)
	}
	if err := s.store.Set(ctx, key, string(blob)); err != nil {
		return fmt.Errorf("session set %s: %w", key, err)
	}
	return nil
}

func (s *Session) SidebarCollapsed(ctx context.Context) (bool, error) {
	raw, err := s.get(ctx, KeySidebarCollapsed)
	if err != nil || raw == "" {
		return false, err
	}
	return raw == "true", nil
}

func (s *Session) SetSidebarCollapsed(ctx context.Context, collapsed bool) error {
	if err := s.store.Set(ctx, KeySidebarCollapsed, strconv.FormatBool(collapsed)); err != nil {
		return fmt.Errorf("session set %s: %w", KeySidebarCollapsed, err)
	}
	return nil
}

// Clear removes every session entry. UI preferences are kept.
func (s *Session) Clear(ctx context.Context) error {
	if err := s.store.Clear(ctx, SessionKeys...); err != nil {
		return fmt.Errorf("session clear: %w", err)
	}
	return nil
}
