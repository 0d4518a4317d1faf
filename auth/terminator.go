package auth

import (
	"context"

	"github.com/jrsteele09/go-practice-client/expiry"
	"github.com/jrsteele09/go-practice-client/session"
	"github.com/rs/zerolog/log"
)

// Navigator sends an interactive user back to the login entry point.
type Navigator interface {
	ToLogin(ctx context.Context, reason error)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(ctx context.Context, reason error)

func (f NavigatorFunc) ToLogin(ctx context.Context, reason error) {
	f(ctx, reason)
}

// Terminator tears sessions down. It is the only path that clears credentials.
type Terminator struct {
	sess  *session.Session
	timer *expiry.Timer
	nav   Navigator
}

// NewTerminator wires teardown to the session, and to the expiry timer when one is given.
// nav may be nil for non-interactive use.
func NewTerminator(sess *session.Session, timer *expiry.Timer, nav Navigator) *Terminator {
	t := &Terminator{sess: sess, timer: timer, nav: nav}
	if timer != nil {
		timer.OnExpire(func(ctx context.Context) {
			if err := t.Teardown(ctx, ErrSessionExpired); err != nil {
				log.Err(err).Msg("Session expiry teardown failed")
			}
		})
	}
	return t
}

// Teardown clears the session, cancels the expiry timer and navigates to login.
// Navigation happens even when clearing the store fails.
func (t *Terminator) Teardown(ctx context.Context, reason error) error {
	log.Warn().AnErr("reason", reason).Msg("Tearing down session")
	err := t.clear(ctx)
	if t.nav != nil {
		t.nav.ToLogin(ctx, reason)
	}
	return err
}

// Clear ends the session without navigating, for a user who logged out on purpose.
func (t *Terminator) Clear(ctx context.Context) error {
	return t.clear(ctx)
}

func (t *Terminator) clear(ctx context.Context) error {
	if t.timer != nil {
		t.timer.Stop()
	}
	return t.sess.Clear(ctx)
}
