// Package expiry ends a session when the access token's declared lifetime elapses, even if no
// request happens to be rejected first.
package expiry

import (
	"context"
	"errors"
	"sync"
	"time"

	apperrors "github.com/jrsteele09/go-practice-client/internal/errors"
	"github.com/jrsteele09/go-practice-client/session"
	"github.com/rs/zerolog/log"
)

// Stopper cancels a scheduled callback.
type Stopper interface {
	Stop() bool
}

// Clock is the time source of a Timer.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Stopper
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Stopper { return time.AfterFunc(d, f) }

// RealClock is the wall clock.
var RealClock Clock = realClock{}

// Timer is a one-shot session expiry timer. Arming it again replaces the previous schedule,
// and a replaced or stopped schedule never fires.
type Timer struct {
	sess  *session.Session
	clock Clock

	mu         sync.Mutex
	onExpire   func(ctx context.Context)
	current    Stopper
	generation uint64
	expiresAt  time.Time
}

type TimerOption func(*Timer)

// WithClock sets the clock (primarily for testing)
func WithClock(clock Clock) TimerOption {
	return func(t *Timer) {
		t.clock = clock
	}
}

func NewTimer(sess *session.Session, options ...TimerOption) *Timer {
	t := &Timer{
		sess:  sess,
		clock: RealClock,
	}
	for _, opt := range options {
		opt(t)
	}
	return t
}

// OnExpire sets the function run when the timer fires.
func (t *Timer) OnExpire(fn func(ctx context.Context)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onExpire = fn
}

// Arm persists now+lifetime as the session expiry and schedules teardown for it.
func (t *Timer) Arm(ctx context.Context, lifetime time.Duration) error {
	return t.ArmAt(ctx, t.clock.Now().Add(lifetime))
}

// ArmAt persists at as the session expiry and schedules teardown for it.
func (t *Timer) ArmAt(ctx context.Context, at time.Time) error {
	if err := t.sess.SetExpiresAt(ctx, at); err != nil {
		return err
	}
	t.schedule(at)
	return nil
}

// Restore re-arms the timer from the persisted expiry, for a process that starts with a
// session already on disk. The remaining time is computed from the absolute instant; an
// instant already in the past tears the session down before Restore returns.
// An unreadable expiry counts as already past.
// It reports whether a session expiry was found.
func (t *Timer) Restore(ctx context.Context) (bool, error) {
	at, ok, err := t.sess.ExpiresAt(ctx)
	if errors.Is(err, apperrors.ErrCorruptStore) {
		log.Warn().Err(err).Msg("Session expiry is unreadable")
		at, ok, err = t.clock.Now(), true, nil
	}
	if err != nil || !ok {
		return false, err
	}
	t.schedule(at)
	return true, nil
}

// Stop cancels any scheduled teardown. The persisted expiry is left alone.
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.generation++
	t.stopCurrent()
	t.expiresAt = time.Time{}
}

// ExpiresAt returns the instant the timer is armed for, or the zero time.
func (t *Timer) ExpiresAt() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.expiresAt
}

func (t *Timer) stopCurrent() {
	if t.current != nil {
		t.current.Stop()
		t.current = nil
	}
}

func (t *Timer) schedule(at time.Time) {
	t.mu.Lock()
	t.generation++
	gen := t.generation
	t.stopCurrent()
	t.expiresAt = at

	delay := at.Sub(t.clock.Now())
	if delay <= 0 {
		t.mu.Unlock()
		log.Info().Time("expires_at", at).Msg("Session already expired")
		t.fire(gen)
		return
	}
	t.current = t.clock.AfterFunc(delay, func() { t.fire(gen) })
	t.mu.Unlock()
}

func (t *Timer) fire(gen uint64) {
	t.mu.Lock()
	if gen != t.generation {
		t.mu.Unlock()
		return
	}
	t.generation++
	t.current = nil
	t.expiresAt = time.Time{}
	onExpire := t.onExpire
	t.mu.Unlock()

	if onExpire != nil {
		onExpire(context.Background())
	}
}
