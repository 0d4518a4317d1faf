package expiry_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jrsteele09/go-practice-client/expiry"
	"github.com/jrsteele09/go-practice-client/expiry/clockfake"
	"github.com/jrsteele09/go-practice-client/session"
	sessionrepofake "github.com/jrsteele09/go-practice-client/session/repofake"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var loginTime = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

type fixture struct {
	clock   *clockfake.FakeClock
	store   *sessionrepofake.FakeSessionStore
	sess    *session.Session
	timer   *expiry.Timer
	expired *atomic.Int32
}

func setupTestFixture(t *testing.T) fixture {
	t.Helper()
	clock := clockfake.NewFakeClock(loginTime)
	store := sessionrepofake.NewFakeSessionStore()
	sess := session.New(store, session.WithNowTime(clock.Now))
	timer := expiry.NewTimer(sess, expiry.WithClock(clock))

	expired := &atomic.Int32{}
	timer.OnExpire(func(ctx context.Context) {
		expired.Add(1)
		require.NoError(t, sess.Clear(ctx))
	})
	return fixture{clock: clock, store: store, sess: sess, timer: timer, expired: expired}
}

func TestTimer_ArmFiresOnce(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	require.NoError(t, f.timer.Arm(ctx, 15*time.Minute))

	at, ok, err := f.sess.ExpiresAt(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, loginTime.Add(15*time.Minute).Equal(at))
	require.True(t, loginTime.Add(15*time.Minute).Equal(f.timer.ExpiresAt()))

	f.clock.Advance(14 * time.Minute)
	require.EqualValues(t, 0, f.expired.Load())

	f.clock.Advance(time.Minute)
	require.EqualValues(t, 1, f.expired.Load())
	require.True(t, f.timer.ExpiresAt().IsZero())

	f.clock.Advance(time.Hour)
	require.EqualValues(t, 1, f.expired.Load())
}

// TestTimer_RearmCancelsPrevious tests that re-arming leaves only one schedule alive
func TestTimer_RearmCancelsPrevious(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	require.NoError(t, f.timer.Arm(ctx, 5*time.Minute))
	f.clock.Advance(4 * time.Minute)
	require.NoError(t, f.timer.Arm(ctx, 15*time.Minute)) // refresh
	require.Equal(t, 1, f.clock.Pending())

	f.clock.Advance(2 * time.Minute) // first schedule's instant has passed
	require.EqualValues(t, 0, f.expired.Load())

	f.clock.Advance(13 * time.Minute)
	require.EqualValues(t, 1, f.expired.Load())

	f.clock.Advance(time.Hour)
	require.EqualValues(t, 1, f.expired.Load())
}

func TestTimer_Stop(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	require.NoError(t, f.timer.Arm(ctx, time.Minute))
	f.timer.Stop()
	require.Equal(t, 0, f.clock.Pending())
	require.True(t, f.timer.ExpiresAt().IsZero())

	f.clock.Advance(time.Hour)
	require.EqualValues(t, 0, f.expired.Load())
}

// TestTimer_Restore tests restoring the timer from a persisted expiry after a restart
func TestTimer_Restore(t *testing.T) {
	const expiresIn = 900

	t.Run("remaining time is computed from the absolute instant", func(t *testing.T) {
		f := setupTestFixture(t)
		ctx := context.Background()
		require.NoError(t, f.sess.SetAccessToken(ctx, "access-1"))
		require.NoError(t, f.sess.SetExpiresAt(ctx, loginTime.Add(expiresIn*time.Second)))

		f.clock.Advance(10 * time.Minute) // restart ten minutes later
		armed, err := f.timer.Restore(ctx)
		require.NoError(t, err)
		require.True(t, armed)

		f.clock.Advance(5*time.Minute - time.Second)
		require.EqualValues(t, 0, f.expired.Load())
		f.clock.Advance(time.Second)
		require.EqualValues(t, 1, f.expired.Load())
	})

	t.Run("already past tears down immediately", func(t *testing.T) {
		f := setupTestFixture(t)
		ctx := context.Background()
		require.NoError(t, f.sess.SaveTokens(ctx, session.Tokens{
			AccessToken:  "access-1",
			RefreshToken: "refresh-1",
			ExpiresAt:    loginTime.Add(expiresIn * time.Second),
		}))

		f.clock.Advance((expiresIn + 10) * time.Second)
		armed, err := f.timer.Restore(ctx)
		require.NoError(t, err)
		require.True(t, armed)

		require.EqualValues(t, 1, f.expired.Load())
		require.Equal(t, 0, f.clock.Pending())

		tokens, err := f.sess.Tokens(ctx)
		require.NoError(t, err)
		require.Equal(t, session.Tokens{}, tokens)
	})

	t.Run("unreadable expiry tears down immediately", func(t *testing.T) {
		f := setupTestFixture(t)
		ctx := context.Background()
		require.NoError(t, f.sess.SaveTokens(ctx, session.Tokens{AccessToken: "access-1", RefreshToken: "refresh-1"}))
		require.NoError(t, f.store.Set(ctx, session.KeyExpiresAt, "not-a-number"))

		armed, err := f.timer.Restore(ctx)
		require.NoError(t, err)
		require.True(t, armed)
		require.EqualValues(t, 1, f.expired.Load())
		require.Equal(t, 0, f.clock.Pending())

		tokens, err := f.sess.Tokens(ctx)
		require.NoError(t, err)
		require.Equal(t, session.Tokens{}, tokens)
	})

	t.Run("nothing persisted", func(t *testing.T) {
		f := setupTestFixture(t)
		armed, err := f.timer.Restore(context.Background())
		require.NoError(t, err)
		require.False(t, armed)
		require.Equal(t, 0, f.clock.Pending())
	})
}

func TestTimer_RealClock(t *testing.T) {
	sess := session.New(sessionrepofake.NewFakeSessionStore())
	timer := expiry.NewTimer(sess)

	done := make(chan struct{})
	timer.OnExpire(func(context.Context) { close(done) })
	require.NoError(t, timer.Arm(context.Background(), 20*time.Millisecond))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timer did not fire")
	}
}
