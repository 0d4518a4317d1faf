package clockfake

import (
	"sort"
	"sync"
	"time"

	"github.com/jrsteele09/go-practice-client/expiry"
)

var _ expiry.Clock = (*FakeClock)(nil)

// FakeClock is a manually advanced clock. Callbacks run synchronously inside Advance.
type FakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *FakeClock
	at      time.Time
	fn      func()
	stopped bool
}

func NewFakeClock(now time.Time) *FakeClock {
	return &FakeClock{now: now}
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *FakeClock) AfterFunc(d time.Duration, f func()) expiry.Stopper {
	c.mu.Lock()
	defer c.mu.Unlock()
	ft := &fakeTimer{clock: c, at: c.now.Add(d), fn: f}
	c.timers = append(c.timers, ft)
	return ft
}

// Advance moves the clock forward and runs every callback that has come due, in order.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	now := c.now
	var due, pending []*fakeTimer
	for _, ft := range c.timers {
		if ft.stopped {
			continue
		}
		if !ft.at.After(now) {
			due = append(due, ft)
		} else {
			pending = append(pending, ft)
		}
	}
	c.timers = pending
	c.mu.Unlock()

	sort.SliceStable(due, func(i, j int) bool { return due[i].at.Before(due[j].at) })
	for _, ft := range due {
		c.mu.Lock()
		stopped := ft.stopped
		ft.stopped = true
		c.mu.Unlock()
		if !stopped {
			ft.fn()
		}
	}
}

// Pending returns how many callbacks are scheduled and not stopped.
func (c *FakeClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, ft := range c.timers {
		if !ft.stopped {
			n++
		}
	}
	return n
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	wasActive := !t.stopped
	t.stopped = true
	return wasActive
}
