package poll

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aponysus/recheck/clock"
	"github.com/aponysus/recheck/logger"
	"github.com/aponysus/recheck/observe"
)

// manualClock fires timers only when the test drains it, on the test
// goroutine, so a chain of attempts runs deterministically.
type manualClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*manualTimer
	waits  []time.Duration
}

type manualTimer struct {
	c       *manualClock
	at      time.Time
	f       func()
	stopped bool
	fired   bool
}

func newManualClock() *manualClock {
	return &manualClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) AfterFunc(d time.Duration, f func()) clock.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTimer{c: c, at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	c.waits = append(c.waits, d)
	return t
}

func (t *manualTimer) Stop() bool {
	t.c.mu.Lock()
	defer t.c.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// Add moves time forward without firing timers.
func (c *manualClock) Add(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// Pending reports how many timers are waiting to fire.
func (c *manualClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

// Waits returns the delays passed to AfterFunc so far.
func (c *manualClock) Waits() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.waits...)
}

// Drain fires due timers in order, advancing time to each, until none
// remain. It returns the number fired.
func (c *manualClock) Drain(t *testing.T) int {
	t.Helper()
	fired := 0
	for {
		c.mu.Lock()
		var next *manualTimer
		for _, tm := range c.timers {
			if tm.stopped || tm.fired {
				continue
			}
			if next == nil || tm.at.Before(next.at) {
				next = tm
			}
		}
		if next == nil {
			c.mu.Unlock()
			return fired
		}
		next.fired = true
		if next.at.After(c.now) {
			c.now = next.at
		}
		c.mu.Unlock()

		next.f()
		fired++
		if fired > 10000 {
			t.Fatalf("timer chain did not terminate")
		}
	}
}

func newTestPoller(c *manualClock, opts ...Option) *Poller {
	base := []Option{
		WithClock(c),
		WithLogger(logger.NewForTests()),
	}
	return NewPoller(append(base, opts...)...)
}

// countingCheck returns false until the n-th call, true from then on. n <= 0
// never succeeds.
func countingCheck(n int) (func() bool, *int) {
	calls := 0
	return func() bool {
		calls++
		return n > 0 && calls >= n
	}, &calls
}

func mustSettle(t *testing.T, res *Result) (bool, error) {
	t.Helper()
	v, err, ok := res.Settled()
	if !ok {
		t.Fatalf("expected run %s to be settled", res.RunID())
	}
	return v, err
}

func awaitResult(t *testing.T, res *Result) (bool, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	select {
	case <-res.Done():
	case <-ctx.Done():
		t.Fatalf("run %s did not settle", res.RunID())
	}
	return res.Await(ctx)
}

type recordingObserver struct {
	mu        sync.Mutex
	starts    []observe.Run
	attempts  []observe.Status
	successes []observe.Timeline
	failures  []observe.Timeline
	events    []string
}

func (o *recordingObserver) note(event string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, event)
}

func (o *recordingObserver) OnStart(_ context.Context, run observe.Run) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.starts = append(o.starts, run)
	o.events = append(o.events, "start")
}

func (o *recordingObserver) OnAttempt(_ context.Context, _ observe.Run, st observe.Status) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.attempts = append(o.attempts, st)
	o.events = append(o.events, "attempt")
}

func (o *recordingObserver) OnSuccess(_ context.Context, tl observe.Timeline) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.successes = append(o.successes, tl)
	o.events = append(o.events, "success")
}

func (o *recordingObserver) OnFailure(_ context.Context, tl observe.Timeline) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.failures = append(o.failures, tl)
	o.events = append(o.events, "failure")
}
