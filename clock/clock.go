// Package clock supplies the time collaborators the polling engine needs:
// a current-time source, one-shot delayed callbacks, and ISO-8601 formatting.
package clock

import (
	"time"

	bclock "github.com/benbjohnson/clock"
)

// ISO8601 is the millisecond-precision UTC layout used in status records.
const ISO8601 = "2006-01-02T15:04:05.000Z"

// Timer is a pending one-shot callback.
type Timer interface {
	// Stop prevents the callback from firing. It reports whether the call
	// stopped the timer, false if it had already fired or been stopped.
	Stop() bool
}

// Clock reads the current time and schedules one-shot callbacks.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type wrapped struct {
	c bclock.Clock
}

// New returns a Clock backed by the system clock.
func New() Clock {
	return wrapped{c: bclock.New()}
}

// Wrap adapts a benbjohnson/clock Clock, including *bclock.Mock.
func Wrap(c bclock.Clock) Clock {
	if c == nil {
		return New()
	}
	return wrapped{c: c}
}

func (w wrapped) Now() time.Time { return w.c.Now() }

func (w wrapped) AfterFunc(d time.Duration, f func()) Timer {
	return w.c.AfterFunc(d, f)
}

// FormatISO8601 renders t in UTC with millisecond precision, e.g.
// 2024-05-01T12:00:00.250Z.
func FormatISO8601(t time.Time) string {
	return t.UTC().Format(ISO8601)
}

// NowISO8601 formats c.Now().
func NowISO8601(c Clock) string {
	return FormatISO8601(c.Now())
}
