package poll

import (
	"errors"
	"time"

	"github.com/sethvargo/go-retry"
)

// BackoffInterval draws up to n delays from b and returns them as an
// in-order schedule. Once drawn out, the schedule keeps the last delay.
//
// b is consumed; pass a fresh backoff per call. Drawing stops early if b
// signals stop, e.g. when wrapped with retry.WithMaxRetries.
func BackoffInterval(b retry.Backoff, n int) (Interval, error) {
	if b == nil {
		return nil, errors.New("poll: nil backoff")
	}
	if n < 1 {
		return nil, &ConfigError{Field: "Interval", Reason: "backoff needs at least one delay"}
	}

	delays := make([]time.Duration, 0, n)
	for range n {
		d, stop := b.Next()
		if stop {
			break
		}
		delays = append(delays, d)
	}
	if len(delays) == 0 {
		return nil, &ConfigError{Field: "Interval", Reason: "backoff produced no delays"}
	}
	return InOrder(delays...), nil
}
