// Package probe provides readiness tests for common dependencies and adapts
// them into check functions for the poll package.
package probe

import (
	"context"
	"errors"
	"time"

	"github.com/aponysus/recheck/logger"
)

// ErrNotReady wraps failures where the dependency answered but is not ready.
var ErrNotReady = errors.New("probe: not ready")

// Probe reports nil when the dependency is ready.
type Probe interface {
	Probe(ctx context.Context) error
}

// Func adapts a function to Probe.
type Func func(ctx context.Context) error

func (f Func) Probe(ctx context.Context) error {
	return f(ctx)
}

// Check turns p into a synchronous check function. Each call is bounded by
// timeout when it is positive, and stops early once ctx is done. Probe errors
// are logged at Debug.
func Check(ctx context.Context, p Probe, timeout time.Duration, log logger.Logger) func() bool {
	if ctx == nil {
		ctx = context.Background()
	}
	if log == nil {
		log = logger.FromContext(ctx)
	}
	return func() bool {
		pctx, cancel := ctx, context.CancelFunc(func() {})
		if timeout > 0 {
			pctx, cancel = context.WithTimeout(ctx, timeout)
		}
		defer cancel()

		start := time.Now()
		if err := p.Probe(pctx); err != nil {
			log.Debug("probe not ready", "err", err, "took", time.Since(start))
			return false
		}
		return true
	}
}
