package poll

import (
	"context"
	"sync/atomic"

	"github.com/aponysus/recheck/logger"
)

// global is installed at most once, by SetGlobal or by the first
// DefaultPoller call, whichever comes first.
var global atomic.Pointer[Poller]

// DefaultPoller returns the shared poller, creating one with NewPoller if
// none has been installed.
func DefaultPoller() *Poller {
	if p := global.Load(); p != nil {
		return p
	}
	global.CompareAndSwap(nil, NewPoller())
	return global.Load()
}

// SetGlobal installs p as the shared poller and reports whether it did. Once
// a poller is in place, including one DefaultPoller created lazily, later
// calls log a warning and change nothing.
func SetGlobal(p *Poller) bool {
	if p == nil {
		return false
	}
	if !global.CompareAndSwap(nil, p) {
		logger.Default().Warn("poll: default poller already in use; SetGlobal ignored")
		return false
	}
	return true
}

// Start starts a run on the default poller.
func Start(ctx context.Context, check func() bool, cfg Config) (*Result, error) {
	return DefaultPoller().Start(ctx, check, cfg)
}

// Poll runs cfg on the default poller and waits for the outcome.
func Poll(ctx context.Context, check func() bool, cfg Config) (bool, error) {
	return DefaultPoller().Poll(ctx, check, cfg)
}
