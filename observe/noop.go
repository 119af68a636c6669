package observe

import "context"

// NoopObserver implements Observer with no-op methods.
type NoopObserver struct{}

func (NoopObserver) OnStart(context.Context, Run)           {}
func (NoopObserver) OnAttempt(context.Context, Run, Status) {}
func (NoopObserver) OnSuccess(context.Context, Timeline)    {}
func (NoopObserver) OnFailure(context.Context, Timeline)    {}

// IsNoop reports whether o can be skipped entirely.
func IsNoop(o Observer) bool {
	switch o.(type) {
	case nil, NoopObserver, *NoopObserver:
		return true
	default:
		return false
	}
}
