package poll

import (
	"context"

	"github.com/aponysus/recheck/internal/future"
)

// Result is the eventual outcome of a run.
//
// It resolves true on success, to the PostFailure override, or false when
// failure is ignored. It rejects with *ExhaustedError, the context error on
// cancellation, or *PanicError.
type Result struct {
	fut *future.Future[bool]
	id  string
}

func newResult(id string) *Result {
	return &Result{fut: future.New[bool](), id: id}
}

// Done is closed once the run has settled.
func (r *Result) Done() <-chan struct{} {
	return r.fut.Done()
}

// Await blocks until the run settles or ctx is done. ctx expiring here does
// not stop the run; cancel the context given to Start for that.
func (r *Result) Await(ctx context.Context) (bool, error) {
	return r.fut.Await(ctx)
}

// Settled returns the outcome without blocking; ok is false while pending.
func (r *Result) Settled() (v bool, err error, ok bool) {
	return r.fut.Settled()
}

// RunID identifies the run in logs, metrics and timelines.
func (r *Result) RunID() string {
	return r.id
}
