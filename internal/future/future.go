// Package future provides a value that settles exactly once.
//
// It backs both abort.Promise and poll.Result. The first call to Resolve or
// Reject wins; later calls report false and change nothing.
package future

import (
	"context"
	"sync"
)

// Future is a settle-once asynchronous value. The zero value is not usable;
// construct with New.
type Future[T any] struct {
	once sync.Once
	done chan struct{}
	val  T
	err  error
}

// New returns an unsettled Future.
func New[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// Resolve settles f with v. It reports whether this call settled f.
func (f *Future[T]) Resolve(v T) bool {
	return f.settle(v, nil)
}

// Reject settles f with err. It reports whether this call settled f.
func (f *Future[T]) Reject(err error) bool {
	var zero T
	return f.settle(zero, err)
}

func (f *Future[T]) settle(v T, err error) bool {
	settled := false
	f.once.Do(func() {
		f.val = v
		f.err = err
		settled = true
		close(f.done)
	})
	return settled
}

// Done is closed once f has settled.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Settled returns the outcome without blocking. ok is false while f is pending.
func (f *Future[T]) Settled() (v T, err error, ok bool) {
	select {
	case <-f.done:
		return f.val, f.err, true
	default:
		var zero T
		return zero, nil, false
	}
}

// Await blocks until f settles or ctx is done. A nil ctx waits forever.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
