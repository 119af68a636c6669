// Package abort provides Promise, an asynchronous value that an outside
// caller can abort.
//
// Aborting rejects the promise with an *AbortError carrying the reason,
// unless it already settled. The executor receives a Signal it may observe,
// but the rejection does not depend on it.
package abort

import (
	"context"
	"runtime/debug"
	"sync"

	"github.com/aponysus/recheck/internal"
	"github.com/aponysus/recheck/internal/future"
)

// Awaitable is any asynchronous value that can be waited on.
type Awaitable[T any] interface {
	Await(ctx context.Context) (T, error)
}

// Promise is an abortable asynchronous value. The first settlement wins.
type Promise[T any] struct {
	fut     *future.Future[T]
	sig     *signal
	release func() bool

	mu        sync.Mutex
	reason    string
	hasReason bool
}

// New runs executor and returns the promise it settles.
//
// executor runs synchronously inside New and may hand off to goroutines that
// call resolve or reject later. A panic in executor rejects the promise with
// *PanicError.
func New[T any](executor func(resolve func(T), reject func(error), signal Signal)) *Promise[T] {
	p := &Promise[T]{
		fut: future.New[T](),
		sig: newSignal(),
	}

	p.release = p.sig.OnAbort(func() {
		p.fut.Reject(&AbortError{Reason: p.sig.Reason()})
	})

	if executor == nil {
		return p
	}

	func() {
		defer func() {
			if r := recover(); r != nil {
				p.reject(&PanicError{Value: r, Stack: debug.Stack()})
			}
		}()
		executor(p.resolve, p.reject, p.sig)
	}()
	return p
}

func (p *Promise[T]) resolve(v T) {
	if p.fut.Resolve(v) {
		p.release()
	}
}

func (p *Promise[T]) reject(err error) {
	if err == nil {
		err = errNilReject
	}
	if p.fut.Reject(err) {
		p.release()
	}
}

// Abort records reason and activates the signal. An empty reason becomes
// DefaultReason. Calling it again, or after settlement, only updates the
// recorded reason.
func (p *Promise[T]) Abort(reason string) {
	if reason == "" {
		reason = DefaultReason
	}
	p.mu.Lock()
	p.reason = reason
	p.hasReason = true
	p.mu.Unlock()

	p.sig.activate(reason)
}

// AbortReason returns the most recent reason passed to Abort.
func (p *Promise[T]) AbortReason() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.reason, p.hasReason
}

// Signal returns the promise's cancellation signal.
func (p *Promise[T]) Signal() Signal {
	return p.sig
}

// Done is closed once the promise settles.
func (p *Promise[T]) Done() <-chan struct{} {
	return p.fut.Done()
}

// Await blocks until the promise settles or ctx is done. ctx expiring does
// not abort the promise.
func (p *Promise[T]) Await(ctx context.Context) (T, error) {
	return p.fut.Await(ctx)
}

// Settled returns the outcome without blocking; ok is false while pending.
func (p *Promise[T]) Settled() (v T, err error, ok bool) {
	return p.fut.Settled()
}

// From lifts src into a Promise. A *Promise[T] is returned unchanged.
// Otherwise the new promise settles with src's outcome, and Abort still
// rejects it early even though src keeps running.
func From[T any](src Awaitable[T]) *Promise[T] {
	if p, ok := src.(*Promise[T]); ok && p != nil {
		return p
	}
	return New(func(resolve func(T), reject func(error), sig Signal) {
		if internal.IsTypedNil(src) {
			reject(errNilSource)
			return
		}
		go func() {
			v, err := src.Await(sig.Context())
			if err != nil {
				reject(err)
				return
			}
			resolve(v)
		}()
	})
}

// FromFunc runs fn on its own goroutine and returns a Promise for its result.
// The context passed to fn is cancelled when the promise is aborted.
func FromFunc[T any](fn func(ctx context.Context) (T, error)) *Promise[T] {
	return New(func(resolve func(T), reject func(error), sig Signal) {
		if fn == nil {
			reject(errNilSource)
			return
		}
		go func() {
			defer func() {
				if r := recover(); r != nil {
					reject(&PanicError{Value: r, Stack: debug.Stack()})
				}
			}()
			v, err := fn(sig.Context())
			if err != nil {
				reject(err)
				return
			}
			resolve(v)
		}()
	})
}
