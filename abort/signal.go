package abort

import (
	"context"
	"sync"
)

// Signal is the cancellation capability handed to executors.
//
// Executors may poll Aborted, select on Done, register OnAbort listeners, or
// pass Context to blocking calls. Observing it is advisory; the owning
// Promise rejects on abort either way.
type Signal interface {
	Aborted() bool
	// Reason is the reason the signal was activated with, or "" if it has
	// not been activated.
	Reason() string
	Done() <-chan struct{}
	// OnAbort registers f to run once on activation. If the signal is
	// already active f runs immediately. stop unregisters f and reports
	// whether it did so before f ran.
	OnAbort(f func()) (stop func() bool)
	// Context is cancelled on activation with an *AbortError cause.
	Context() context.Context
}

type listener struct {
	id int
	f  func()
}

type signal struct {
	ctx    context.Context
	cancel context.CancelCauseFunc

	mu        sync.Mutex
	active    bool
	reason    string
	nextID    int
	listeners []listener
}

func newSignal() *signal {
	ctx, cancel := context.WithCancelCause(context.Background())
	return &signal{ctx: ctx, cancel: cancel}
}

func (s *signal) Aborted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

func (s *signal) Reason() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reason
}

func (s *signal) Done() <-chan struct{} {
	return s.ctx.Done()
}

func (s *signal) Context() context.Context {
	return s.ctx
}

func (s *signal) OnAbort(f func()) func() bool {
	if f == nil {
		return func() bool { return false }
	}

	s.mu.Lock()
	if s.active {
		s.mu.Unlock()
		f()
		return func() bool { return false }
	}
	id := s.nextID
	s.nextID++
	s.listeners = append(s.listeners, listener{id: id, f: f})
	s.mu.Unlock()

	return func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, l := range s.listeners {
			if l.id == id {
				s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
				return true
			}
		}
		return false
	}
}

// activate fires the signal once. Listeners run synchronously, in
// registration order, on the calling goroutine.
func (s *signal) activate(reason string) bool {
	s.mu.Lock()
	if s.active {
		s.mu.Unlock()
		return false
	}
	s.active = true
	s.reason = reason
	pending := s.listeners
	s.listeners = nil
	s.mu.Unlock()

	s.cancel(&AbortError{Reason: reason})
	for _, l := range pending {
		l.f()
	}
	return true
}
