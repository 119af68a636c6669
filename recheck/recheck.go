// Package recheck is the short path to the default poller.
package recheck

import (
	"context"
	"time"

	"github.com/aponysus/recheck/abort"
	"github.com/aponysus/recheck/observe"
	"github.com/aponysus/recheck/poll"
	"github.com/aponysus/recheck/probe"
)

type (
	Config   = poll.Config
	Status   = observe.Status
	Timeline = observe.Timeline
)

// Init sets the default poller. It must be called before Poll or Start.
func Init(p *poll.Poller) {
	poll.SetGlobal(p)
}

// Poll runs check with cfg on the default poller and waits for the outcome.
func Poll(ctx context.Context, check func() bool, cfg Config) (bool, error) {
	return poll.Poll(ctx, check, cfg)
}

// Start begins a run on the default poller without waiting.
func Start(ctx context.Context, check func() bool, cfg Config) (*poll.Result, error) {
	return poll.Start(ctx, check, cfg)
}

// PollWithTimeline runs check and returns the recorded timeline along with
// the outcome.
func PollWithTimeline(ctx context.Context, check func() bool, cfg Config) (bool, Timeline, error) {
	ctx, capture := observe.RecordTimeline(ctx)
	ok, err := poll.Poll(ctx, check, cfg)
	if tl := capture.Timeline(); tl != nil {
		return ok, *tl, err
	}
	return ok, Timeline{}, err
}

// StartAbortable begins a run whose promise can be aborted. Aborting rejects
// the promise with *abort.AbortError and stops further attempts.
func StartAbortable(ctx context.Context, check func() bool, cfg Config) (*abort.Promise[bool], error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	res, err := poll.Start(ctx, check, cfg)
	if err != nil {
		cancel()
		return nil, err
	}

	p := abort.From[bool](res)
	p.Signal().OnAbort(cancel)
	go func() {
		<-res.Done()
		cancel()
	}()
	return p, nil
}

// WaitFor polls p until it is ready, bounding each probe by probeTimeout.
func WaitFor(ctx context.Context, p probe.Probe, probeTimeout time.Duration, cfg Config) (bool, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	return poll.Poll(ctx, probe.Check(ctx, p, probeTimeout, nil), cfg)
}
