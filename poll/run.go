package poll

import (
	"context"
	"runtime/debug"
	"sync"
	"time"

	"github.com/aponysus/recheck/clock"
	"github.com/aponysus/recheck/logger"
	"github.com/aponysus/recheck/observe"
)

// run is the state of one polling invocation. step is its state machine;
// each step schedules the next through the clock, so attempts never overlap.
type run struct {
	p     *Poller
	ctx   context.Context
	check func() bool
	cfg   Config

	info   observe.Run
	log    logger.Logger
	result *Result

	sched     *schedule
	remaining int
	attempt   int

	capture *observe.TimelineCapture
	record  bool

	// mu guards the fields below against a concurrent cancellation.
	mu       sync.Mutex
	timer    clock.Timer
	done     bool
	attempts []observe.Status
	stopCtx  func() bool

	// While stepping, cancel only records the request; the step settles
	// the run once its attempt has been emitted.
	stepping      bool
	cancelPending bool
}

func (p *Poller) newRun(ctx context.Context, check func() bool, cfg Config) *run {
	id := p.newRunID()
	info := observe.Run{
		ID:          id,
		Name:        cfg.name(),
		Mode:        string(cfg.Mode),
		MaxAttempts: cfg.MaxAttempts(),
		Start:       p.clock.Now(),
	}

	log := p.logger
	if log == nil {
		log = logger.FromContext(ctx)
	}

	r := &run{
		p:         p,
		ctx:       ctx,
		check:     check,
		cfg:       cfg,
		info:      info,
		log:       log.With("run_id", id, "name", info.Name),
		result:    newResult(id),
		sched:     newSchedule(cfg.Mode, cfg.Interval),
		remaining: info.MaxAttempts,
	}
	if capture, ok := observe.TimelineCaptureFromContext(ctx); ok {
		r.capture = capture
	}
	r.record = r.capture != nil || !observe.IsNoop(p.observer)
	return r
}

func (r *run) begin() {
	r.log.Debug("poll started", "mode", r.info.Mode, "max_attempts", r.info.MaxAttempts)
	r.p.observer.OnStart(r.ctx, r.info)

	if err := r.ctx.Err(); err != nil {
		r.finish(observe.OutcomeCanceled, false, err)
		return
	}
	if r.ctx.Done() != nil {
		stop := context.AfterFunc(r.ctx, r.cancel)
		r.mu.Lock()
		r.stopCtx = stop
		r.mu.Unlock()
	}
	r.step()
}

func (r *run) step() {
	r.mu.Lock()
	r.timer = nil
	if r.done {
		r.mu.Unlock()
		return
	}
	r.stepping = true
	r.mu.Unlock()

	handedOff := false
	defer func() {
		if !handedOff {
			r.endStep()
		}
	}()

	wait := r.sched.next()

	start := r.p.clock.Now()
	var ok bool
	if err := r.guard("check", func() { ok = r.check() }); err != nil {
		r.finish(observe.OutcomePanicked, false, err)
		return
	}
	end := r.p.clock.Now()

	r.remaining--
	r.attempt++
	st := observe.Status{
		Attempt:       r.attempt,
		DateTimeNow:   clock.FormatISO8601(end),
		Time:          end,
		ExecutionTime: end.Sub(start),
		Interval:      wait,
		MaxAttempts:   r.info.MaxAttempts,
		Status:        ok,
	}

	r.mu.Lock()
	if r.record {
		r.attempts = append(r.attempts, st)
	}
	r.mu.Unlock()

	if err := r.emit(st); err != nil {
		r.finish(observe.OutcomePanicked, false, err)
		return
	}

	switch {
	case ok:
		r.finish(observe.OutcomeSucceeded, true, nil)
	case r.remaining < 1:
		r.exhaust()
	default:
		handedOff = true
		r.schedule(wait)
	}
}

// endStep ends a step that did not schedule another one. A cancellation
// that arrived during the step settles the run here.
func (r *run) endStep() {
	r.mu.Lock()
	r.stepping = false
	pending := r.cancelPending && !r.done
	r.mu.Unlock()
	if pending {
		r.finish(observe.OutcomeCanceled, false, r.ctx.Err())
	}
}

func (r *run) emit(st observe.Status) error {
	r.log.Debug("attempt", "attempt", st.Attempt, "status", st.Status, "execution_time", st.ExecutionTime, "interval", st.Interval)
	r.p.observer.OnAttempt(r.ctx, r.info, st)
	if r.cfg.OnStatus == nil {
		return nil
	}
	return r.guard("status callback", func() { r.cfg.OnStatus(st) })
}

func (r *run) exhaust() {
	if r.cfg.PostFailure != nil {
		var v, ok bool
		if err := r.guard("post-failure callback", func() { v, ok = r.cfg.PostFailure() }); err != nil {
			r.finish(observe.OutcomePanicked, false, err)
			return
		}
		if ok {
			r.finish(observe.OutcomeOverridden, v, nil)
			return
		}
	}

	if r.cfg.IgnoreFailure {
		r.finish(observe.OutcomeSuppressed, false, nil)
		return
	}
	r.finish(observe.OutcomeExhausted, false, &ExhaustedError{
		Mode:     r.cfg.Mode,
		Attempts: r.attempt,
		Message:  r.cfg.message(),
	})
}

func (r *run) schedule(wait time.Duration) {
	r.mu.Lock()
	r.stepping = false
	if r.done {
		r.mu.Unlock()
		return
	}
	if r.cancelPending {
		r.mu.Unlock()
		r.finish(observe.OutcomeCanceled, false, r.ctx.Err())
		return
	}
	r.timer = r.p.clock.AfterFunc(wait, r.step)
	r.mu.Unlock()
}

func (r *run) cancel() {
	r.mu.Lock()
	if r.stepping {
		r.cancelPending = true
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()
	r.finish(observe.OutcomeCanceled, false, r.ctx.Err())
}

// finish settles the run once. Later calls are ignored.
func (r *run) finish(outcome observe.Outcome, value bool, err error) {
	r.mu.Lock()
	if r.done {
		r.mu.Unlock()
		return
	}
	r.done = true
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
	stopCtx := r.stopCtx
	attempts := r.attempts
	r.attempts = nil
	r.mu.Unlock()

	if stopCtx != nil {
		stopCtx()
	}

	tl := observe.Timeline{
		Run:      r.info,
		End:      r.p.clock.Now(),
		Attempts: attempts,
		Outcome:  outcome,
		Result:   value,
		FinalErr: err,
	}
	if r.capture != nil {
		observe.StoreTimelineCapture(r.capture, &tl)
	}

	if err != nil {
		r.log.Debug("poll finished", "outcome", outcome, "attempts", r.attempt, "err", err)
		r.p.observer.OnFailure(r.ctx, tl)
		r.result.fut.Reject(err)
		return
	}
	r.log.Debug("poll finished", "outcome", outcome, "result", value, "attempts", r.attempt)
	r.p.observer.OnSuccess(r.ctx, tl)
	r.result.fut.Resolve(value)
}

// guard runs f, converting a panic into *PanicError when recovery is enabled.
func (r *run) guard(component string, f func()) (err error) {
	if r.p.recoverPanics {
		defer func() {
			if rec := recover(); rec != nil {
				r.log.Error("panic recovered", "component", component, "panic", rec)
				err = &PanicError{
					Component: component,
					RunID:     r.info.ID,
					Value:     rec,
					Stack:     debug.Stack(),
				}
			}
		}()
	}
	f()
	return nil
}
