package observe

import (
	"context"

	"github.com/aponysus/recheck/internal"
)

// BaseObserver implements Observer with no-op methods.
//
// Embed it to implement only the callbacks you need.
type BaseObserver struct{}

func (BaseObserver) OnStart(context.Context, Run)           {}
func (BaseObserver) OnAttempt(context.Context, Run, Status) {}
func (BaseObserver) OnSuccess(context.Context, Timeline)    {}
func (BaseObserver) OnFailure(context.Context, Timeline)    {}

// MultiObserver fans out events to multiple observers. Nil entries, including
// typed nils, are skipped.
type MultiObserver struct {
	Observers []Observer
}

// Multi builds a MultiObserver, dropping nil and no-op observers.
func Multi(observers ...Observer) Observer {
	kept := make([]Observer, 0, len(observers))
	for _, o := range observers {
		if internal.IsTypedNil(o) || IsNoop(o) {
			continue
		}
		kept = append(kept, o)
	}
	switch len(kept) {
	case 0:
		return NoopObserver{}
	case 1:
		return kept[0]
	default:
		return MultiObserver{Observers: kept}
	}
}

func (m MultiObserver) OnStart(ctx context.Context, run Run) {
	for _, o := range m.Observers {
		if !internal.IsTypedNil(o) {
			o.OnStart(ctx, run)
		}
	}
}

func (m MultiObserver) OnAttempt(ctx context.Context, run Run, st Status) {
	for _, o := range m.Observers {
		if !internal.IsTypedNil(o) {
			o.OnAttempt(ctx, run, st)
		}
	}
}

func (m MultiObserver) OnSuccess(ctx context.Context, tl Timeline) {
	for _, o := range m.Observers {
		if !internal.IsTypedNil(o) {
			o.OnSuccess(ctx, tl)
		}
	}
}

func (m MultiObserver) OnFailure(ctx context.Context, tl Timeline) {
	for _, o := range m.Observers {
		if !internal.IsTypedNil(o) {
			o.OnFailure(ctx, tl)
		}
	}
}
