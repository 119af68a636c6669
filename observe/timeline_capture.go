package observe

import (
	"context"
	"sync"
)

// TimelineCapture receives the Timeline of the first run started with the
// context it was recorded into. Later runs sharing the context do not
// overwrite it.
type TimelineCapture struct {
	once sync.Once
	done chan struct{}
	tl   *Timeline
}

func newTimelineCapture() *TimelineCapture {
	return &TimelineCapture{done: make(chan struct{})}
}

// Done is closed once a timeline has been stored.
func (c *TimelineCapture) Done() <-chan struct{} {
	return c.done
}

// Timeline returns the captured timeline, or nil while the run is pending.
func (c *TimelineCapture) Timeline() *Timeline {
	if c == nil {
		return nil
	}
	select {
	case <-c.done:
		return c.tl
	default:
		return nil
	}
}

type captureKey struct{}

// captureSlot is stored under captureKey. A zero slot disables capture.
type captureSlot struct {
	c *TimelineCapture
}

// RecordTimeline asks the next run started with the returned context to
// publish its Timeline into the returned capture.
func RecordTimeline(ctx context.Context) (context.Context, *TimelineCapture) {
	if ctx == nil {
		ctx = context.Background()
	}
	c := newTimelineCapture()
	return context.WithValue(ctx, captureKey{}, captureSlot{c: c}), c
}

// WithoutTimelineCapture hides any capture requested further up, so a run
// nested inside another run's check leaves the outer capture alone.
func WithoutTimelineCapture(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, captureKey{}, captureSlot{})
}

func TimelineCaptureFromContext(ctx context.Context) (*TimelineCapture, bool) {
	if ctx == nil {
		return nil, false
	}
	slot, _ := ctx.Value(captureKey{}).(captureSlot)
	return slot.c, slot.c != nil
}

// StoreTimelineCapture publishes tl into c. Only the first call has any
// effect.
func StoreTimelineCapture(c *TimelineCapture, tl *Timeline) {
	if c == nil || tl == nil {
		return
	}
	c.once.Do(func() {
		c.tl = tl
		close(c.done)
	})
}
