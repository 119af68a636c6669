package poll

import (
	"context"

	"github.com/google/uuid"

	"github.com/aponysus/recheck/clock"
	"github.com/aponysus/recheck/logger"
	"github.com/aponysus/recheck/observe"
)

// Poller starts polling runs. Runs share no state, so one Poller may drive
// any number of concurrent runs.
type Poller struct {
	clock         clock.Clock
	observer      observe.Observer
	logger        logger.Logger
	recoverPanics bool
	newRunID      func() string
}

// Options configures a Poller.
type Options struct {
	Clock    clock.Clock
	Observer observe.Observer

	// Logger receives lifecycle lines at Debug. Nil uses the logger carried
	// by the run context, or the default logger.
	Logger logger.Logger

	// RecoverPanics turns panics in check, PostFailure and OnStatus into
	// *PanicError rejections.
	RecoverPanics bool

	// RunIDs generates run IDs. Nil uses random UUIDs.
	RunIDs func() string
}

// Option customizes Options.
type Option func(*Options)

// NewPoller creates a Poller with default options.
func NewPoller(opts ...Option) *Poller {
	var o Options
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return NewPollerFromOptions(o)
}

// NewPollerFromOptions creates a Poller from a config struct.
func NewPollerFromOptions(opts Options) *Poller {
	p := &Poller{
		clock:         opts.Clock,
		observer:      observe.Multi(opts.Observer),
		logger:        opts.Logger,
		recoverPanics: opts.RecoverPanics,
		newRunID:      opts.RunIDs,
	}
	if p.clock == nil {
		p.clock = clock.New()
	}
	if p.newRunID == nil {
		p.newRunID = uuid.NewString
	}
	return p
}

func WithClock(c clock.Clock) Option {
	return func(o *Options) {
		o.Clock = c
	}
}

// WithObserver adds an observer. Repeated calls fan out to all of them.
func WithObserver(obs observe.Observer) Option {
	return func(o *Options) {
		o.Observer = observe.Multi(o.Observer, obs)
	}
}

func WithLogger(l logger.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}

func WithRecoverPanics(recover bool) Option {
	return func(o *Options) {
		o.RecoverPanics = recover
	}
}

func WithRunIDs(f func() string) Option {
	return func(o *Options) {
		o.RunIDs = f
	}
}

// Start validates cfg, runs the first attempt on the calling goroutine and
// schedules the rest on the Poller's clock.
//
// An invalid cfg is returned as a *ConfigError before check is called.
// Cancelling ctx stops any pending attempt and rejects the Result with
// ctx.Err().
func (p *Poller) Start(ctx context.Context, check func() bool, cfg Config) (*Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if check == nil {
		return nil, &ConfigError{Field: "check", Reason: "must not be nil"}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	r := p.newRun(ctx, check, cfg)
	r.begin()
	return r.result, nil
}

// Poll is Start followed by Await on the same context.
func (p *Poller) Poll(ctx context.Context, check func() bool, cfg Config) (bool, error) {
	res, err := p.Start(ctx, check, cfg)
	if err != nil {
		return false, err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return res.Await(ctx)
}
