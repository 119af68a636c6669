package poll

import (
	"fmt"
	"slices"
	"time"

	"github.com/aponysus/recheck/observe"
)

// Mode selects the termination policy of a run.
type Mode string

const (
	// ModeRetry stops after Config.Attempts evaluations.
	ModeRetry Mode = "retry"
	// ModeTimeout derives the attempt budget from Config.Timeout divided by
	// the effective interval.
	ModeTimeout Mode = "timeout"
)

const (
	DefaultName           = "poll"
	DefaultTimeoutMessage = "Timed out retrying."
	DefaultRetryMessage   = "Retried too many times."
)

// Interval is the delay schedule between attempts.
//
// A single element is reused for every attempt. Longer schedules are
// consumed from the end, one element per attempt, until one element remains;
// in timeout mode the last element is reused without consuming anything.
type Interval []time.Duration

// Every reuses d between every attempt.
func Every(d time.Duration) Interval {
	return Interval{d}
}

// Sequence returns ds as a schedule consumed from the end.
func Sequence(ds ...time.Duration) Interval {
	return Interval(slices.Clone(ds))
}

// InOrder returns a schedule that yields ds first to last in retry mode and
// then keeps the final delay. In timeout mode only ds[0] is used.
func InOrder(ds ...time.Duration) Interval {
	iv := Interval(slices.Clone(ds))
	slices.Reverse(iv)
	return iv
}

// Effective returns the interval used to derive the timeout budget: the last
// element, or 0 when empty.
func (iv Interval) Effective() time.Duration {
	if len(iv) == 0 {
		return 0
	}
	return iv[len(iv)-1]
}

// Config describes one polling run.
type Config struct {
	Mode Mode

	// Attempts is the number of evaluations in retry mode.
	Attempts int

	// Timeout is the total budget in timeout mode. Zero means unset.
	Timeout time.Duration

	Interval Interval

	// IgnoreFailure resolves false on exhaustion instead of rejecting.
	IgnoreFailure bool

	// PostFailure runs once on exhaustion. When ok is true, result becomes
	// the outcome of the run.
	PostFailure func() (result bool, ok bool)

	// OnStatus receives a Status after every attempt.
	OnStatus func(observe.Status)

	// ErrorMessage overrides the mode's default exhaustion message.
	ErrorMessage string

	// Name labels the run in logs, metrics and timelines.
	Name string
}

// Validate reports the first invariant cfg violates.
func (cfg Config) Validate() error {
	if cfg.Timeout < 0 {
		return &ConfigError{Field: "Timeout", Reason: "must not be negative"}
	}
	if cfg.Attempts < 0 {
		return &ConfigError{Field: "Attempts", Reason: "must not be negative"}
	}
	for i, d := range cfg.Interval {
		if d < 0 {
			return &ConfigError{Field: fmt.Sprintf("Interval[%d]", i), Reason: "must not be negative"}
		}
	}

	switch cfg.Mode {
	case ModeRetry:
		if cfg.Attempts == 0 {
			return &ConfigError{Field: "Attempts", Reason: "must be positive in retry mode"}
		}
	case ModeTimeout:
		if cfg.Timeout == 0 {
			return &ConfigError{Field: "Timeout", Reason: "is required in timeout mode"}
		}
		if len(cfg.Interval) == 0 {
			return &ConfigError{Field: "Interval", Reason: "is required in timeout mode"}
		}
		if cfg.Interval.Effective() == 0 {
			return &ConfigError{Field: "Interval", Reason: "effective interval must be positive in timeout mode"}
		}
	default:
		return &ConfigError{
			Field:  "Mode",
			Reason: fmt.Sprintf("must be %q or %q, got %q", ModeRetry, ModeTimeout, cfg.Mode),
		}
	}
	return nil
}

// MaxAttempts returns the attempt budget of a valid cfg.
//
// Timeout mode derives it once from Timeout and the effective interval; a
// budget below one is raised to one since the first evaluation always runs.
func (cfg Config) MaxAttempts() int {
	if cfg.Mode != ModeTimeout {
		return cfg.Attempts
	}
	n := int(cfg.Timeout / cfg.Interval.Effective())
	if n < 1 {
		n = 1
	}
	return n
}

func (cfg Config) message() string {
	if cfg.ErrorMessage != "" {
		return cfg.ErrorMessage
	}
	if cfg.Mode == ModeTimeout {
		return DefaultTimeoutMessage
	}
	return DefaultRetryMessage
}

func (cfg Config) name() string {
	if cfg.Name != "" {
		return cfg.Name
	}
	return DefaultName
}
