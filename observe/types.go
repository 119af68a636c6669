package observe

import (
	"context"
	"time"
)

// Status is the snapshot emitted after every attempt of a polling run.
type Status struct {
	// Attempt is 1-based, counted from the first evaluation.
	Attempt int

	// DateTimeNow is Time rendered as ISO-8601 UTC with millisecond precision.
	DateTimeNow string
	Time        time.Time

	// ExecutionTime is how long the check took.
	ExecutionTime time.Duration

	// Interval is the wait in effect for this attempt.
	Interval time.Duration

	MaxAttempts int

	// Status is the check result.
	Status bool
}

// Run identifies a single polling invocation.
type Run struct {
	ID          string
	Name        string
	Mode        string
	MaxAttempts int
	Start       time.Time
}

// Outcome names how a run settled.
type Outcome string

const (
	OutcomeSucceeded  Outcome = "succeeded"
	OutcomeOverridden Outcome = "overridden"
	OutcomeSuppressed Outcome = "suppressed"
	OutcomeExhausted  Outcome = "exhausted"
	OutcomeCanceled   Outcome = "canceled"
	OutcomePanicked   Outcome = "panicked"
)

// Timeline is the structured record of a run and all of its attempts.
type Timeline struct {
	Run Run
	End time.Time

	Attempts []Status

	Outcome  Outcome
	Result   bool
	FinalErr error
}

// Observer receives lifecycle callbacks for a run.
//
// OnSuccess fires when the run resolves (including overridden and suppressed
// failures); OnFailure fires when it rejects.
type Observer interface {
	OnStart(ctx context.Context, run Run)
	OnAttempt(ctx context.Context, run Run, st Status)
	OnSuccess(ctx context.Context, tl Timeline)
	OnFailure(ctx context.Context, tl Timeline)
}
