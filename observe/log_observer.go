package observe

import (
	"context"

	"github.com/aponysus/recheck/logger"
)

// LogObserver writes one line per attempt and one per outcome.
type LogObserver struct {
	Logger logger.Logger
}

func (o LogObserver) log(ctx context.Context) logger.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return logger.FromContext(ctx)
}

func (o LogObserver) OnStart(ctx context.Context, run Run) {
	o.log(ctx).Info("polling started",
		"run_id", run.ID,
		"name", run.Name,
		"mode", run.Mode,
		"max_attempts", run.MaxAttempts,
	)
}

func (o LogObserver) OnAttempt(ctx context.Context, run Run, st Status) {
	o.log(ctx).Info("attempt",
		"run_id", run.ID,
		"name", run.Name,
		"attempt", st.Attempt,
		"max_attempts", st.MaxAttempts,
		"status", st.Status,
		"execution_time", st.ExecutionTime,
		"interval", st.Interval,
		"at", st.DateTimeNow,
	)
}

func (o LogObserver) OnSuccess(ctx context.Context, tl Timeline) {
	o.log(ctx).Info("polling finished",
		"run_id", tl.Run.ID,
		"name", tl.Run.Name,
		"outcome", tl.Outcome,
		"result", tl.Result,
		"attempts", len(tl.Attempts),
		"elapsed", tl.End.Sub(tl.Run.Start),
	)
}

func (o LogObserver) OnFailure(ctx context.Context, tl Timeline) {
	o.log(ctx).Warn("polling failed",
		"run_id", tl.Run.ID,
		"name", tl.Run.Name,
		"outcome", tl.Outcome,
		"attempts", len(tl.Attempts),
		"elapsed", tl.End.Sub(tl.Run.Start),
		"err", tl.FinalErr,
	)
}
