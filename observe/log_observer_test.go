package observe_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aponysus/recheck/logger"
	"github.com/aponysus/recheck/observe"
)

func TestLogObserver_WritesAttemptsAndOutcome(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewLogger(&logger.Config{Level: logger.DebugLevel, Output: &buf})
	obs := observe.LogObserver{Logger: log}

	ctx := context.Background()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	run := observe.Run{ID: "run-1", Name: "db", Mode: "retry", MaxAttempts: 3, Start: start}

	obs.OnStart(ctx, run)
	obs.OnAttempt(ctx, run, observe.Status{Attempt: 1, MaxAttempts: 3, Status: false})
	obs.OnFailure(ctx, observe.Timeline{
		Run:      run,
		End:      start.Add(time.Second),
		Outcome:  observe.OutcomeExhausted,
		FinalErr: errors.New("Retried too many times."),
	})

	out := buf.String()
	for _, want := range []string{"polling started", "attempt", "run_id=run-1", "polling failed", "outcome=exhausted"} {
		if !strings.Contains(out, want) {
			t.Fatalf("log output missing %q:\n%s", want, out)
		}
	}
}

func TestLogObserver_FallsBackToContextLogger(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewLogger(&logger.Config{Level: logger.InfoLevel, Output: &buf})
	ctx := logger.ContextWithLogger(context.Background(), log)

	observe.LogObserver{}.OnSuccess(ctx, observe.Timeline{Outcome: observe.OutcomeSucceeded, Result: true})

	if !strings.Contains(buf.String(), "polling finished") {
		t.Fatalf("expected context logger to be used, got %q", buf.String())
	}
}
