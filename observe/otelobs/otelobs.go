// Package otelobs reports polling runs through OpenTelemetry: one span per
// run with an event per attempt, plus counters and histograms.
package otelobs

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/aponysus/recheck/observe"
)

const instrumentationName = "github.com/aponysus/recheck/observe/otelobs"

// Observer implements observe.Observer. Spans are keyed by run ID, so one
// Observer may serve many concurrent runs.
type Observer struct {
	tracer trace.Tracer

	runs          metric.Int64Counter
	attempts      metric.Int64Counter
	checkDuration metric.Float64Histogram
	runDuration   metric.Float64Histogram

	mu    sync.Mutex
	spans map[string]trace.Span
}

// New builds an Observer. Nil providers fall back to the otel globals.
func New(mp metric.MeterProvider, tp trace.TracerProvider) (*Observer, error) {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	meter := mp.Meter(instrumentationName)

	o := &Observer{
		tracer: tp.Tracer(instrumentationName),
		spans:  make(map[string]trace.Span),
	}

	var err error
	if o.runs, err = meter.Int64Counter(
		"recheck.runs",
		metric.WithDescription("Polling runs by outcome"),
		metric.WithUnit("1"),
	); err != nil {
		return nil, fmt.Errorf("failed to create runs counter: %w", err)
	}
	if o.attempts, err = meter.Int64Counter(
		"recheck.attempts",
		metric.WithDescription("Check evaluations by result"),
		metric.WithUnit("1"),
	); err != nil {
		return nil, fmt.Errorf("failed to create attempts counter: %w", err)
	}
	if o.checkDuration, err = meter.Float64Histogram(
		"recheck.check.duration",
		metric.WithDescription("Time spent in a single check"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("failed to create check duration histogram: %w", err)
	}
	if o.runDuration, err = meter.Float64Histogram(
		"recheck.run.duration",
		metric.WithDescription("Wall time from start to settlement of a run"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("failed to create run duration histogram: %w", err)
	}
	return o, nil
}

func (o *Observer) OnStart(ctx context.Context, run observe.Run) {
	_, span := o.tracer.Start(ctx, "recheck.poll "+run.Name,
		trace.WithTimestamp(run.Start),
		trace.WithAttributes(
			attribute.String("recheck.run_id", run.ID),
			attribute.String("recheck.name", run.Name),
			attribute.String("recheck.mode", run.Mode),
			attribute.Int("recheck.max_attempts", run.MaxAttempts),
		),
	)
	o.mu.Lock()
	o.spans[run.ID] = span
	o.mu.Unlock()
}

func (o *Observer) OnAttempt(ctx context.Context, run observe.Run, st observe.Status) {
	name := attribute.String("recheck.name", run.Name)
	o.attempts.Add(ctx, 1, metric.WithAttributes(name, attribute.Bool("recheck.status", st.Status)))
	o.checkDuration.Record(ctx, st.ExecutionTime.Seconds(), metric.WithAttributes(name))

	if span := o.span(run.ID, false); span != nil {
		span.AddEvent("attempt",
			trace.WithTimestamp(st.Time),
			trace.WithAttributes(
				attribute.Int("recheck.attempt", st.Attempt),
				attribute.Bool("recheck.status", st.Status),
				attribute.Int64("recheck.execution_time_ms", st.ExecutionTime.Milliseconds()),
				attribute.Int64("recheck.interval_ms", st.Interval.Milliseconds()),
			),
		)
	}
}

func (o *Observer) OnSuccess(ctx context.Context, tl observe.Timeline) {
	o.settle(ctx, tl)
}

func (o *Observer) OnFailure(ctx context.Context, tl observe.Timeline) {
	o.settle(ctx, tl)
}

func (o *Observer) settle(ctx context.Context, tl observe.Timeline) {
	attrs := metric.WithAttributes(
		attribute.String("recheck.name", tl.Run.Name),
		attribute.String("recheck.mode", tl.Run.Mode),
		attribute.String("recheck.outcome", string(tl.Outcome)),
	)
	o.runs.Add(ctx, 1, attrs)
	o.runDuration.Record(ctx, tl.End.Sub(tl.Run.Start).Seconds(), attrs)

	span := o.span(tl.Run.ID, true)
	if span == nil {
		return
	}
	span.SetAttributes(
		attribute.String("recheck.outcome", string(tl.Outcome)),
		attribute.Bool("recheck.result", tl.Result),
		attribute.Int("recheck.attempts", len(tl.Attempts)),
	)
	if tl.FinalErr != nil {
		span.RecordError(tl.FinalErr)
		span.SetStatus(codes.Error, tl.FinalErr.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End(trace.WithTimestamp(tl.End))
}

func (o *Observer) span(runID string, remove bool) trace.Span {
	o.mu.Lock()
	defer o.mu.Unlock()
	span, ok := o.spans[runID]
	if !ok {
		return nil
	}
	if remove {
		delete(o.spans, runID)
	}
	return span
}
