// Package promobs exports polling runs as Prometheus metrics.
package promobs

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aponysus/recheck/observe"
)

const defaultNamespace = "recheck"

// Observer records runs, attempts and durations. Register it on a Poller with
// poll.WithObserver.
type Observer struct {
	observe.BaseObserver

	runs          *prometheus.CounterVec
	attempts      *prometheus.CounterVec
	checkDuration *prometheus.HistogramVec
	runDuration   *prometheus.HistogramVec
	inFlight      *prometheus.GaugeVec
}

type options struct {
	namespace string
	buckets   []float64
}

type Option func(*options)

// WithNamespace replaces the "recheck" metric prefix.
func WithNamespace(ns string) Option {
	return func(o *options) {
		o.namespace = ns
	}
}

// WithBuckets sets histogram buckets, in seconds.
func WithBuckets(b []float64) Option {
	return func(o *options) {
		o.buckets = b
	}
}

// New creates the collectors and registers them with reg. A nil reg uses
// prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer, opts ...Option) (*Observer, error) {
	o := options{namespace: defaultNamespace, buckets: prometheus.DefBuckets}
	for _, opt := range opts {
		opt(&o)
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	obs := &Observer{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: o.namespace,
			Name:      "runs_total",
			Help:      "Polling runs by outcome.",
		}, []string{"name", "mode", "outcome"}),
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: o.namespace,
			Name:      "attempts_total",
			Help:      "Check evaluations by result.",
		}, []string{"name", "status"}),
		checkDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: o.namespace,
			Name:      "check_duration_seconds",
			Help:      "Time spent in a single check.",
			Buckets:   o.buckets,
		}, []string{"name"}),
		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: o.namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time from start to settlement of a run.",
			Buckets:   o.buckets,
		}, []string{"name", "outcome"}),
		inFlight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: o.namespace,
			Name:      "runs_in_flight",
			Help:      "Runs started and not yet settled.",
		}, []string{"name"}),
	}

	var errs []error
	for _, c := range []prometheus.Collector{obs.runs, obs.attempts, obs.checkDuration, obs.runDuration, obs.inFlight} {
		if err := reg.Register(c); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return obs, nil
}

func (o *Observer) OnStart(_ context.Context, run observe.Run) {
	o.inFlight.WithLabelValues(run.Name).Inc()
}

func (o *Observer) OnAttempt(_ context.Context, run observe.Run, st observe.Status) {
	o.attempts.WithLabelValues(run.Name, statusLabel(st.Status)).Inc()
	o.checkDuration.WithLabelValues(run.Name).Observe(st.ExecutionTime.Seconds())
}

func (o *Observer) OnSuccess(_ context.Context, tl observe.Timeline) {
	o.settle(tl)
}

func (o *Observer) OnFailure(_ context.Context, tl observe.Timeline) {
	o.settle(tl)
}

func (o *Observer) settle(tl observe.Timeline) {
	name, outcome := tl.Run.Name, string(tl.Outcome)
	o.inFlight.WithLabelValues(name).Dec()
	o.runs.WithLabelValues(name, tl.Run.Mode, outcome).Inc()
	o.runDuration.WithLabelValues(name, outcome).Observe(tl.End.Sub(tl.Run.Start).Seconds())
}

func statusLabel(ok bool) string {
	if ok {
		return "ready"
	}
	return "not_ready"
}

// InFlight returns the in-flight gauge for name.
func (o *Observer) InFlight(name string) prometheus.Gauge {
	return o.inFlight.WithLabelValues(name)
}
