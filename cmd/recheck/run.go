package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/aponysus/recheck/abort"
	"github.com/aponysus/recheck/logger"
	"github.com/aponysus/recheck/observe"
	"github.com/aponysus/recheck/poll"
	"github.com/aponysus/recheck/probe"
)

const interruptReason = "interrupted"

var errNotReady = errors.New("not ready")

// waitFor polls p with the resolved profile until it settles.
func (o *rootOptions) waitFor(cmd *cobra.Command, p probe.Probe) error {
	file, err := o.loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	prof, err := file.Profile(o.profile)
	if err != nil {
		return err
	}
	o.applyProfile(cmd.Flags(), &prof)
	o.applyLog(cmd.Flags(), &file.Log)

	lc := file.Log.LoggerConfig()
	lc.Output = cmd.ErrOrStderr()
	log := logger.NewLogger(lc)

	cfg, err := prof.PollConfig()
	if err != nil {
		return err
	}

	if c, ok := p.(io.Closer); ok {
		defer c.Close()
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	ctx = logger.ContextWithLogger(ctx, log)

	poller := poll.NewPoller(
		poll.WithLogger(log),
		poll.WithObserver(observe.LogObserver{Logger: log}),
		poll.WithRecoverPanics(true),
	)

	// The promise exists before the first attempt, so an interrupt during a
	// slow first probe still aborts instead of killing the process.
	var resolve func(bool)
	var reject func(error)
	run := abort.New(func(res func(bool), rej func(error), _ abort.Signal) {
		resolve, reject = res, rej
	})
	run.Signal().OnAbort(cancel)

	sigs, stop := o.interrupts()
	defer stop()
	go func() {
		select {
		case s := <-sigs:
			log.Warn("aborting", "signal", s.String())
			run.Abort(interruptReason)
		case <-run.Done():
		}
	}()

	res, err := poller.Start(ctx, probe.Check(ctx, p, prof.ProbeTimeout, log), cfg)
	if err != nil {
		reject(err)
		return err
	}
	go func() {
		v, err := res.Await(context.Background())
		if err != nil {
			reject(err)
			return
		}
		resolve(v)
	}()

	ready, err := run.Await(context.Background())
	// An abort settles the promise first; the run still has to wind down
	// and flush its last log lines before the command writes anything.
	<-res.Done()
	if err != nil {
		return err
	}
	if !ready {
		return fmt.Errorf("%s: %w", cfg.Name, errNotReady)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: ready\n", cfg.Name)
	return nil
}
