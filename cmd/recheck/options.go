package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/aponysus/recheck/config"
)

type rootOptions struct {
	configPath string
	envFile    string
	profile    string

	mode          string
	attempts      int
	timeout       time.Duration
	interval      []time.Duration
	backoff       string
	backoffBase   time.Duration
	backoffMax    time.Duration
	ignoreFailure bool
	errorMessage  string
	probeTimeout  time.Duration

	logLevel string
	logJSON  bool

	// interrupts returns the channel that aborts a running poll and a func
	// that stops delivery to it.
	interrupts func() (<-chan os.Signal, func())
}

func newRootOptions() *rootOptions {
	return &rootOptions{interrupts: osInterrupts}
}

func osInterrupts() (<-chan os.Signal, func()) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	return c, func() { signal.Stop(c) }
}

func (o *rootOptions) bindPersistent(fs *pflag.FlagSet) {
	fs.StringVarP(&o.configPath, "config", "c", "", "path to config file")
	fs.StringVar(&o.envFile, "env-file", "", "dotenv file loaded before RECHECK_* overrides are read")
	fs.StringVar(&o.profile, "profile", config.DefaultProfileName, "profile to use from the config file")

	fs.StringVar(&o.mode, "mode", "", "polling mode: retry or timeout")
	fs.IntVar(&o.attempts, "attempts", 0, "attempt budget in retry mode")
	fs.DurationVar(&o.timeout, "timeout", 0, "total time budget in timeout mode")
	fs.DurationSliceVar(&o.interval, "interval", nil, "wait between attempts; a list is consumed from its last element")
	fs.StringVar(&o.backoff, "backoff", "", "generate intervals: constant, exponential or fibonacci")
	fs.DurationVar(&o.backoffBase, "backoff-base", 0, "first backoff delay")
	fs.DurationVar(&o.backoffMax, "backoff-max", 0, "cap for each backoff delay")
	fs.BoolVar(&o.ignoreFailure, "ignore-failure", false, "give up with a false result instead of an error")
	fs.StringVar(&o.errorMessage, "error-message", "", "message used when polling gives up")
	fs.DurationVar(&o.probeTimeout, "probe-timeout", 0, "time limit for a single probe")

	fs.StringVar(&o.logLevel, "log-level", "", "log level: debug, info, warn or error")
	fs.BoolVar(&o.logJSON, "log-json", false, "log as JSON")
}

// loadConfig reads the env file, if any, then the layered config. Variables
// already set in the environment win over the env file.
func (o *rootOptions) loadConfig() (*config.File, error) {
	if o.envFile != "" {
		if err := godotenv.Load(o.envFile); err != nil {
			return nil, fmt.Errorf("failed to load env file %s: %w", o.envFile, err)
		}
	}
	return config.Load(o.configPath)
}

// applyProfile overrides p with the flags set on the command line.
func (o *rootOptions) applyProfile(fs *pflag.FlagSet, p *config.Profile) {
	if fs.Changed("mode") {
		p.Mode = o.mode
	}
	if fs.Changed("attempts") {
		p.Attempts = o.attempts
	}
	if fs.Changed("timeout") {
		p.Timeout = o.timeout
	}
	if fs.Changed("interval") {
		p.Interval = append([]time.Duration(nil), o.interval...)
		p.Backoff = config.Backoff{}
	}
	if fs.Changed("backoff") {
		p.Backoff.Kind = o.backoff
		if !fs.Changed("interval") {
			p.Interval = nil
		}
	}
	if fs.Changed("backoff-base") {
		p.Backoff.Base = o.backoffBase
	}
	if fs.Changed("backoff-max") {
		p.Backoff.Max = o.backoffMax
	}
	if fs.Changed("ignore-failure") {
		v := o.ignoreFailure
		p.IgnoreFailure = &v
	}
	if fs.Changed("error-message") {
		p.ErrorMessage = o.errorMessage
	}
	if fs.Changed("probe-timeout") {
		p.ProbeTimeout = o.probeTimeout
	}
}

func (o *rootOptions) applyLog(fs *pflag.FlagSet, l *config.LogConfig) {
	if fs.Changed("log-level") {
		l.Level = o.logLevel
	}
	if fs.Changed("log-json") {
		l.JSON = o.logJSON
	}
}
