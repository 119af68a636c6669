// Package config loads named polling profiles from a YAML file layered with
// environment variables.
//
// Precedence, lowest first: built-in defaults, the file, RECHECK_* env vars.
// Env keys use "__" between levels, e.g. RECHECK_PROFILES__DB__ATTEMPTS=20.
package config

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"time"

	"dario.cat/mergo"
	"github.com/sethvargo/go-retry"

	"github.com/aponysus/recheck/logger"
	"github.com/aponysus/recheck/poll"
)

// DefaultProfileName selects File.Defaults.
const DefaultProfileName = "default"

var ErrUnknownProfile = errors.New("config: unknown profile")

// File is the whole configuration document.
type File struct {
	Defaults Profile            `koanf:"defaults" yaml:"defaults"`
	Profiles map[string]Profile `koanf:"profiles" yaml:"profiles"`
	Log      LogConfig          `koanf:"log"      yaml:"log"`
}

// Profile is a polling configuration plus probe settings. Zero fields in a
// named profile inherit from File.Defaults.
type Profile struct {
	Name          string          `koanf:"name"           yaml:"name,omitempty"`
	Mode          string          `koanf:"mode"           yaml:"mode"                     validate:"omitempty,oneof=retry timeout"`
	Attempts      int             `koanf:"attempts"       yaml:"attempts,omitempty"       validate:"required_if=Mode retry,gte=0"`
	Timeout       time.Duration   `koanf:"timeout"        yaml:"timeout,omitempty"        validate:"required_if=Mode timeout,gte=0"`
	Interval      []time.Duration `koanf:"interval"       yaml:"interval,omitempty"       validate:"dive,gte=0"`
	Backoff       Backoff         `koanf:"backoff"        yaml:"backoff,omitempty"`
	IgnoreFailure *bool           `koanf:"ignore_failure" yaml:"ignore_failure,omitempty"`
	ErrorMessage  string          `koanf:"error_message"  yaml:"error_message,omitempty"`
	ProbeTimeout  time.Duration   `koanf:"probe_timeout"  yaml:"probe_timeout,omitempty"  validate:"gte=0"`
}

// Backoff generates the interval schedule when Interval is empty.
type Backoff struct {
	Kind   string        `koanf:"kind"   yaml:"kind,omitempty"   validate:"omitempty,oneof=constant exponential fibonacci"`
	Base   time.Duration `koanf:"base"   yaml:"base,omitempty"   validate:"required_with=Kind,gte=0"`
	Max    time.Duration `koanf:"max"    yaml:"max,omitempty"    validate:"gte=0"`
	Jitter time.Duration `koanf:"jitter" yaml:"jitter,omitempty" validate:"gte=0"`
	// Steps is how many delays to draw. Zero uses the profile's attempts.
	Steps int `koanf:"steps" yaml:"steps,omitempty" validate:"gte=0"`
}

type LogConfig struct {
	Level string `koanf:"level" yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	JSON  bool   `koanf:"json"  yaml:"json"`
}

// Default returns the built-in configuration.
func Default() *File {
	return &File{
		Defaults: Profile{
			Mode:         string(poll.ModeRetry),
			Attempts:     30,
			Interval:     []time.Duration{time.Second},
			ProbeTimeout: 5 * time.Second,
		},
		Log: LogConfig{Level: string(logger.InfoLevel)},
	}
}

// Profile resolves name, merging it over Defaults. An empty name or
// DefaultProfileName returns Defaults.
func (f *File) Profile(name string) (Profile, error) {
	if name == "" || name == DefaultProfileName {
		p := f.Defaults
		if p.Name == "" {
			p.Name = DefaultProfileName
		}
		return p.Clone(), nil
	}

	p, ok := f.Profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %q", ErrUnknownProfile, name)
	}
	// A profile's own backoff wins over an inherited interval list.
	ownBackoff := p.Backoff.Kind != "" && len(p.Interval) == 0
	if err := mergo.Merge(&p, f.Defaults, mergo.WithoutDereference); err != nil {
		return Profile{}, fmt.Errorf("failed to merge profile %q over defaults: %w", name, err)
	}
	if ownBackoff {
		p.Interval = nil
	}
	if p.Name == "" || p.Name == f.Defaults.Name {
		p.Name = name
	}
	return p.Clone(), nil
}

// ProfileNames returns the configured profile names, sorted.
func (f *File) ProfileNames() []string {
	names := make([]string, 0, len(f.Profiles))
	for name := range f.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PollConfig converts p into a validated poll.Config. The interval list is a
// sequence consumed from the end; with no list, Backoff generates one.
func (p Profile) PollConfig() (poll.Config, error) {
	cfg := poll.Config{
		Name:          p.Name,
		Mode:          poll.Mode(p.Mode),
		Attempts:      p.Attempts,
		Timeout:       p.Timeout,
		Interval:      poll.Sequence(p.Interval...),
		IgnoreFailure: p.IgnoreFailure != nil && *p.IgnoreFailure,
		ErrorMessage:  p.ErrorMessage,
	}

	if len(cfg.Interval) == 0 && p.Backoff.Kind != "" {
		iv, err := p.backoffInterval()
		if err != nil {
			return poll.Config{}, err
		}
		cfg.Interval = iv
	}

	if err := cfg.Validate(); err != nil {
		return poll.Config{}, err
	}
	return cfg, nil
}

func (p Profile) backoffInterval() (poll.Interval, error) {
	b, err := p.Backoff.Build()
	if err != nil {
		return nil, err
	}
	steps := p.Backoff.Steps
	if steps == 0 {
		steps = p.Attempts
	}
	if steps == 0 {
		steps = 1
	}
	return poll.BackoffInterval(b, steps)
}

// Build returns a fresh go-retry backoff for b.
func (b Backoff) Build() (retry.Backoff, error) {
	if b.Base <= 0 {
		return nil, fmt.Errorf("config: backoff %q needs a positive base", b.Kind)
	}

	var bo retry.Backoff
	switch b.Kind {
	case "constant":
		bo = retry.NewConstant(b.Base)
	case "exponential":
		bo = retry.NewExponential(b.Base)
	case "fibonacci":
		bo = retry.NewFibonacci(b.Base)
	default:
		return nil, fmt.Errorf("config: unknown backoff kind %q", b.Kind)
	}
	if b.Jitter > 0 {
		bo = retry.WithJitter(b.Jitter, bo)
	}
	if b.Max > 0 {
		bo = retry.WithCappedDuration(b.Max, bo)
	}
	return bo, nil
}

// LoggerConfig maps the log section onto logger.Config.
func (l LogConfig) LoggerConfig() *logger.Config {
	cfg := logger.DefaultConfig()
	if l.Level != "" {
		cfg.Level = logger.LogLevel(l.Level)
	}
	cfg.JSON = l.JSON
	return cfg
}

// Clone returns a deep copy of p's slices and pointers.
func (p Profile) Clone() Profile {
	p.Interval = slices.Clone(p.Interval)
	if p.IgnoreFailure != nil {
		v := *p.IgnoreFailure
		p.IgnoreFailure = &v
	}
	return p
}
