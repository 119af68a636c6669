package poll

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig matches every *ConfigError.
	ErrInvalidConfig = errors.New("poll: invalid config")

	// ErrExhausted matches every *ExhaustedError.
	ErrExhausted = errors.New("poll: attempts exhausted")
)

// ConfigError is returned before any attempt when a Config is invalid.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("poll: invalid config: %s %s", e.Field, e.Reason)
}

func (e *ConfigError) Is(target error) bool {
	return target == ErrInvalidConfig
}

// ExhaustedError rejects a run whose budget ran out without success. Its
// message is the configured or mode default message.
type ExhaustedError struct {
	Mode     Mode
	Attempts int
	Message  string
}

func (e *ExhaustedError) Error() string {
	return e.Message
}

func (e *ExhaustedError) Is(target error) bool {
	return target == ErrExhausted
}

// PanicError is a recovered panic from a caller callback. Recovery is opt-in
// via WithRecoverPanics.
type PanicError struct {
	Component string
	RunID     string
	Value     any
	Stack     []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("poll: panic in %s for run %s: %v", e.Component, e.RunID, e.Value)
}
