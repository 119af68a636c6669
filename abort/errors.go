package abort

import (
	"errors"
	"fmt"
)

// ErrAborted matches every *AbortError via errors.Is.
var ErrAborted = errors.New("abort: aborted")

var (
	errNilReject = errors.New("abort: rejected with nil error")
	errNilSource = errors.New("abort: nil source")
)

// DefaultReason is used when Abort is called with an empty reason.
const DefaultReason = "Aborted"

// AbortError is the rejection produced by Promise.Abort. Its message is the
// abort reason.
type AbortError struct {
	Reason string
}

func (e *AbortError) Error() string {
	return e.Reason
}

func (e *AbortError) Is(target error) bool {
	return target == ErrAborted
}

// PanicError is the rejection produced when an executor panics.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("abort: panic in executor: %v", e.Value)
}
