package poll

import "time"

// schedule hands out the wait that follows each attempt.
type schedule struct {
	mode      Mode
	remaining []time.Duration
}

func newSchedule(mode Mode, iv Interval) *schedule {
	return &schedule{mode: mode, remaining: append([]time.Duration(nil), iv...)}
}

func (s *schedule) next() time.Duration {
	n := len(s.remaining)
	switch {
	case n == 0:
		return 0
	case n == 1:
		return s.remaining[0]
	}

	d := s.remaining[n-1]
	// Timeout mode reuses the last element.
	if s.mode != ModeTimeout {
		s.remaining = s.remaining[:n-1]
	}
	return d
}
