package clock

import "time"

// Clock supplies the current time. Core logic never reads the system
// clock directly so time-dependent behavior stays deterministic in tests.
type Clock interface {
	Now() time.Time
}

// System reads the real clock.
type System struct{}

func NewSystem() System { return System{} }

func (System) Now() time.Time { return time.Now().UTC() }

// Fixed always returns the same instant. Test helper.
type Fixed struct {
	T time.Time
}

func NewFixed(t time.Time) *Fixed { return &Fixed{T: t} }

func (f *Fixed) Now() time.Time { return f.T }

// Advance moves the fixed clock forward.
func (f *Fixed) Advance(d time.Duration) { f.T = f.T.Add(d) }
