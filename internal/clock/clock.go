package clock

import "time"

// Clock allows injecting time into services.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

// NewSystem returns a clock backed by time.Now.
func NewSystem() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

// Mock is a settable clock for tests.
type Mock struct {
	now time.Time
}

// NewMock returns a clock fixed at t until advanced.
func NewMock(t time.Time) *Mock {
	return &Mock{now: t.UTC()}
}

func (m *Mock) Now() time.Time {
	return m.now
}

// Set moves the mock clock to t.
func (m *Mock) Set(t time.Time) {
	m.now = t.UTC()
}

// Advance moves the mock clock forward by d.
func (m *Mock) Advance(d time.Duration) {
	m.now = m.now.Add(d)
}
