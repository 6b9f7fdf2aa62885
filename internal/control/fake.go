package control

import (
	"context"
	"time"

	"github.com/sweeney/softener-guard/internal/logic"
)

// FakeClock is a manual clock. Sleep advances it instantly.
type FakeClock struct {
	now time.Time
	// Slept accumulates every Sleep duration.
	Slept time.Duration
}

// NewFakeClock creates a FakeClock starting at start.
func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{now: start}
}

// Now returns the current fake time.
func (c *FakeClock) Now() time.Time { return c.now }

// Sleep advances the clock by d.
func (c *FakeClock) Sleep(d time.Duration) {
	c.now = c.now.Add(d)
	c.Slept += d
}

// Advance moves the clock forward without counting it as sleep.
func (c *FakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// FakeReporter collects reported events.
type FakeReporter struct {
	Events []logic.Event
}

// Report appends e.
func (r *FakeReporter) Report(_ context.Context, e logic.Event) {
	r.Events = append(r.Events, e)
}

// Types returns the reported event types in order.
func (r *FakeReporter) Types() []logic.EventType {
	out := make([]logic.EventType, len(r.Events))
	for i, e := range r.Events {
		out[i] = e.Type
	}
	return out
}

// Count returns how many events of type t were reported.
func (r *FakeReporter) Count(t logic.EventType) int {
	n := 0
	for _, e := range r.Events {
		if e.Type == t {
			n++
		}
	}
	return n
}
