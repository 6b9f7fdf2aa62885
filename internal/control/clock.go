// Package control runs the backwash supervisor against the hardware: window
// sampling, the supervisor state machine and the restart sequence.
package control

import "time"

// Clock abstracts wall-clock time so the control loop can run against a fake.
// Durations are measured by subtracting Now values, which carry Go's
// monotonic reading and are unaffected by wall-clock jumps.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

// SystemClock is the real clock.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time { return time.Now() }

// Sleep blocks for d.
func (SystemClock) Sleep(d time.Duration) { time.Sleep(d) }
