// Package gpio provides the flow sensor input and the power relay output.
// The real implementation uses the Linux GPIO character device.
// The fake implementations allow testing without hardware.
package gpio

// Sensor reads the flow switch.
type Sensor interface {
	// Read returns true while water is flowing.
	// The raw line is active-low: raw 0 = flowing.
	Read() (bool, error)

	// Close releases GPIO resources.
	Close() error
}

// Relay drives the softener power relay.
//
// The relay is wired with reverse logic: high cuts power to the softener,
// low restores it. A released or unpowered controller therefore leaves the
// softener running.
type Relay interface {
	// Set drives the relay line high (true) or low (false).
	Set(high bool) error

	// Close releases GPIO resources, leaving the line low.
	Close() error
}

// Pin defaults (BCM numbering)
const (
	DefaultPinRelay  = 23
	DefaultPinSensor = 24
)

// DefaultChip is the character device holding the Pi header lines.
const DefaultChip = "gpiochip0"

// SensorFunc adapts an ordinary function to the Sensor interface.
type SensorFunc func() (bool, error)

// Read calls f.
func (f SensorFunc) Read() (bool, error) { return f() }

// Close does nothing.
func (f SensorFunc) Close() error { return nil }
