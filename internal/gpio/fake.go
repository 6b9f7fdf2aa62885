package gpio

import "errors"

// FakeSensor is a test double that returns scripted flow readings.
type FakeSensor struct {
	// Samples contains scripted readings (true = flowing).
	// Each call to Read() consumes the next sample.
	Samples []bool

	// index tracks current position in Samples
	index int

	// Reads counts calls to Read.
	Reads int

	// Closed tracks if Close was called
	Closed bool

	// ReadError, if set, will be returned by Read()
	ReadError error
}

// NewFakeSensor creates a FakeSensor with the given samples.
func NewFakeSensor(samples ...bool) *FakeSensor {
	return &FakeSensor{Samples: samples}
}

// Read returns the next scripted sample.
// If samples are exhausted, returns the last sample repeatedly.
func (f *FakeSensor) Read() (bool, error) {
	f.Reads++
	if f.ReadError != nil {
		return false, f.ReadError
	}

	if len(f.Samples) == 0 {
		return false, errors.New("no samples configured")
	}

	sample := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}
	return sample, nil
}

// Close marks the sensor as closed.
func (f *FakeSensor) Close() error {
	f.Closed = true
	return nil
}

// Reset rewinds the sensor to the first sample.
func (f *FakeSensor) Reset() {
	f.index = 0
	f.Reads = 0
	f.Closed = false
}

// FakeRelay records every level written to it.
type FakeRelay struct {
	// Levels holds each successful Set in order.
	Levels []bool

	// High is the current line level.
	High bool

	// Closed tracks if Close was called
	Closed bool

	// SetError, if set, will be returned by Set() and the level is unchanged.
	SetError error
}

// NewFakeRelay creates a FakeRelay with the line low.
func NewFakeRelay() *FakeRelay {
	return &FakeRelay{}
}

// Set records the level.
func (f *FakeRelay) Set(high bool) error {
	if f.SetError != nil {
		return f.SetError
	}
	f.High = high
	f.Levels = append(f.Levels, high)
	return nil
}

// Close drives the line low and marks the relay as closed.
func (f *FakeRelay) Close() error {
	f.High = false
	f.Closed = true
	return nil
}

// PowerCycles counts high-to-low transitions.
func (f *FakeRelay) PowerCycles() int {
	n := 0
	for i := 1; i < len(f.Levels); i++ {
		if f.Levels[i-1] && !f.Levels[i] {
			n++
		}
	}
	return n
}
