package control

import "errors"

// ErrHalted is returned once every restart attempt failed to stop the flow.
// The process must release the hardware and exit.
var ErrHalted = errors.New("maximum number of restarts reached")

// HardwareError wraps a sensor or relay I/O failure. It is always fatal:
// supervising without working hardware is unsafe.
type HardwareError struct {
	Op  string
	Err error
}

func (e *HardwareError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *HardwareError) Unwrap() error {
	return e.Err
}
