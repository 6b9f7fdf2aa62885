// Package lifecycle turns the way the supervisor stopped into an exit status
// and the text of the final notification.
package lifecycle

import (
	"errors"
	"fmt"
	"os"
	"syscall"

	"github.com/sweeney/softener-guard/internal/control"
)

// Exit statuses.
const (
	ExitOK       = 0
	ExitFault    = 1
	ExitHalted   = 2
	ExitHardware = 3
)

// Kind is the broad cause of termination.
type Kind string

const (
	// KindStop is a deliberate stop with an explicit exit code.
	KindStop Kind = "STOP"
	// KindFault covers hardware errors, panics and external interrupts.
	KindFault Kind = "FAULT"
	// KindUnknown is used when the loop returned without a recognisable cause.
	KindUnknown Kind = "UNKNOWN"
)

// SignalError is the cancellation cause installed when a signal arrives.
type SignalError struct {
	Signal os.Signal
}

func (e *SignalError) Error() string {
	return "interrupted by " + SignalName(e.Signal)
}

// SignalName returns the conventional name for the signals the daemon handles.
func SignalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	case syscall.SIGHUP:
		return "SIGHUP"
	}
	return "UNKNOWN"
}

// Reason describes how the process is ending.
type Reason struct {
	Kind  Kind
	Code  int
	Cause error
}

// FromError classifies the error the control loop returned.
func FromError(err error) Reason {
	var (
		sig *SignalError
		hw  *control.HardwareError
	)
	switch {
	case err == nil:
		return Reason{Kind: KindUnknown, Code: ExitOK}
	case errors.Is(err, control.ErrHalted):
		return Reason{Kind: KindStop, Code: ExitHalted, Cause: err}
	case errors.As(err, &sig):
		return Reason{Kind: KindFault, Code: ExitOK, Cause: sig}
	case errors.As(err, &hw):
		return Reason{Kind: KindFault, Code: ExitHardware, Cause: err}
	}
	return Reason{Kind: KindFault, Code: ExitFault, Cause: err}
}

// FromPanic classifies a recovered panic value.
func FromPanic(v any) Reason {
	return Reason{Kind: KindFault, Code: ExitFault, Cause: fmt.Errorf("panic: %v", v)}
}

// Message is the text of the "ended" notification.
func (r Reason) Message() string {
	switch r.Kind {
	case KindStop:
		if r.Cause != nil {
			return fmt.Sprintf("Application ended by exit(%d): %v", r.Code, r.Cause)
		}
		return fmt.Sprintf("Application ended by exit(%d)", r.Code)
	case KindFault:
		return fmt.Sprintf("Application ended by fault: %v", r.Cause)
	}
	return "Application ended"
}

// ExitCode is the process exit status for r.
func (r Reason) ExitCode() int {
	return r.Code
}
