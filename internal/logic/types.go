// Package logic contains the pure decision rules for backwash supervision.
// This package has NO external dependencies (no GPIO, MQTT, OS, or time.Sleep).
// Time is always injectable via time.Time parameters.
package logic

import "time"

// SensorState is the instantaneous reading of the flow switch.
type SensorState string

const (
	SensorActive SensorState = "ACTIVE"
	SensorIdle   SensorState = "IDLE"
)

// SensorStateOf converts a raw flow reading.
func SensorStateOf(flowing bool) SensorState {
	if flowing {
		return SensorActive
	}
	return SensorIdle
}

// WindowResult is the accumulated active time within one observation window.
// Active never exceeds Length.
type WindowResult struct {
	Start  time.Time
	End    time.Time
	Active time.Duration
	Length time.Duration
}

// State is a BackwashSupervisor state.
type State string

const (
	StateIdle             State = "IDLE"
	StateFlowing          State = "FLOWING"
	StateRestartTriggered State = "RESTART_TRIGGERED"
)

// Signal is what one sampled window tells the supervisor.
type Signal string

const (
	SignalNoFlow  Signal = "NO_FLOW"
	SignalFlow    Signal = "FLOW"
	SignalOverrun Signal = "OVERRUN"
)

// Classification of a backwash event.
type Classification string

const (
	InProgress Classification = "IN_PROGRESS"
	TooShort   Classification = "TOO_SHORT"
	Normal     Classification = "NORMAL"
	Overrun    Classification = "OVERRUN"
)

// BackwashEvent tracks one period of detected flow.
type BackwashEvent struct {
	StartedAt      time.Time
	Elapsed        time.Duration
	Classification Classification
}

// RestartOutcome is the result of a single power cycle.
type RestartOutcome string

const (
	OutcomePending      RestartOutcome = "PENDING"
	OutcomeRecovered    RestartOutcome = "RECOVERED"
	OutcomeStillFlowing RestartOutcome = "STILL_FLOWING"
)

// RestartAttempt records one power cycle within a restart sequence.
type RestartAttempt struct {
	Index   int
	Outcome RestartOutcome
}

// SequenceResult is the final result of a restart sequence.
type SequenceResult string

const (
	ResultRecovered SequenceResult = "RECOVERED"
	ResultHalted    SequenceResult = "HALTED"
)

// EventType identifies something worth reporting.
type EventType string

const (
	EventStartup          EventType = "STARTUP"
	EventShutdown         EventType = "SHUTDOWN"
	EventHeartbeat        EventType = "HEARTBEAT"
	EventFlowDetected     EventType = "FLOW_DETECTED"
	EventFlowProgress     EventType = "FLOW_PROGRESS"
	EventBackwashComplete EventType = "BACKWASH_COMPLETE"
	EventOverrun          EventType = "OVERRUN"
	EventRestartAttempt   EventType = "RESTART_ATTEMPT"
	EventRestartFailed    EventType = "RESTART_FAILED"
	EventRestartRecovered EventType = "RESTART_RECOVERED"
	EventHalt             EventType = "HALT"
)

// Event is handed to the reporter.
type Event struct {
	Timestamp time.Time
	Type      EventType
	// Elapsed is the backwash time so far, where relevant.
	Elapsed time.Duration
	// Attempt is the 1-based restart attempt number, 0 when not a restart event.
	Attempt     int
	MaxAttempts int
	// Reason carries free text for lifecycle events.
	Reason string
}

// IsLifecycle reports whether the event describes the process rather than the softener.
func (e Event) IsLifecycle() bool {
	switch e.Type {
	case EventStartup, EventShutdown, EventHeartbeat:
		return true
	}
	return false
}

// EventCounts tracks backwash outcomes since startup.
type EventCounts struct {
	Normal          int
	TooShort        int
	Overrun         int
	RestartAttempts int
	Recovered       int
}
