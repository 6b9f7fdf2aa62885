// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/softener-guard/internal/logic"
)

// Topic is the MQTT topic for backwash events.
const Topic = "home/softener/backwash/events"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "home/softener/backwash/system"

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a backwash event to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event logic.Event) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports the state of the broker connection.
type ConnectionStatus interface {
	IsConnected() bool
	// Buffered is the number of messages held for replay on reconnect.
	Buffered() int
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // termination text (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	Backwash BackwashPayload `json:"backwash"`
}

// BackwashPayload contains the backwash event details.
type BackwashPayload struct {
	Timestamp      string `json:"timestamp"`
	Event          string `json:"event"`
	ElapsedSeconds int64  `json:"elapsed_seconds"`
	Attempt        int    `json:"attempt,omitempty"`
	MaxAttempts    int    `json:"max_attempts,omitempty"`
	Message        string `json:"message"`
}

// FormatPayload creates the JSON payload for a backwash event.
func FormatPayload(event logic.Event) ([]byte, error) {
	payload := Payload{
		Backwash: BackwashPayload{
			Timestamp:      event.Timestamp.UTC().Format(time.RFC3339),
			Event:          string(event.Type),
			ElapsedSeconds: int64(event.Elapsed.Truncate(time.Second).Seconds()),
			Attempt:        event.Attempt,
			MaxAttempts:    event.MaxAttempts,
			Message:        logic.Message(event),
		},
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (last will, RECONNECTED) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}

// Discard is a Publisher used when no broker is configured.
type Discard struct{}

func (Discard) Publish(logic.Event) error       { return nil }
func (Discard) PublishSystem(SystemEvent) error { return nil }
func (Discard) Close() error                    { return nil }
