// Package record keeps the durable, append-only log of supervisor events.
package record

import (
	"context"
	"time"
)

// Status classifies a record entry.
type Status string

const (
	StatusInfo     Status = "INFO"
	StatusProgress Status = "PROGRESS"
	StatusOverrun  Status = "OVERRUN"
	StatusRestart  Status = "RESTART"
	StatusHalt     Status = "HALT"
)

// Recorder appends entries to the durable log.
type Recorder interface {
	// Record appends one entry. Failures are reported to the caller, which
	// must treat them as non-fatal.
	Record(ctx context.Context, status Status, message string) error
}

// Entry is one stored record.
type Entry struct {
	ID         string
	OccurredAt time.Time
	Status     Status
	Message    string
}

// Discard is a Recorder that drops every entry.
type Discard struct{}

// Record does nothing.
func (Discard) Record(context.Context, Status, string) error { return nil }
