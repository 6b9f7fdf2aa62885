// Package notify delivers out-of-band alerts to a human.
package notify

import (
	"context"
	"errors"
	"fmt"
)

// Notifier sends one alert message.
type Notifier interface {
	// Notify delivers message. It must honour ctx so that a slow service
	// cannot stall the control loop.
	Notify(ctx context.Context, message string) error
}

// Multi fans a message out to every notifier. All are attempted; errors are joined.
type Multi []Notifier

// Notify sends to each notifier in order.
func (m Multi) Notify(ctx context.Context, message string) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, message); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Discard is a Notifier that drops every message.
type Discard struct{}

// Notify does nothing.
func (Discard) Notify(context.Context, string) error { return nil }

// HostPrefix is the prefix identifying which controller sent an alert.
func HostPrefix(hostname string) string {
	return fmt.Sprintf("From %s -> ", hostname)
}
