package notify

import "context"

// FakeNotifier records messages for test assertions.
type FakeNotifier struct {
	Messages []string

	// NotifyError, if set, will be returned by Notify and nothing is recorded.
	NotifyError error
}

// NewFakeNotifier creates an empty FakeNotifier.
func NewFakeNotifier() *FakeNotifier {
	return &FakeNotifier{}
}

// Notify records the message.
func (f *FakeNotifier) Notify(_ context.Context, message string) error {
	if f.NotifyError != nil {
		return f.NotifyError
	}
	f.Messages = append(f.Messages, message)
	return nil
}
