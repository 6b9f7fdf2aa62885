package record

import "context"

// FakeRecorder captures entries for test assertions.
type FakeRecorder struct {
	Entries []Entry

	// RecordError, if set, will be returned by Record and nothing is stored.
	RecordError error
}

// NewFakeRecorder creates an empty FakeRecorder.
func NewFakeRecorder() *FakeRecorder {
	return &FakeRecorder{}
}

// Record stores the entry.
func (f *FakeRecorder) Record(_ context.Context, status Status, message string) error {
	if f.RecordError != nil {
		return f.RecordError
	}
	f.Entries = append(f.Entries, Entry{Status: status, Message: message})
	return nil
}

// WithStatus returns the messages recorded under status.
func (f *FakeRecorder) WithStatus(status Status) []string {
	var out []string
	for _, e := range f.Entries {
		if e.Status == status {
			out = append(out, e.Message)
		}
	}
	return out
}
