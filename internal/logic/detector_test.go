package logic

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

const (
	minFlow = 5 * time.Second
	window  = 20 * time.Second
)

func window0(active time.Duration) WindowResult {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	return WindowResult{Start: start, End: start.Add(window), Active: active, Length: window}
}

func TestIsFlowingAtOrBelowThreshold(t *testing.T) {
	for _, active := range []time.Duration{0, time.Millisecond, time.Second, 4999 * time.Millisecond, minFlow} {
		assert.False(t, IsFlowing(window0(active), minFlow), "active=%v", active)
	}
}

func TestIsFlowingAboveThreshold(t *testing.T) {
	for _, active := range []time.Duration{minFlow + time.Nanosecond, 6 * time.Second, 19 * time.Second, window} {
		assert.True(t, IsFlowing(window0(active), minFlow), "active=%v", active)
	}
}

func TestSignalFor(t *testing.T) {
	tests := []struct {
		name    string
		flowing bool
		elapsed time.Duration
		want    Signal
	}{
		{"idle", false, 0, SignalNoFlow},
		{"idle past threshold", false, 500 * time.Second, SignalNoFlow},
		{"flowing", true, 40 * time.Second, SignalFlow},
		{"flowing at threshold", true, 180 * time.Second, SignalFlow},
		{"flowing past threshold", true, 180*time.Second + time.Millisecond, SignalOverrun},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SignalFor(tt.flowing, tt.elapsed, 180*time.Second))
		})
	}
}

func TestClassify(t *testing.T) {
	assert.Equal(t, TooShort, Classify(30*time.Second, time.Minute))
	assert.Equal(t, TooShort, Classify(59*time.Second, time.Minute))
	assert.Equal(t, Normal, Classify(time.Minute, time.Minute))
	assert.Equal(t, Normal, Classify(80*time.Second, time.Minute))
}

func TestNextTransitionTable(t *testing.T) {
	tests := []struct {
		from State
		sig  Signal
		want State
	}{
		{StateIdle, SignalNoFlow, StateIdle},
		{StateIdle, SignalFlow, StateFlowing},
		{StateIdle, SignalOverrun, StateRestartTriggered},
		{StateFlowing, SignalFlow, StateFlowing},
		{StateFlowing, SignalNoFlow, StateIdle},
		{StateFlowing, SignalOverrun, StateRestartTriggered},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"/"+string(tt.sig), func(t *testing.T) {
			got, ok := Next(tt.from, tt.sig)
			assert.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNextRejectsRestartTriggered(t *testing.T) {
	got, ok := Next(StateRestartTriggered, SignalNoFlow)
	assert.False(t, ok)
	assert.Equal(t, StateRestartTriggered, got)

	_, ok = Next(StateIdle, Signal("BOGUS"))
	assert.False(t, ok)
}

func TestAfterRestart(t *testing.T) {
	assert.Equal(t, StateIdle, AfterRestart(ResultRecovered))
	assert.Equal(t, StateRestartTriggered, AfterRestart(ResultHalted))
}

func TestSensorStateOf(t *testing.T) {
	assert.Equal(t, SensorActive, SensorStateOf(true))
	assert.Equal(t, SensorIdle, SensorStateOf(false))
}

func TestEventIsLifecycle(t *testing.T) {
	assert.True(t, Event{Type: EventStartup}.IsLifecycle())
	assert.True(t, Event{Type: EventShutdown}.IsLifecycle())
	assert.True(t, Event{Type: EventHeartbeat}.IsLifecycle())
	assert.False(t, Event{Type: EventOverrun}.IsLifecycle())
	assert.False(t, Event{Type: EventFlowProgress}.IsLifecycle())
}
