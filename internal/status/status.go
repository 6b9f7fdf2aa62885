// Package status provides a thread-safe status tracker for the softener-guard daemon.
// It is written by the control loop and read by HTTP handlers and MQTT lifecycle events.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/softener-guard/internal/logic"
)

// NetworkInfo contains network state as reported by pi-helper.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains daemon configuration for display.
type Config struct {
	Hostname      string
	WindowMs      int64
	PollMs        int64
	MinFlowMs     int64
	OverrunMs     int64
	MinBackwashMs int64
	MaxRetries    int
	ReportHour    int
	Broker        string
	HTTPAddr      string
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	State         logic.State
	Current       *logic.BackwashEvent
	Counts        logic.EventCounts
	StartTime     time.Time
	Now           time.Time
	LastHeartbeat time.Time
	MQTTConnected bool
	MQTTBuffered  int
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
	now  func() time.Time
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			State:     logic.StateIdle,
			StartTime: startTime,
			Config:    cfg,
		},
		now: time.Now,
	}
}

// Update sets the supervisor state, the event in progress (nil when idle)
// and the outcome counters. Called by the supervisor after every step.
func (t *Tracker) Update(state logic.State, current *logic.BackwashEvent, counts logic.EventCounts) {
	var cur *logic.BackwashEvent
	if current != nil {
		c := *current
		cur = &c
	}
	t.mu.Lock()
	t.snap.State = state
	t.snap.Current = cur
	t.snap.Counts = counts
	t.mu.Unlock()
}

// SetHeartbeat records when the last daily heartbeat fired.
func (t *Tracker) SetHeartbeat(at time.Time) {
	t.mu.Lock()
	t.snap.LastHeartbeat = at
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetMQTTBuffered sets how many messages wait for the broker connection.
func (t *Tracker) SetMQTTBuffered(n int) {
	t.mu.Lock()
	t.snap.MQTTBuffered = n
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	if s.Current != nil {
		c := *s.Current
		s.Current = &c
	}
	s.Now = t.now()
	return s
}
