package status

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/softener-guard/internal/logic"
)

var testStart = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func testConfig() Config {
	return Config{
		Hostname:      "softener-pi",
		WindowMs:      20000,
		PollMs:        10,
		MinFlowMs:     5000,
		OverrunMs:     180000,
		MinBackwashMs: 60000,
		MaxRetries:    2,
		ReportHour:    4,
		Broker:        "tcp://localhost:1883",
		HTTPAddr:      ":8080",
	}
}

func TestNewTracker(t *testing.T) {
	tr := NewTracker(testStart, testConfig())

	snap := tr.Snapshot()
	assert.True(t, snap.StartTime.Equal(testStart))
	assert.Equal(t, logic.StateIdle, snap.State)
	assert.Nil(t, snap.Current)
	assert.Equal(t, 2, snap.Config.MaxRetries)
	assert.False(t, snap.MQTTConnected)
	assert.True(t, snap.LastHeartbeat.IsZero())
}

func TestUpdateAndSnapshot(t *testing.T) {
	tr := NewTracker(testStart, Config{})

	ev := &logic.BackwashEvent{StartedAt: testStart, Elapsed: 40 * time.Second, Classification: logic.InProgress}
	tr.Update(logic.StateFlowing, ev, logic.EventCounts{Normal: 3, Overrun: 1})

	// Mutating the caller's event must not leak into the tracker.
	ev.Elapsed = time.Hour

	snap := tr.Snapshot()
	assert.Equal(t, logic.StateFlowing, snap.State)
	require.NotNil(t, snap.Current)
	assert.Equal(t, 40*time.Second, snap.Current.Elapsed)
	assert.Equal(t, 3, snap.Counts.Normal)
	assert.Equal(t, 1, snap.Counts.Overrun)

	tr.Update(logic.StateIdle, nil, logic.EventCounts{Normal: 4})
	snap = tr.Snapshot()
	assert.Nil(t, snap.Current)
	assert.Equal(t, 4, snap.Counts.Normal)
}

func TestSnapshotIsCopy(t *testing.T) {
	tr := NewTracker(testStart, Config{})
	tr.Update(logic.StateFlowing, &logic.BackwashEvent{Elapsed: time.Second}, logic.EventCounts{})

	s1 := tr.Snapshot()
	s1.Current.Elapsed = time.Hour

	s2 := tr.Snapshot()
	assert.Equal(t, time.Second, s2.Current.Elapsed)
}

func TestSetters(t *testing.T) {
	tr := NewTracker(testStart, Config{})

	tr.SetMQTTConnected(true)
	tr.SetMQTTBuffered(5)
	tr.SetHeartbeat(testStart.Add(4 * time.Hour))
	tr.SetNetwork(&NetworkInfo{Type: "wifi", IP: "192.168.1.42", Status: "connected"})

	snap := tr.Snapshot()
	assert.True(t, snap.MQTTConnected)
	assert.Equal(t, 5, snap.MQTTBuffered)
	assert.Equal(t, testStart.Add(4*time.Hour), snap.LastHeartbeat)
	require.NotNil(t, snap.Network)
	assert.Equal(t, "192.168.1.42", snap.Network.IP)
}

func TestSnapshotUptime(t *testing.T) {
	tr := NewTracker(testStart, Config{})
	tr.now = func() time.Time { return testStart.Add(15 * time.Minute) }

	assert.Equal(t, 15*time.Minute, tr.Snapshot().Uptime())
}

func TestConcurrentAccess(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				tr.Update(logic.StateFlowing, &logic.BackwashEvent{Elapsed: time.Duration(j)}, logic.EventCounts{Normal: n})
				tr.SetMQTTConnected(j%2 == 0)
			}
		}(i)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = tr.Snapshot()
			}
		}()
	}
	wg.Wait()
}

func TestFormatJSON(t *testing.T) {
	tr := NewTracker(testStart, testConfig())
	tr.now = func() time.Time { return testStart.Add(90 * time.Second) }
	tr.Update(logic.StateFlowing, &logic.BackwashEvent{
		StartedAt:      testStart.Add(20 * time.Second),
		Elapsed:        40 * time.Second,
		Classification: logic.InProgress,
	}, logic.EventCounts{Normal: 2, TooShort: 1, RestartAttempts: 3, Recovered: 1})
	tr.SetMQTTConnected(true)
	tr.SetMQTTBuffered(3)

	var sj StatusJSON
	require.NoError(t, json.Unmarshal(FormatJSON(tr.Snapshot()), &sj))

	assert.Equal(t, "FLOWING", sj.Status.State)
	assert.Equal(t, "softener-pi", sj.Status.Hostname)
	assert.EqualValues(t, 90, sj.Status.UptimeSeconds)
	assert.Equal(t, "2026-01-01T00:00:00Z", sj.Status.StartTime)
	require.NotNil(t, sj.Status.Backwash)
	assert.EqualValues(t, 40, sj.Status.Backwash.ElapsedSeconds)
	assert.Equal(t, "IN_PROGRESS", sj.Status.Backwash.Classification)
	assert.Equal(t, 2, sj.Status.Counts.Normal)
	assert.Equal(t, 1, sj.Status.Counts.TooShort)
	assert.Equal(t, 3, sj.Status.Counts.RestartAttempts)
	assert.True(t, sj.Status.MQTT.Connected)
	assert.Equal(t, 3, sj.Status.MQTT.Buffered)
	assert.Equal(t, "tcp://localhost:1883", sj.Status.MQTT.Broker)
	assert.EqualValues(t, 180000, sj.Status.Config.OverrunMs)
	assert.Empty(t, sj.Status.Event)
	assert.Empty(t, sj.Status.LastHeartbeat)
	assert.Nil(t, sj.Status.Network)
}

func TestFormatStatusEvent(t *testing.T) {
	tr := NewTracker(testStart, testConfig())
	tr.SetNetwork(&NetworkInfo{Status: "connected", SSID: "MyNet"})

	var sj StatusJSON
	require.NoError(t, json.Unmarshal(FormatStatusEvent(tr.Snapshot(), "SHUTDOWN", "Application ended by exit(2)"), &sj))

	assert.Equal(t, "SHUTDOWN", sj.Status.Event)
	assert.Equal(t, "Application ended by exit(2)", sj.Status.Reason)
	assert.Equal(t, "IDLE", sj.Status.State)
	assert.Nil(t, sj.Status.Backwash)
	require.NotNil(t, sj.Status.Network)
	assert.Equal(t, "MyNet", sj.Status.Network.SSID)
}

func TestFormatJSONUnknownState(t *testing.T) {
	var sj StatusJSON
	require.NoError(t, json.Unmarshal(FormatJSON(Snapshot{}), &sj))
	assert.Equal(t, "UNKNOWN", sj.Status.State)
}
