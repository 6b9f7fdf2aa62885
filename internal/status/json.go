package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string        `json:"event,omitempty"`
	Reason        string        `json:"reason,omitempty"`
	Hostname      string        `json:"hostname"`
	State         string        `json:"state"`
	Backwash      *BackwashJSON `json:"backwash,omitempty"`
	UptimeSeconds int64         `json:"uptime_seconds"`
	StartTime     string        `json:"start_time"`
	Timestamp     string        `json:"timestamp"`
	LastHeartbeat string        `json:"last_heartbeat,omitempty"`
	MQTT          MQTTStatus    `json:"mqtt"`
	Counts        CountsJSON    `json:"event_counts"`
	Network       *NetworkJSON  `json:"network,omitempty"`
	Config        ConfigJSON    `json:"config"`
}

// BackwashJSON describes the backwash in progress.
type BackwashJSON struct {
	StartedAt      string `json:"started_at"`
	ElapsedSeconds int64  `json:"elapsed_seconds"`
	Classification string `json:"classification"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
	Buffered  int    `json:"buffered"`
}

// CountsJSON is the JSON representation of event counts.
type CountsJSON struct {
	Normal          int `json:"normal"`
	TooShort        int `json:"too_short"`
	Overrun         int `json:"overrun"`
	RestartAttempts int `json:"restart_attempts"`
	Recovered       int `json:"recovered"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	WindowMs      int64  `json:"window_ms"`
	PollMs        int64  `json:"poll_ms"`
	MinFlowMs     int64  `json:"min_flow_ms"`
	OverrunMs     int64  `json:"overrun_ms"`
	MinBackwashMs int64  `json:"min_backwash_ms"`
	MaxRetries    int    `json:"max_retries"`
	ReportHour    int    `json:"report_hour"`
	Broker        string `json:"broker,omitempty"`
	HTTPAddr      string `json:"http_addr,omitempty"`
}

func buildInner(snap Snapshot) StatusInner {
	state := string(snap.State)
	if state == "" {
		state = "UNKNOWN"
	}

	inner := StatusInner{
		Hostname:      snap.Config.Hostname,
		State:         state,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker, Buffered: snap.MQTTBuffered},
		Counts: CountsJSON{
			Normal:          snap.Counts.Normal,
			TooShort:        snap.Counts.TooShort,
			Overrun:         snap.Counts.Overrun,
			RestartAttempts: snap.Counts.RestartAttempts,
			Recovered:       snap.Counts.Recovered,
		},
		Config: ConfigJSON{
			WindowMs:      snap.Config.WindowMs,
			PollMs:        snap.Config.PollMs,
			MinFlowMs:     snap.Config.MinFlowMs,
			OverrunMs:     snap.Config.OverrunMs,
			MinBackwashMs: snap.Config.MinBackwashMs,
			MaxRetries:    snap.Config.MaxRetries,
			ReportHour:    snap.Config.ReportHour,
			Broker:        snap.Config.Broker,
			HTTPAddr:      snap.Config.HTTPAddr,
		},
	}
	if !snap.LastHeartbeat.IsZero() {
		inner.LastHeartbeat = snap.LastHeartbeat.UTC().Format(time.RFC3339)
	}
	if snap.Current != nil {
		inner.Backwash = &BackwashJSON{
			StartedAt:      snap.Current.StartedAt.UTC().Format(time.RFC3339),
			ElapsedSeconds: int64(snap.Current.Elapsed.Truncate(time.Second).Seconds()),
			Classification: string(snap.Current.Classification),
		}
	}
	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
	return inner
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
