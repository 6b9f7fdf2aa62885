package logic

import "time"

// HeartbeatState remembers whether the daily heartbeat already fired during
// the current visit to the report hour. The zero value is armed.
type HeartbeatState struct {
	Reported bool
}

// ShouldReport fires on the first tick whose local hour equals reportHour and
// stays quiet for the rest of that hour. Any tick outside reportHour re-arms it.
func ShouldReport(now time.Time, reportHour int, st HeartbeatState) (bool, HeartbeatState) {
	if now.Hour() != reportHour {
		return false, HeartbeatState{}
	}
	if st.Reported {
		return false, st
	}
	return true, HeartbeatState{Reported: true}
}
