package logic

import "time"

// IsFlowing reports whether a window saw enough active time to count as flow.
// Exactly reaching the threshold is not flow.
func IsFlowing(r WindowResult, minFlow time.Duration) bool {
	return r.Active > minFlow
}

// SignalFor derives the supervisor signal for one sampled window.
// Overrun is only signalled while water is still flowing.
func SignalFor(flowing bool, elapsed, overrunThreshold time.Duration) Signal {
	if !flowing {
		return SignalNoFlow
	}
	if elapsed > overrunThreshold {
		return SignalOverrun
	}
	return SignalFlow
}

// Classify labels a backwash that stopped on its own.
func Classify(elapsed, minBackwash time.Duration) Classification {
	if elapsed < minBackwash {
		return TooShort
	}
	return Normal
}

// transitions is the supervisor's state table. RestartTriggered is left via
// the restart sequence, not via a sampled signal.
var transitions = map[State]map[Signal]State{
	StateIdle: {
		SignalNoFlow:  StateIdle,
		SignalFlow:    StateFlowing,
		SignalOverrun: StateRestartTriggered,
	},
	StateFlowing: {
		SignalNoFlow:  StateIdle,
		SignalFlow:    StateFlowing,
		SignalOverrun: StateRestartTriggered,
	},
}

// Next returns the state that follows from on sig.
// ok is false for pairs outside the table.
func Next(from State, sig Signal) (to State, ok bool) {
	row, found := transitions[from]
	if !found {
		return from, false
	}
	to, ok = row[sig]
	if !ok {
		return from, false
	}
	return to, true
}

// AfterRestart returns the state the supervisor resumes in once a restart
// sequence finished.
func AfterRestart(result SequenceResult) State {
	if result == ResultRecovered {
		return StateIdle
	}
	return StateRestartTriggered
}
