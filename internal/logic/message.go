package logic

import (
	"fmt"
	"time"
)

// Message renders the human-readable text for an event, used for push
// notifications and the durable record.
func Message(e Event) string {
	at := fmt.Sprintf("at %s on %s", e.Timestamp.Format("15:04"), e.Timestamp.Format("2006-01-02"))
	secs := int(e.Elapsed.Truncate(time.Second).Seconds())

	switch e.Type {
	case EventStartup:
		return "Application control waterflow started " + at
	case EventHeartbeat:
		return "Application control waterflow still alive " + at
	case EventShutdown:
		if e.Reason != "" {
			return e.Reason
		}
		return "Application ended"
	case EventFlowDetected:
		return "Waterflow detected " + at
	case EventFlowProgress:
		return fmt.Sprintf("Calculating waterflow: %d seconds", secs)
	case EventBackwashComplete:
		return fmt.Sprintf("Backwash for %d seconds successful %s", secs, at)
	case EventOverrun:
		return fmt.Sprintf("Backwash overrun: water flowing for %d seconds %s", secs, at)
	case EventRestartAttempt:
		return fmt.Sprintf("Restarting device after %d seconds (attempt %d of %d)", secs, e.Attempt, e.MaxAttempts)
	case EventRestartFailed:
		return fmt.Sprintf("Restart number %d not successful %s", e.Attempt, at)
	case EventRestartRecovered:
		return "Restart successful " + at
	case EventHalt:
		return fmt.Sprintf("Maximum number of restarts reached %s -> APPLICATION HALTS!", at)
	}
	return fmt.Sprintf("%s %s", e.Type, at)
}
