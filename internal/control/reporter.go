package control

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sweeney/softener-guard/internal/logic"
	"github.com/sweeney/softener-guard/internal/mqtt"
	"github.com/sweeney/softener-guard/internal/notify"
	"github.com/sweeney/softener-guard/internal/record"
	"github.com/sweeney/softener-guard/internal/status"
)

// Reporter delivers events to the outside world. Delivery is best-effort and
// never fails the caller.
type Reporter interface {
	Report(ctx context.Context, e logic.Event)
}

// EventReporter fans events out to the notifier, the durable record and the
// MQTT publisher. The channels are independent: a failure in one is logged
// and does not affect the others. Notifications and records carry the host
// prefix; MQTT payloads do not.
type EventReporter struct {
	prefix    string
	notifier  notify.Notifier
	recorder  record.Recorder
	publisher mqtt.Publisher
	tracker   *status.Tracker
	timeout   time.Duration
	log       *zap.Logger
}

// NewEventReporter creates an EventReporter for the controller named
// hostname. Each delivery is bounded by timeout. tracker may be nil; when
// set, lifecycle events carry a status snapshot.
func NewEventReporter(hostname string, n notify.Notifier, r record.Recorder, p mqtt.Publisher, tracker *status.Tracker, timeout time.Duration, log *zap.Logger) *EventReporter {
	return &EventReporter{
		prefix:    notify.HostPrefix(hostname),
		notifier:  n,
		recorder:  r,
		publisher: p,
		tracker:   tracker,
		timeout:   timeout,
		log:       log,
	}
}

// Report delivers e. Delivery ignores cancellation of ctx so that shutdown
// and halt messages still go out.
func (r *EventReporter) Report(ctx context.Context, e logic.Event) {
	ctx = context.WithoutCancel(ctx)
	msg := logic.Message(e)

	fields := []zap.Field{zap.String("event", string(e.Type)), zap.String("message", msg)}
	if e.Elapsed > 0 {
		fields = append(fields, zap.Duration("elapsed", e.Elapsed))
	}
	if e.Attempt > 0 {
		fields = append(fields, zap.Int("attempt", e.Attempt), zap.Int("max_attempts", e.MaxAttempts))
	}
	if e.Type == logic.EventFlowProgress {
		r.log.Debug("backwash progress", fields...)
	} else {
		r.log.Info("report", fields...)
	}

	if e.Type != logic.EventFlowProgress {
		r.notify(ctx, e, r.prefix+msg)
	}
	r.record(ctx, e, r.prefix+msg)
	r.publish(e)
}

func (r *EventReporter) notify(ctx context.Context, e logic.Event, msg string) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	if err := r.notifier.Notify(ctx, msg); err != nil {
		r.log.Warn("notify failed", zap.String("event", string(e.Type)), zap.Error(err))
	}
}

func (r *EventReporter) record(ctx context.Context, e logic.Event, msg string) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	if err := r.recorder.Record(ctx, RecordStatus(e.Type), msg); err != nil {
		r.log.Warn("record failed", zap.String("event", string(e.Type)), zap.Error(err))
	}
}

func (r *EventReporter) publish(e logic.Event) {
	var err error
	if e.IsLifecycle() {
		sys := mqtt.SystemEvent{
			Timestamp: e.Timestamp,
			Event:     string(e.Type),
			Reason:    e.Reason,
			Retained:  e.Type != logic.EventHeartbeat,
		}
		if r.tracker != nil {
			sys.RawPayload = status.FormatStatusEvent(r.tracker.Snapshot(), string(e.Type), e.Reason)
		}
		err = r.publisher.PublishSystem(sys)
	} else {
		err = r.publisher.Publish(e)
	}
	if err != nil {
		r.log.Warn("mqtt publish failed", zap.String("event", string(e.Type)), zap.Error(err))
	}
}

// RecordStatus maps an event to the status column of the durable record.
func RecordStatus(t logic.EventType) record.Status {
	switch t {
	case logic.EventFlowProgress:
		return record.StatusProgress
	case logic.EventOverrun:
		return record.StatusOverrun
	case logic.EventRestartAttempt, logic.EventRestartFailed, logic.EventRestartRecovered:
		return record.StatusRestart
	case logic.EventHalt:
		return record.StatusHalt
	}
	return record.StatusInfo
}
