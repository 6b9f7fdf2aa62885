package control

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sweeney/softener-guard/internal/logic"
	"github.com/sweeney/softener-guard/internal/status"
)

// Thresholds configures the supervisor's classification.
type Thresholds struct {
	Overrun     time.Duration
	MinBackwash time.Duration
}

// Transition describes one supervisor step.
type Transition struct {
	From   logic.State
	To     logic.State
	Signal logic.Signal
	Window logic.WindowResult
	// Event is a copy of the backwash event the step acted on, nil when idle.
	Event *logic.BackwashEvent
	// Restart is set when the step ran a restart sequence.
	Restart  logic.SequenceResult
	Attempts []logic.RestartAttempt
}

// Supervisor drives the backwash state machine one window at a time.
// It is owned by a single goroutine.
type Supervisor struct {
	probe     *Probe
	sequencer *Sequencer
	clock     Clock
	reporter  Reporter
	limits    Thresholds
	tracker   *status.Tracker
	log       *zap.Logger

	state  logic.State
	event  *logic.BackwashEvent
	counts logic.EventCounts
}

// NewSupervisor creates a Supervisor in the idle state. tracker may be nil.
func NewSupervisor(probe *Probe, sequencer *Sequencer, clock Clock, reporter Reporter, limits Thresholds, tracker *status.Tracker, log *zap.Logger) *Supervisor {
	return &Supervisor{
		probe:     probe,
		sequencer: sequencer,
		clock:     clock,
		reporter:  reporter,
		limits:    limits,
		tracker:   tracker,
		log:       log,
		state:     logic.StateIdle,
	}
}

// State returns the current state.
func (s *Supervisor) State() logic.State { return s.state }

// Counts returns the outcome counters since startup.
func (s *Supervisor) Counts() logic.EventCounts { return s.counts }

// Step samples one window and applies the resulting transition. It returns
// ErrHalted once a restart sequence gave up, and a *HardwareError on sensor
// or relay failure. A cancelled ctx returns ctx's error without a transition.
func (s *Supervisor) Step(ctx context.Context) (Transition, error) {
	tr := Transition{From: s.state, To: s.state}
	if s.state == logic.StateRestartTriggered {
		return tr, ErrHalted
	}

	res, flowing, err := s.probe.Check(ctx)
	tr.Window = res
	if err != nil {
		return tr, err
	}
	now := s.clock.Now()

	var elapsed time.Duration
	if s.event != nil {
		elapsed = now.Sub(s.event.StartedAt)
	}
	sig := logic.SignalFor(flowing, elapsed, s.limits.Overrun)
	tr.Signal = sig

	to, ok := logic.Next(s.state, sig)
	if !ok {
		return tr, fmt.Errorf("no transition from %s on %s", s.state, sig)
	}

	switch {
	case s.state == logic.StateIdle && to == logic.StateFlowing:
		s.event = &logic.BackwashEvent{StartedAt: now, Classification: logic.InProgress}
		s.reporter.Report(ctx, logic.Event{Timestamp: now, Type: logic.EventFlowDetected})

	case s.state == logic.StateFlowing && to == logic.StateFlowing:
		s.event.Elapsed = elapsed
		s.reporter.Report(ctx, logic.Event{Timestamp: now, Type: logic.EventFlowProgress, Elapsed: elapsed})

	case s.state == logic.StateFlowing && to == logic.StateIdle:
		s.event.Elapsed = elapsed
		s.event.Classification = logic.Classify(elapsed, s.limits.MinBackwash)
		if s.event.Classification == logic.Normal {
			s.counts.Normal++
			s.reporter.Report(ctx, logic.Event{Timestamp: now, Type: logic.EventBackwashComplete, Elapsed: elapsed})
		} else {
			s.counts.TooShort++
			s.log.Info("flow stopped before a full backwash", zap.Duration("elapsed", elapsed))
		}

	case to == logic.StateRestartTriggered:
		if s.event == nil {
			s.event = &logic.BackwashEvent{StartedAt: now}
		}
		s.event.Elapsed = elapsed
		s.event.Classification = logic.Overrun
		s.counts.Overrun++
		s.reporter.Report(ctx, logic.Event{Timestamp: now, Type: logic.EventOverrun, Elapsed: elapsed})
		s.log.Warn("backwash overrun, restarting softener", zap.Duration("elapsed", elapsed))
		s.setState(logic.StateRestartTriggered)

		result, attempts, err := s.sequencer.Run(ctx, s.event.StartedAt)
		tr.Restart = result
		tr.Attempts = attempts
		s.counts.RestartAttempts += len(attempts)
		tr.Event = copyEvent(s.event)
		if err != nil {
			tr.To = s.state
			return tr, err
		}
		to = logic.AfterRestart(result)
		if result == logic.ResultRecovered {
			s.counts.Recovered++
		}
	}

	tr.Event = copyEvent(s.event)
	tr.To = to
	if to == logic.StateIdle {
		s.event = nil
	}
	s.setState(to)

	if to == logic.StateRestartTriggered {
		return tr, ErrHalted
	}
	return tr, nil
}

func (s *Supervisor) setState(st logic.State) {
	if st != s.state {
		s.log.Info("state change", zap.String("from", string(s.state)), zap.String("to", string(st)))
	}
	s.state = st
	if s.tracker != nil {
		s.tracker.Update(s.state, s.event, s.counts)
	}
}

func copyEvent(e *logic.BackwashEvent) *logic.BackwashEvent {
	if e == nil {
		return nil
	}
	c := *e
	return &c
}

