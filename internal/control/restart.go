package control

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/sweeney/softener-guard/internal/gpio"
	"github.com/sweeney/softener-guard/internal/logic"
)

// SequencerConfig holds the restart protocol timings.
type SequencerConfig struct {
	// PowerOffHold is how long the softener stays unpowered.
	PowerOffHold time.Duration
	// RestartWait is how long the softener gets to run its own startup
	// cycle before flow is checked again.
	RestartWait time.Duration
	// MaxRetries is the number of restarts after the first one.
	MaxRetries int
}

// Sequencer power-cycles the softener until flow stops or attempts run out.
type Sequencer struct {
	relay    gpio.Relay
	probe    *Probe
	clock    Clock
	reporter Reporter
	cfg      SequencerConfig
	log      *zap.Logger
}

// NewSequencer creates a Sequencer.
func NewSequencer(relay gpio.Relay, probe *Probe, clock Clock, reporter Reporter, cfg SequencerConfig, log *zap.Logger) *Sequencer {
	return &Sequencer{relay: relay, probe: probe, clock: clock, reporter: reporter, cfg: cfg, log: log}
}

// Run performs up to MaxRetries+1 power cycles for a backwash that started
// at startedAt. It returns ResultRecovered as soon as a post-cycle check
// sees no flow, ResultHalted when the last check still sees flow, or an
// error on a hardware fault.
//
// The sequence is not cancellable once started. Every return leaves the
// relay low (softener powered).
func (s *Sequencer) Run(ctx context.Context, startedAt time.Time) (result logic.SequenceResult, attempts []logic.RestartAttempt, err error) {
	ctx = context.WithoutCancel(ctx)
	total := s.cfg.MaxRetries + 1

	powerCut := false
	defer func() {
		if !powerCut {
			return
		}
		if rerr := s.relay.Set(false); rerr != nil {
			err = errors.Join(err, &HardwareError{Op: "restore softener power", Err: rerr})
			return
		}
		s.log.Warn("relay driven low after interrupted restart")
	}()

	for i := 0; i <= s.cfg.MaxRetries; i++ {
		attempt := logic.RestartAttempt{Index: i, Outcome: logic.OutcomePending}
		now := s.clock.Now()
		s.reporter.Report(ctx, logic.Event{
			Timestamp:   now,
			Type:        logic.EventRestartAttempt,
			Elapsed:     now.Sub(startedAt),
			Attempt:     i + 1,
			MaxAttempts: total,
		})

		// Relay high = softener power off.
		powerCut = true
		if err := s.relay.Set(true); err != nil {
			return "", append(attempts, attempt), &HardwareError{Op: "cut softener power", Err: err}
		}
		s.log.Info("relay high, softener power off", zap.Int("attempt", i+1))
		s.clock.Sleep(s.cfg.PowerOffHold)

		if err := s.relay.Set(false); err != nil {
			return "", append(attempts, attempt), &HardwareError{Op: "restore softener power", Err: err}
		}
		powerCut = false
		s.log.Info("relay low, softener power on", zap.Int("attempt", i+1))
		s.clock.Sleep(s.cfg.RestartWait)

		_, flowing, err := s.probe.Check(ctx)
		if err != nil {
			return "", append(attempts, attempt), err
		}

		if !flowing {
			attempt.Outcome = logic.OutcomeRecovered
			attempts = append(attempts, attempt)
			s.reporter.Report(ctx, logic.Event{
				Timestamp:   s.clock.Now(),
				Type:        logic.EventRestartRecovered,
				Elapsed:     s.clock.Now().Sub(startedAt),
				Attempt:     i + 1,
				MaxAttempts: total,
			})
			return logic.ResultRecovered, attempts, nil
		}

		attempt.Outcome = logic.OutcomeStillFlowing
		attempts = append(attempts, attempt)

		if i < s.cfg.MaxRetries {
			s.reporter.Report(ctx, logic.Event{
				Timestamp:   s.clock.Now(),
				Type:        logic.EventRestartFailed,
				Attempt:     i + 1,
				MaxAttempts: total,
			})
		}
	}

	s.reporter.Report(ctx, logic.Event{
		Timestamp:   s.clock.Now(),
		Type:        logic.EventHalt,
		Elapsed:     s.clock.Now().Sub(startedAt),
		Attempt:     total,
		MaxAttempts: total,
	})
	return logic.ResultHalted, attempts, nil
}
