package control

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sweeney/softener-guard/internal/gpio"
	"github.com/sweeney/softener-guard/internal/logic"
)

// Sampler accumulates how long the flow switch reads active during a window.
type Sampler struct {
	sensor gpio.Sensor
	clock  Clock
}

// NewSampler creates a Sampler.
func NewSampler(sensor gpio.Sensor, clock Clock) *Sampler {
	return &Sampler{sensor: sensor, clock: clock}
}

// Sample polls the sensor every poll for window. Each active reading credits
// the time since the previous reading. It returns no later than one poll
// interval after the window closes. A cancelled ctx ends the window early with
// ctx's error.
func (s *Sampler) Sample(ctx context.Context, window, poll time.Duration) (logic.WindowResult, error) {
	start := s.clock.Now()
	res := logic.WindowResult{Start: start, Length: window}
	deadline := start.Add(window)
	prev := start

	for {
		if err := ctx.Err(); err != nil {
			res.End = s.clock.Now()
			return res, err
		}
		now := s.clock.Now()
		if !now.Before(deadline) {
			res.End = now
			break
		}

		flowing, err := s.sensor.Read()
		if err != nil {
			res.End = now
			return res, &HardwareError{Op: "read flow sensor", Err: err}
		}
		if flowing {
			res.Active += now.Sub(prev)
		}
		prev = now

		s.clock.Sleep(poll)
	}

	if res.Active > res.Length {
		res.Active = res.Length
	}
	return res, nil
}

// Probe samples one window and applies the flow threshold.
type Probe struct {
	sampler *Sampler
	window  time.Duration
	poll    time.Duration
	minFlow time.Duration
	log     *zap.Logger
}

// NewProbe creates a Probe.
func NewProbe(sampler *Sampler, window, poll, minFlow time.Duration, log *zap.Logger) *Probe {
	return &Probe{sampler: sampler, window: window, poll: poll, minFlow: minFlow, log: log}
}

// Check samples one window and reports whether water is flowing.
func (p *Probe) Check(ctx context.Context) (logic.WindowResult, bool, error) {
	res, err := p.sampler.Sample(ctx, p.window, p.poll)
	if err != nil {
		return res, false, err
	}
	flowing := logic.IsFlowing(res, p.minFlow)
	if res.Active > 0 {
		p.log.Debug("waterflow in window",
			zap.Duration("active", res.Active),
			zap.Duration("window", res.Length),
			zap.Bool("flowing", flowing))
	}
	return res, flowing, nil
}
