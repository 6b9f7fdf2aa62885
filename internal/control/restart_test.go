package control

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/sweeney/softener-guard/internal/gpio"
	"github.com/sweeney/softener-guard/internal/logic"
)

type sequencerRig struct {
	clock    *FakeClock
	relay    *gpio.FakeRelay
	reporter *FakeReporter
	seq      *Sequencer
}

func newSequencerRig(t *testing.T, sensor func(*FakeClock) gpio.Sensor, relay gpio.Relay) *sequencerRig {
	t.Helper()
	log := zaptest.NewLogger(t)
	clock := NewFakeClock(t0)
	rig := &sequencerRig{clock: clock, reporter: &FakeReporter{}}
	if relay == nil {
		rig.relay = gpio.NewFakeRelay()
		relay = rig.relay
	}
	probe := NewProbe(NewSampler(sensor(clock), clock), 20*time.Second, time.Second, 5*time.Second, log)
	rig.seq = NewSequencer(relay, probe, clock, rig.reporter, SequencerConfig{
		PowerOffHold: 10 * time.Second,
		RestartWait:  180 * time.Second,
		MaxRetries:   2,
	}, log)
	return rig
}

func alwaysFlowing(*FakeClock) gpio.Sensor { return gpio.NewFakeSensor(true) }

func TestSequencerHaltsAfterAllAttempts(t *testing.T) {
	rig := newSequencerRig(t, alwaysFlowing, nil)

	result, attempts, err := rig.seq.Run(context.Background(), t0.Add(-200*time.Second))
	require.NoError(t, err)
	assert.Equal(t, logic.ResultHalted, result)
	require.Len(t, attempts, 3)
	for i, a := range attempts {
		assert.Equal(t, i, a.Index)
		assert.Equal(t, logic.OutcomeStillFlowing, a.Outcome)
	}

	assert.Equal(t, []logic.EventType{
		logic.EventRestartAttempt, logic.EventRestartFailed,
		logic.EventRestartAttempt, logic.EventRestartFailed,
		logic.EventRestartAttempt, logic.EventHalt,
	}, rig.reporter.Types())
	assert.Equal(t, []bool{true, false, true, false, true, false}, rig.relay.Levels)
	assert.False(t, rig.relay.High)
	assert.Equal(t, 3, rig.relay.PowerCycles())

	first := rig.reporter.Events[0]
	assert.Equal(t, 1, first.Attempt)
	assert.Equal(t, 3, first.MaxAttempts)
	assert.Equal(t, 200*time.Second, first.Elapsed)
}

func TestSequencerRecoversOnSecondAttempt(t *testing.T) {
	// First check covers 190..210s, second 400..420s.
	rig := newSequencerRig(t, func(c *FakeClock) gpio.Sensor {
		return flowBetween(c, 0, 300*time.Second)
	}, nil)

	result, attempts, err := rig.seq.Run(context.Background(), t0)
	require.NoError(t, err)
	assert.Equal(t, logic.ResultRecovered, result)
	assert.Equal(t, []logic.RestartAttempt{
		{Index: 0, Outcome: logic.OutcomeStillFlowing},
		{Index: 1, Outcome: logic.OutcomeRecovered},
	}, attempts)
	assert.Equal(t, []logic.EventType{
		logic.EventRestartAttempt, logic.EventRestartFailed,
		logic.EventRestartAttempt, logic.EventRestartRecovered,
	}, rig.reporter.Types())
	assert.False(t, rig.relay.High)
	assert.Equal(t, 2, rig.reporter.Events[3].Attempt)
}

func TestSequencerHoldsPowerOff(t *testing.T) {
	rig := newSequencerRig(t, func(c *FakeClock) gpio.Sensor { return gpio.NewFakeSensor(false) }, nil)

	result, attempts, err := rig.seq.Run(context.Background(), t0)
	require.NoError(t, err)
	assert.Equal(t, logic.ResultRecovered, result)
	assert.Len(t, attempts, 1)
	// hold + restart wait + one window.
	assert.Equal(t, t0.Add(210*time.Second), rig.clock.Now())
}

func TestSequencerIgnoresCancellation(t *testing.T) {
	rig := newSequencerRig(t, alwaysFlowing, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, attempts, err := rig.seq.Run(ctx, t0)
	require.NoError(t, err)
	assert.Equal(t, logic.ResultHalted, result)
	assert.Len(t, attempts, 3)
}

func TestSequencerSensorErrorLeavesRelayLow(t *testing.T) {
	rig := newSequencerRig(t, func(*FakeClock) gpio.Sensor {
		return gpio.SensorFunc(func() (bool, error) { return false, errors.New("bus error") })
	}, nil)

	_, _, err := rig.seq.Run(context.Background(), t0)
	var hw *HardwareError
	require.ErrorAs(t, err, &hw)
	assert.False(t, rig.relay.High)
}

// stuckRelay fails the first attempt to restore power.
type stuckRelay struct {
	high   bool
	failed bool
}

func (r *stuckRelay) Set(high bool) error {
	if !high && !r.failed {
		r.failed = true
		return errors.New("write failed")
	}
	r.high = high
	return nil
}

func (r *stuckRelay) Close() error { return nil }

func TestSequencerRestoresPowerAfterRelayError(t *testing.T) {
	relay := &stuckRelay{}
	rig := newSequencerRig(t, alwaysFlowing, relay)

	_, attempts, err := rig.seq.Run(context.Background(), t0)
	var hw *HardwareError
	require.ErrorAs(t, err, &hw)
	assert.Equal(t, "restore softener power", hw.Op)
	assert.Len(t, attempts, 1)
	assert.False(t, relay.high)
}

func TestSequencerRelayErrorOnPowerCut(t *testing.T) {
	rig := newSequencerRig(t, alwaysFlowing, nil)
	rig.relay.SetError = errors.New("no line")

	_, _, err := rig.seq.Run(context.Background(), t0)
	var hw *HardwareError
	require.ErrorAs(t, err, &hw)
	assert.Equal(t, "cut softener power", hw.Op)
	assert.False(t, rig.relay.High)
}
