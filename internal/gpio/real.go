//go:build linux

package gpio

import (
	"errors"
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// RealPins owns the flow sensor and relay lines on one GPIO chip.
// It implements both Sensor and Relay.
type RealPins struct {
	chip   *gpiocdev.Chip
	sensor *gpiocdev.Line
	relay  *gpiocdev.Line
}

// NewRealPins requests the sensor line as input and the relay line as an
// output driven low (softener powered).
func NewRealPins(chipName string, sensorPin, relayPin int) (*RealPins, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", chipName, err)
	}

	// The flow switch opens while water runs, so pull the line up and treat
	// a low reading as flow. A disconnected switch then reads as idle.
	sensor, err := chip.RequestLine(sensorPin, gpiocdev.AsInput, gpiocdev.WithPullUp)
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request sensor pin %d: %w", sensorPin, err)
	}

	relay, err := chip.RequestLine(relayPin, gpiocdev.AsOutput(0))
	if err != nil {
		sensor.Close()
		chip.Close()
		return nil, fmt.Errorf("request relay pin %d: %w", relayPin, err)
	}

	return &RealPins{
		chip:   chip,
		sensor: sensor,
		relay:  relay,
	}, nil
}

// Read returns true while water is flowing.
func (p *RealPins) Read() (bool, error) {
	raw, err := p.sensor.Value()
	if err != nil {
		return false, fmt.Errorf("read sensor pin: %w", err)
	}
	return raw == 0, nil
}

// Set drives the relay line. High = softener power off.
func (p *RealPins) Set(high bool) error {
	v := 0
	if high {
		v = 1
	}
	if err := p.relay.SetValue(v); err != nil {
		return fmt.Errorf("set relay pin: %w", err)
	}
	return nil
}

// Close drives the relay low and reconfigures both lines to input with
// pull-down (matching Pi boot defaults) before releasing them, so the
// softener stays powered after the process exits.
func (p *RealPins) Close() error {
	var errs []error

	if p.relay != nil {
		if err := p.relay.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("drive relay low: %w", err))
		}
		if err := p.relay.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure relay pin: %w", err))
		}
		if err := p.relay.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close relay pin: %w", err))
		}
		p.relay = nil
	}
	if p.sensor != nil {
		if err := p.sensor.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close sensor pin: %w", err))
		}
		p.sensor = nil
	}
	if p.chip != nil {
		if err := p.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
		p.chip = nil
	}

	return errors.Join(errs...)
}
