// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sampler

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/physic"

	"github.com/GermanBionicSystems/thermolink/signal"
)

const (
	// DefaultWarmup is the wait between powering the sensor and the
	// measure command.
	DefaultWarmup = 80 * time.Millisecond
	// DefaultConversion is the wait between the measure command and the
	// result read.
	DefaultConversion = 10800 * time.Microsecond
)

// State is the FSM state.
type State uint8

const (
	Idle State = iota
	AwaitingWarmup
	AwaitingWriteComplete
	AwaitingConversion
	AwaitingReadComplete
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case AwaitingWarmup:
		return "AwaitingWarmup"
	case AwaitingWriteComplete:
		return "AwaitingWriteComplete"
	case AwaitingConversion:
		return "AwaitingConversion"
	case AwaitingReadComplete:
		return "AwaitingReadComplete"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// Measurement is one converted sample.
type Measurement struct {
	Temperature physic.Temperature
	// MilliCelsius is Temperature in signed thousandths of a degree.
	MilliCelsius int32
	Raw          uint16
	At           time.Time
}

// NewMeasurement fills MilliCelsius from t.
func NewMeasurement(t physic.Temperature, raw uint16, at time.Time) Measurement {
	return Measurement{
		Temperature:  t,
		MilliCelsius: int32((t - physic.ZeroCelsius) / physic.MilliKelvin),
		Raw:          raw,
		At:           at,
	}
}

// Payload returns MilliCelsius as 4 little endian bytes.
func (m Measurement) Payload() []byte {
	return binary.LittleEndian.AppendUint32(nil, uint32(m.MilliCelsius))
}

func (m Measurement) String() string {
	return fmt.Sprintf("%s (%#04x)", m.Temperature, m.Raw)
}

// Sensor is the bus transfer driver. StartWrite and StartRead return
// immediately and post signal.TransferComplete or signal.TransferFailed
// when done.
type Sensor interface {
	PowerOn() error
	PowerOff() error
	StartWrite() error
	StartRead() error
	Temperature() (physic.Temperature, uint16, error)
}

// Delayer arms a one-shot delay that posts signal.DelayElapsed no earlier
// than d.
type Delayer interface {
	ArmDelay(d time.Duration)
}

// PowerManager holds the host in a higher power mode while a bus
// transaction runs.
type PowerManager interface {
	Raise()
	Lower()
}

// Sink receives every Measurement.
type Sink func(Measurement)

// Opts represents configurable options for the FSM.
type Opts struct {
	Warmup     time.Duration
	Conversion time.Duration
	// Clock timestamps measurements. nil means the real clock.
	Clock clockwork.Clock
	Log   logrus.FieldLogger
}

// Stats counts completed and failed cycles.
type Stats struct {
	Cycles   uint64
	Failures uint64
	Ignored  uint64
}

// FSM is the sampling state machine. It is not safe for concurrent use;
// one loop goroutine owns it.
type FSM struct {
	sensor Sensor
	delay  Delayer
	power  PowerManager
	sink   Sink
	opts   Opts
	log    logrus.FieldLogger

	state  State
	raised bool
	stats  Stats
}

// New returns an FSM in the Idle state.
func New(s Sensor, d Delayer, p PowerManager, sink Sink, opts *Opts) (*FSM, error) {
	if s == nil || d == nil || p == nil {
		return nil, errors.New("sampler: sensor, delayer and power manager are required")
	}
	o := Opts{}
	if opts != nil {
		o = *opts
	}
	if o.Warmup == 0 {
		o.Warmup = DefaultWarmup
	}
	if o.Conversion == 0 {
		o.Conversion = DefaultConversion
	}
	if o.Warmup < 0 || o.Conversion < 0 {
		return nil, fmt.Errorf("sampler: invalid delays %s/%s", o.Warmup, o.Conversion)
	}
	if o.Clock == nil {
		o.Clock = clockwork.NewRealClock()
	}
	if o.Log == nil {
		o.Log = logrus.New()
	}
	if sink == nil {
		sink = func(Measurement) {}
	}
	return &FSM{
		sensor: s,
		delay:  d,
		power:  p,
		sink:   sink,
		opts:   o,
		log:    o.Log.WithField("component", "sampler"),
	}, nil
}

// State returns the current state.
func (f *FSM) State() State {
	return f.state
}

// Stats returns the counters.
func (f *FSM) Stats() Stats {
	return f.stats
}

// Handle advances the FSM on sig. sig must hold a single signal; use
// Signal.Each to split a set.
func (f *FSM) Handle(sig signal.Signal) {
	switch {
	case f.state == Idle && sig == signal.Epoch:
		if err := f.sensor.PowerOn(); err != nil {
			f.fail("power on", err)
			return
		}
		f.delay.ArmDelay(f.opts.Warmup)
		f.enter(AwaitingWarmup)

	case f.state == AwaitingWarmup && sig == signal.DelayElapsed:
		f.raise()
		if err := f.sensor.StartWrite(); err != nil {
			f.fail("start write", err)
			return
		}
		f.enter(AwaitingWriteComplete)

	case f.state == AwaitingWriteComplete && sig == signal.TransferComplete:
		f.lower()
		f.delay.ArmDelay(f.opts.Conversion)
		f.enter(AwaitingConversion)

	case f.state == AwaitingConversion && sig == signal.DelayElapsed:
		f.raise()
		if err := f.sensor.StartRead(); err != nil {
			f.fail("start read", err)
			return
		}
		f.enter(AwaitingReadComplete)

	case f.state == AwaitingReadComplete && sig == signal.TransferComplete:
		f.lower()
		t, raw, err := f.sensor.Temperature()
		if err != nil {
			f.fail("convert", err)
			return
		}
		f.powerOff()
		f.enter(Idle)
		f.stats.Cycles++
		m := NewMeasurement(t, raw, f.opts.Clock.Now())
		f.log.WithFields(logrus.Fields{"temperature": m.Temperature, "raw": m.Raw}).Info("measurement")
		f.sink(m)

	case sig == signal.TransferFailed && (f.state == AwaitingWriteComplete || f.state == AwaitingReadComplete):
		f.fail("transfer", errors.New("bus transaction failed"))

	default:
		f.stats.Ignored++
		f.log.WithFields(logrus.Fields{"state": f.state, "signal": sig}).Debug("ignored")
	}
}

// Reset goes back to Idle from any state, releasing the power requirement
// and powering the sensor off. Delays and transactions already started
// still post their signal, which Idle ignores.
func (f *FSM) Reset() {
	if f.state == Idle && !f.raised {
		return
	}
	f.lower()
	f.powerOff()
	f.enter(Idle)
}

func (f *FSM) fail(step string, err error) {
	f.stats.Failures++
	f.log.WithError(err).WithFields(logrus.Fields{"state": f.state, "step": step}).Error("sampling aborted")
	f.lower()
	f.powerOff()
	f.enter(Idle)
}

func (f *FSM) enter(s State) {
	if s != f.state {
		f.log.WithFields(logrus.Fields{"from": f.state, "to": s}).Debug("transition")
	}
	f.state = s
}

func (f *FSM) raise() {
	if !f.raised {
		f.power.Raise()
		f.raised = true
	}
}

func (f *FSM) lower() {
	if f.raised {
		f.power.Lower()
		f.raised = false
	}
}

func (f *FSM) powerOff() {
	if err := f.sensor.PowerOff(); err != nil {
		f.log.WithError(err).Warn("power off failed")
	}
}
