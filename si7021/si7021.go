// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package si7021

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"

	"github.com/GermanBionicSystems/thermolink/common"
	"github.com/GermanBionicSystems/thermolink/signal"
)

const (
	// DefaultAddress is the fixed I2C address of the sensor.
	DefaultAddress uint16 = 0x40

	// PowerUpTime is the worst case time from power on to the first
	// accepted command.
	PowerUpTime = 80 * time.Millisecond
	// ConversionTime is the worst case 14 bit temperature conversion time.
	ConversionTime = 10800 * time.Microsecond

	// Measure temperature, no hold master mode.
	cmdMeasureTemperature byte = 0xf3

	// The checksum of the Si70xx family is seeded with 0.
	crcSeed byte = 0x00

	// 175.72°C span of the 16 bit code.
	codeSpan physic.Temperature = 175_720 * physic.MilliKelvin
	// -46.85°C offset of the code.
	codeOffset physic.Temperature = 46_850 * physic.MilliKelvin

	_DEGREES_RESOLUTION physic.Temperature = 10 * physic.MilliKelvin
)

// Opts represents configurable options for the Si7021.
type Opts struct {
	// Addr defaults to DefaultAddress.
	Addr uint16
	// Power, when set, is driven high to power the sensor and low to cut it.
	Power gpio.PinOut
	// Checksum reads and verifies the checksum byte after the data.
	Checksum bool
	// PowerUpTime and ConversionTime are the waits used by Sense. Zero
	// selects the datasheet values.
	PowerUpTime    time.Duration
	ConversionTime time.Duration
}

// Dev represents a Si7021 sensor.
type Dev struct {
	d    *i2c.Dev
	post signal.Poster
	opts Opts

	mu       sync.Mutex
	busy     bool
	powered  bool
	raw      uint16
	valid    bool
	buf      [3]byte
	shutdown chan struct{}
	wg       sync.WaitGroup
}

// NewI2C returns a Si7021 on bus b. Completions of StartWrite and StartRead
// are posted to p; p may be nil when only Sense is used. The Opts can be
// nil.
func NewI2C(b i2c.Bus, p signal.Poster, opts *Opts) (*Dev, error) {
	o := Opts{}
	if opts != nil {
		o = *opts
	}
	if o.Addr == 0 {
		o.Addr = DefaultAddress
	}
	if o.Addr > 0x7f {
		return nil, fmt.Errorf("si7021: invalid address %#x", o.Addr)
	}
	if o.PowerUpTime == 0 {
		o.PowerUpTime = PowerUpTime
	}
	if o.ConversionTime == 0 {
		o.ConversionTime = ConversionTime
	}
	return &Dev{d: &i2c.Dev{Bus: b, Addr: o.Addr}, post: p, opts: o}, nil
}

// PowerOn powers the sensor. It must then be left alone for PowerUpTime.
func (dev *Dev) PowerOn() error {
	return dev.setPower(true)
}

// PowerOff cuts the sensor power.
func (dev *Dev) PowerOff() error {
	return dev.setPower(false)
}

// Powered reports whether the sensor is powered.
func (dev *Dev) Powered() bool {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	return dev.powered
}

func (dev *Dev) setPower(on bool) error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	if dev.opts.Power != nil {
		if err := dev.opts.Power.Out(gpio.Level(on)); err != nil {
			return fmt.Errorf("si7021: power pin: %w", err)
		}
	}
	dev.powered = on
	return nil
}

// StartWrite sends the measure command in the background. Completion is
// posted as signal.TransferComplete or signal.TransferFailed.
func (dev *Dev) StartWrite() error {
	if err := dev.acquire(); err != nil {
		return err
	}
	go func() {
		dev.release(dev.d.Tx([]byte{cmdMeasureTemperature}, nil))
	}()
	return nil
}

// StartRead reads the conversion result in the background. Completion is
// posted as signal.TransferComplete or signal.TransferFailed; the value is
// then available from Temperature.
func (dev *Dev) StartRead() error {
	if err := dev.acquire(); err != nil {
		return err
	}
	go func() {
		dev.release(dev.readCode())
	}()
	return nil
}

// Temperature returns the result of the last successful StartRead along
// with the raw code.
func (dev *Dev) Temperature() (physic.Temperature, uint16, error) {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	if !dev.valid {
		return 0, 0, ErrNoData
	}
	return codeToTemperature(dev.raw), dev.raw, nil
}

func (dev *Dev) acquire() error {
	if dev.post == nil {
		return errors.New("si7021: no poster for asynchronous transfers")
	}
	return dev.claim()
}

func (dev *Dev) claim() error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	if dev.busy {
		return ErrBusy
	}
	dev.busy = true
	return nil
}

func (dev *Dev) release(err error) {
	dev.mu.Lock()
	dev.busy = false
	dev.mu.Unlock()
	if err != nil {
		dev.post.Post(signal.TransferFailed)
		return
	}
	dev.post.Post(signal.TransferComplete)
}

// readCode reads the conversion result into dev.raw. It must not run
// concurrently with itself; busy or the Sense lock guarantee it.
func (dev *Dev) readCode() error {
	n := 2
	if dev.opts.Checksum {
		n = 3
	}
	r := dev.buf[:n]
	if err := dev.d.Tx(nil, r); err != nil {
		return err
	}
	if dev.opts.Checksum {
		if want := common.CRC8(crcSeed, r[:2]); r[2] != want {
			return &ChecksumError{Got: r[2], Want: want}
		}
	}
	dev.mu.Lock()
	dev.raw = uint16(r[0])<<8 | uint16(r[1])
	dev.valid = true
	dev.mu.Unlock()
	return nil
}

// Sense powers the sensor, runs one conversion and powers it off again. It
// blocks for PowerUpTime plus ConversionTime. Implements physic.SenseEnv.
func (dev *Dev) Sense(env *physic.Env) error {
	if err := dev.claim(); err != nil {
		return err
	}
	defer func() {
		dev.mu.Lock()
		dev.busy = false
		dev.mu.Unlock()
	}()

	if err := dev.PowerOn(); err != nil {
		return err
	}
	err := dev.measure()
	if perr := dev.PowerOff(); err == nil {
		err = perr
	}
	if err != nil {
		return err
	}
	t, _, err := dev.Temperature()
	if err == nil {
		env.Temperature = t
	}
	return err
}

func (dev *Dev) measure() error {
	time.Sleep(dev.opts.PowerUpTime)
	if err := dev.d.Tx([]byte{cmdMeasureTemperature}, nil); err != nil {
		return err
	}
	time.Sleep(dev.opts.ConversionTime)
	return dev.readCode()
}

// SenseContinuous runs Sense every interval and writes the values to the
// returned channel. Call Halt to stop. Implements physic.SenseEnv.
func (dev *Dev) SenseContinuous(interval time.Duration) (<-chan physic.Env, error) {
	if min := dev.opts.PowerUpTime + dev.opts.ConversionTime; interval < min {
		return nil, fmt.Errorf("si7021: invalid duration, minimum %s", min)
	}
	dev.mu.Lock()
	if dev.shutdown != nil {
		dev.mu.Unlock()
		return nil, errors.New("si7021: already sensing continuously")
	}
	shutdown := make(chan struct{})
	dev.shutdown = shutdown
	dev.mu.Unlock()

	channelSize := 16
	channel := make(chan physic.Env, channelSize)
	dev.wg.Add(1)
	go func() {
		defer dev.wg.Done()
		defer close(channel)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-shutdown:
				return
			case <-ticker.C:
				e := physic.Env{}
				if err := dev.Sense(&e); err == nil && len(channel) < channelSize {
					channel <- e
				}
			}
		}
	}()
	return channel, nil
}

// Halt stops a SenseContinuous loop. Implements conn.Resource.
func (dev *Dev) Halt() error {
	dev.mu.Lock()
	shutdown := dev.shutdown
	dev.shutdown = nil
	dev.mu.Unlock()
	if shutdown != nil {
		close(shutdown)
		dev.wg.Wait()
	}
	return nil
}

// Precision returns the resolution of a 14 bit conversion.
func (dev *Dev) Precision(env *physic.Env) {
	env.Temperature = _DEGREES_RESOLUTION
	env.Pressure = 0
	env.Humidity = 0
}

func (dev *Dev) String() string {
	return fmt.Sprintf("si7021: %s", dev.d.String())
}

// codeToTemperature applies T = 175.72 * code / 65536 - 46.85.
func codeToTemperature(code uint16) physic.Temperature {
	return physic.ZeroCelsius + physic.Temperature(int64(code)*int64(codeSpan)>>16) - codeOffset
}

// TemperatureToCode is the inverse of the conversion formula, clamped to
// the code range. It is used by simulators.
func TemperatureToCode(t physic.Temperature) uint16 {
	v := (int64(t-physic.ZeroCelsius+codeOffset) << 16) / int64(codeSpan)
	switch {
	case v < 0:
		return 0
	case v > 0xffff:
		return 0xffff
	}
	return uint16(v)
}

var _ conn.Resource = &Dev{}
var _ physic.SenseEnv = &Dev{}
