// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package si7021test simulates a Si7021 sensor behind an i2c.Bus.
//
// Unlike i2ctest.Playback it does not require the exact transaction list, so
// it can sit behind a sampling loop running for an arbitrary number of
// cycles.
package si7021test

import (
	"errors"
	"fmt"
	"sync"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"

	"github.com/GermanBionicSystems/thermolink/common"
	"github.com/GermanBionicSystems/thermolink/si7021"
)

// ErrNack is returned for transactions the sensor would not acknowledge.
var ErrNack = errors.New("si7021test: no acknowledge")

// Bus implements i2c.Bus with one simulated sensor at si7021.DefaultAddress.
type Bus struct {
	mu     sync.Mutex
	temp   physic.Temperature
	code   uint16
	ready  bool
	err    error
	writes int
	reads  int
}

// New returns a Bus whose sensor measures t.
func New(t physic.Temperature) *Bus {
	return &Bus{temp: t}
}

// SetTemperature changes the value measured by the next conversion.
func (b *Bus) SetTemperature(t physic.Temperature) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.temp = t
}

// Fail makes every transaction fail with err until Fail(nil) is called.
func (b *Bus) Fail(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.err = err
}

// Counts returns the number of measure commands and result reads served.
func (b *Bus) Counts() (writes, reads int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.writes, b.reads
}

// Tx implements i2c.Bus.
func (b *Bus) Tx(addr uint16, w, r []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if addr != si7021.DefaultAddress {
		return fmt.Errorf("%w from %#x", ErrNack, addr)
	}
	if b.err != nil {
		return b.err
	}
	if len(w) > 0 {
		if w[0] != 0xf3 {
			return fmt.Errorf("si7021test: unsupported command %#02x", w[0])
		}
		b.code = si7021.TemperatureToCode(b.temp)
		b.ready = true
		b.writes++
	}
	if len(r) > 0 {
		if !b.ready {
			return fmt.Errorf("%w: no conversion started", ErrNack)
		}
		data := []byte{byte(b.code >> 8), byte(b.code)}
		data = append(data, common.CRC8(0x00, data))
		copy(r, data)
		b.ready = false
		b.reads++
	}
	return nil
}

// SetSpeed implements i2c.Bus.
func (b *Bus) SetSpeed(f physic.Frequency) error {
	return nil
}

func (b *Bus) String() string {
	return "si7021test"
}

// Close implements i2c.BusCloser.
func (b *Bus) Close() error {
	return nil
}

var _ i2c.BusCloser = &Bus{}
