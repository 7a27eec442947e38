// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package si7021test

import (
	"errors"
	"testing"
	"time"

	"periph.io/x/conn/v3/physic"

	"github.com/GermanBionicSystems/thermolink/si7021"
	"github.com/GermanBionicSystems/thermolink/signal"
)

func TestBus_Sense(t *testing.T) {
	want := physic.ZeroCelsius + 41_010*physic.MilliKelvin
	bus := New(want)
	dev, err := si7021.NewI2C(bus, nil, &si7021.Opts{
		Checksum:       true,
		PowerUpTime:    time.Microsecond,
		ConversionTime: time.Microsecond,
	})
	if err != nil {
		t.Fatal(err)
	}
	env := physic.Env{}
	if err := dev.Sense(&env); err != nil {
		t.Fatal(err)
	}
	if env.Temperature != want {
		t.Errorf("got %s expected %s", env.Temperature, want)
	}
	if w, r := bus.Counts(); w != 1 || r != 1 {
		t.Errorf("got %d writes %d reads", w, r)
	}
}

func TestBus_ReadBeforeConversion(t *testing.T) {
	bus := New(physic.ZeroCelsius)
	if err := bus.Tx(si7021.DefaultAddress, nil, make([]byte, 2)); !errors.Is(err, ErrNack) {
		t.Errorf("expected ErrNack, got %v", err)
	}
	if err := bus.Tx(0x41, []byte{0xf3}, nil); !errors.Is(err, ErrNack) {
		t.Errorf("expected ErrNack, got %v", err)
	}
	if err := bus.Tx(si7021.DefaultAddress, []byte{0xe5}, nil); err == nil {
		t.Error("expected an error for an unsupported command")
	}
}

func TestBus_Fail(t *testing.T) {
	bus := New(physic.ZeroCelsius)
	boom := errors.New("boom")
	bus.Fail(boom)
	b := signal.New()
	dev, err := si7021.NewI2C(bus, b, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := dev.StartWrite(); err != nil {
		t.Fatal(err)
	}
	<-b.Wake()
	if s := b.Take(); s != signal.TransferFailed {
		t.Errorf("got %s", s)
	}
	bus.Fail(nil)
	if err := bus.Tx(si7021.DefaultAddress, []byte{0xf3}, nil); err != nil {
		t.Error(err)
	}
}
