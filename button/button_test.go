// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package button

import (
	"context"
	"errors"
	"testing"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"

	"github.com/GermanBionicSystems/thermolink/signal"
)

func waitSignal(t *testing.T, b *signal.Bridge) signal.Signal {
	t.Helper()
	select {
	case <-b.Wake():
		return b.Take()
	case <-time.After(5 * time.Second):
		t.Fatal("no signal posted")
		return 0
	}
}

func TestWatcher(t *testing.T) {
	pin := &gpiotest.Pin{N: "BTN", L: gpio.High, EdgesChan: make(chan gpio.Level)}
	b := signal.New()
	w, err := New(pin, b, &Opts{Poll: 10 * time.Millisecond})
	if err != nil {
		t.Fatal(err)
	}
	if w.Pressed() {
		t.Fatal("a high pin is released")
	}
	if pin.P != gpio.PullUp {
		t.Errorf("expected pull up, got %s", pin.P)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- w.Run(ctx) }()

	pin.EdgesChan <- gpio.Low
	if s := waitSignal(t, b); s != signal.ButtonChanged {
		t.Errorf("got %s", s)
	}
	if !w.Pressed() {
		t.Error("expected pressed after a low edge")
	}
	// A bounce that keeps the level posts nothing.
	pin.EdgesChan <- gpio.Low
	pin.EdgesChan <- gpio.High
	if s := waitSignal(t, b); s != signal.ButtonChanged {
		t.Errorf("got %s", s)
	}
	if w.Pressed() {
		t.Error("expected released after a high edge")
	}
	if w.Changes() != 2 {
		t.Errorf("got %d changes", w.Changes())
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("got %v", err)
	}
}

func TestWatcher_ActiveHigh(t *testing.T) {
	pin := &gpiotest.Pin{N: "BTN", EdgesChan: make(chan gpio.Level)}
	b := signal.New()
	w, err := New(pin, b, &Opts{ActiveHigh: true, Poll: 10 * time.Millisecond})
	if err != nil {
		t.Fatal(err)
	}
	if w.Pressed() {
		t.Error("a pulled down pin is released")
	}
	if pin.P != gpio.PullDown {
		t.Errorf("expected pull down, got %s", pin.P)
	}
	if w.String() != "button{BTN(0)}" {
		t.Errorf("got %q", w.String())
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)
	pin.EdgesChan <- gpio.High
	if s := waitSignal(t, b); s != signal.ButtonChanged {
		t.Errorf("got %s", s)
	}
	if !w.Pressed() {
		t.Error("expected pressed after a high edge")
	}
}

func TestNew_Errors(t *testing.T) {
	if _, err := New(nil, signal.New(), nil); err == nil {
		t.Error("expected an error without pin")
	}
}
