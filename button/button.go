// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package button turns push button edges on a GPIO into signals.
package button

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"periph.io/x/conn/v3/gpio"

	"github.com/GermanBionicSystems/thermolink/signal"
)

// Opts represents configurable options for the Watcher.
type Opts struct {
	// ActiveHigh means a pressed button reads high. By default the button
	// pulls the pin to ground.
	ActiveHigh bool
	// Poll bounds how long Run waits for an edge before checking its
	// context. Defaults to 100ms.
	Poll time.Duration
}

// Watcher posts signal.ButtonChanged on level changes of a pin. The new
// level is stored before the signal is posted, so Pressed observed after
// the signal was taken is never older than the change that raised it.
type Watcher struct {
	pin  gpio.PinIn
	post signal.Poster
	opts Opts

	running atomic.Bool
	pressed atomic.Bool
	changes atomic.Uint64
}

// New configures pin as an input with edge detection on both edges.
func New(pin gpio.PinIn, p signal.Poster, opts *Opts) (*Watcher, error) {
	if pin == nil || p == nil {
		return nil, errors.New("button: pin and poster are required")
	}
	o := Opts{}
	if opts != nil {
		o = *opts
	}
	if o.Poll <= 0 {
		o.Poll = 100 * time.Millisecond
	}
	pull := gpio.PullUp
	if o.ActiveHigh {
		pull = gpio.PullDown
	}
	if err := pin.In(pull, gpio.BothEdges); err != nil {
		return nil, fmt.Errorf("button: %s: %w", pin, err)
	}
	w := &Watcher{pin: pin, post: p, opts: o}
	w.pressed.Store(w.isPressed(pin.Read()))
	return w, nil
}

// Run waits for edges until ctx is done. Bounces that leave the level
// unchanged post nothing.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.running.CompareAndSwap(false, true) {
		return errors.New("button: already running")
	}
	defer w.running.Store(false)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !w.pin.WaitForEdge(w.opts.Poll) {
			continue
		}
		pressed := w.isPressed(w.pin.Read())
		if w.pressed.Swap(pressed) == pressed {
			continue
		}
		w.changes.Add(1)
		w.post.Post(signal.ButtonChanged)
	}
}

// Pressed returns the last seen button state.
func (w *Watcher) Pressed() bool {
	return w.pressed.Load()
}

// Changes returns the number of state changes posted.
func (w *Watcher) Changes() uint64 {
	return w.changes.Load()
}

func (w *Watcher) String() string {
	return fmt.Sprintf("button{%s}", w.pin)
}

func (w *Watcher) isPressed(l gpio.Level) bool {
	return l == gpio.Level(w.opts.ActiveHigh)
}
