// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package tick

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/GermanBionicSystems/thermolink/signal"
)

// DefaultPeriod is the epoch period used when Opts.Period is zero.
const DefaultPeriod = 3 * time.Second

// Opts represents configurable options for the Source.
type Opts struct {
	// Period between two Epoch signals.
	Period time.Duration
	// Clock to use. nil means the real clock.
	Clock clockwork.Clock
}

// Source is a tick source posting to a signal.Poster.
type Source struct {
	clock  clockwork.Clock
	period time.Duration
	post   signal.Poster

	running atomic.Bool
	epochs  atomic.Uint64
	armed   atomic.Int32
}

// New returns a Source posting to p. Epoch signals are only produced while
// Run is active; ArmDelay works regardless.
func New(p signal.Poster, opts *Opts) (*Source, error) {
	if p == nil {
		return nil, errors.New("tick: poster is required")
	}
	o := Opts{}
	if opts != nil {
		o = *opts
	}
	if o.Period == 0 {
		o.Period = DefaultPeriod
	}
	if o.Period < 0 {
		return nil, fmt.Errorf("tick: invalid period %s", o.Period)
	}
	if o.Clock == nil {
		o.Clock = clockwork.NewRealClock()
	}
	return &Source{clock: o.Clock, period: o.Period, post: p}, nil
}

// Run posts signal.Epoch every period until ctx is done.
func (s *Source) Run(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return errors.New("tick: already running")
	}
	defer s.running.Store(false)

	t := s.clock.NewTicker(s.period)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.Chan():
			s.epochs.Add(1)
			s.post.Post(signal.Epoch)
		}
	}
}

// ArmDelay arms the one-shot timer. signal.DelayElapsed is posted once d has
// elapsed on the clock, never earlier. It returns immediately.
func (s *Source) ArmDelay(d time.Duration) {
	s.armed.Add(1)
	c := s.clock.After(d)
	go func() {
		<-c
		s.armed.Add(-1)
		s.post.Post(signal.DelayElapsed)
	}()
}

// Armed returns the number of delays that have not elapsed yet.
func (s *Source) Armed() int {
	return int(s.armed.Load())
}

// Epochs returns the number of Epoch signals posted so far.
func (s *Source) Epochs() uint64 {
	return s.epochs.Load()
}

// Uptime returns the time covered by the epochs posted so far, at the
// resolution of one period.
func (s *Source) Uptime() time.Duration {
	return time.Duration(s.epochs.Load()) * s.period
}

// Period returns the epoch period.
func (s *Source) Period() time.Duration {
	return s.period
}

func (s *Source) String() string {
	return fmt.Sprintf("tick{%s}", s.period)
}
