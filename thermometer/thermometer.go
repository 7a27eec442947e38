// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package thermometer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"github.com/GermanBionicSystems/thermolink/indication"
	"github.com/GermanBionicSystems/thermolink/link"
	"github.com/GermanBionicSystems/thermolink/power"
	"github.com/GermanBionicSystems/thermolink/sampler"
	"github.com/GermanBionicSystems/thermolink/session"
	"github.com/GermanBionicSystems/thermolink/signal"
	"github.com/GermanBionicSystems/thermolink/tick"
)

// Opts represents configurable options for the Core.
type Opts struct {
	// Period is the epoch period. Defaults to tick.DefaultPeriod.
	Period time.Duration
	// Warmup and Conversion default to the sampler defaults.
	Warmup     time.Duration
	Conversion time.Duration
	// QueueCapacity defaults to indication.DefaultCapacity.
	QueueCapacity int
	// Power defaults to a power.Manager.
	Power sampler.PowerManager
	// Button provides the push button level read on signal.ButtonChanged.
	// Without it the signal is ignored.
	Button Button
	// Clock defaults to the real clock.
	Clock clockwork.Clock
	Log   logrus.FieldLogger
}

// Button reports the current push button level. Implemented by
// button.Watcher.
type Button interface {
	Pressed() bool
}

// Core is the device context: it owns every piece of loop state.
type Core struct {
	bridge   *signal.Bridge
	tick     *tick.Source
	fsm      *sampler.FSM
	producer *indication.Producer
	link     link.Link
	button   Button
	log      logrus.FieldLogger

	state    session.State
	requests chan request

	measurements chan sampler.Measurement
	sessions     chan session.Snapshot

	running sync.Mutex
}

type request struct {
	dest    link.Handle
	payload []byte
	reply   chan error
}

// New returns a Core. Sensor s must post its transfer completions to b.
func New(s sampler.Sensor, l link.Link, b *signal.Bridge, opts *Opts) (*Core, error) {
	if s == nil || l == nil || b == nil {
		return nil, errors.New("thermometer: sensor, link and bridge are required")
	}
	o := Opts{}
	if opts != nil {
		o = *opts
	}
	if o.Log == nil {
		o.Log = logrus.New()
	}
	if o.Clock == nil {
		o.Clock = clockwork.NewRealClock()
	}
	if o.Power == nil {
		o.Power = power.New(o.Log, nil)
	}
	if o.Period == 0 {
		o.Period = tick.DefaultPeriod
	}
	if o.Warmup == 0 {
		o.Warmup = sampler.DefaultWarmup
	}
	if o.Conversion == 0 {
		o.Conversion = sampler.DefaultConversion
	}
	// A delay still armed when the link drops must fire before the next
	// epoch can start a new cycle.
	if o.Period > 0 && o.Period <= o.Warmup+o.Conversion {
		return nil, fmt.Errorf("thermometer: period %s must exceed warmup %s plus conversion %s", o.Period, o.Warmup, o.Conversion)
	}
	src, err := tick.New(b, &tick.Opts{Period: o.Period, Clock: o.Clock})
	if err != nil {
		return nil, err
	}
	c := &Core{
		bridge:       b,
		tick:         src,
		link:         l,
		button:       o.Button,
		log:          o.Log.WithField("component", "thermometer"),
		requests:     make(chan request),
		measurements: make(chan sampler.Measurement, 8),
		sessions:     make(chan session.Snapshot, 8),
	}
	c.fsm, err = sampler.New(s, src, o.Power, c.onMeasurement, &sampler.Opts{
		Warmup:     o.Warmup,
		Conversion: o.Conversion,
		Clock:      o.Clock,
		Log:        o.Log,
	})
	if err != nil {
		return nil, err
	}
	c.producer = indication.NewProducer(l, &c.state, indication.NewQueue(o.QueueCapacity), o.Log)
	c.state.Publish()
	return c, nil
}

// Run starts the tick source and runs the event loop until ctx is done.
func (c *Core) Run(ctx context.Context) error {
	if !c.running.TryLock() {
		return errors.New("thermometer: already running")
	}
	defer c.running.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = c.tick.Run(ctx)
	}()
	defer func() {
		cancel()
		wg.Wait()
	}()

	c.log.WithField("tick", c.tick).Info("running")
	events := c.link.Events()
	for {
		select {
		case <-ctx.Done():
			c.fsm.Reset()
			return ctx.Err()
		case <-c.bridge.Wake():
			c.HandleSignal(c.bridge.Take())
		case e, ok := <-events:
			if !ok {
				c.log.Warn("link event stream closed")
				events = nil
				continue
			}
			c.HandleEvent(e)
		case r := <-c.requests:
			r.reply <- c.SubmitValue(r.dest, r.payload)
		}
	}
}

// HandleSignal dispatches every raised signal, lowest bit first. It must be
// called from the loop goroutine.
func (c *Core) HandleSignal(sig signal.Signal) {
	if sig == 0 {
		return
	}
	before := c.state.Snapshot()
	sig.Each(c.dispatch)
	c.publish(before)
}

func (c *Core) dispatch(sig signal.Signal) {
	switch sig {
	case signal.Epoch:
		c.producer.Drain()
		if c.state.LinkOpen {
			c.fsm.Handle(sig)
		}
	case signal.ButtonChanged:
		c.onButton()
	default:
		if !c.state.LinkOpen {
			c.log.WithField("signal", sig).Debug("ignored, link closed")
			return
		}
		c.fsm.Handle(sig)
	}
}

// HandleEvent applies a link event. It must be called from the loop
// goroutine.
func (c *Core) HandleEvent(e link.Event) {
	before := c.state.Snapshot()
	defer c.publish(before)
	log := c.log.WithField("event", e)

	if e.Kind == link.Opened {
		if c.state.LinkOpen {
			log.Warn("opened while a connection is open, dropping the previous one")
			c.closeLink()
		}
		c.state.LinkOpen = true
		c.state.Conn = e.Conn
		log.Info("link opened")
		return
	}
	if !c.state.LinkOpen || e.Conn != c.state.Conn {
		log.Debug("ignored, not the open connection")
		return
	}
	switch e.Kind {
	case link.Closed:
		c.closeLink()
		log.Info("link closed")
	case link.NotificationsEnabled, link.NotificationsDisabled:
		if e.Handle != link.Temperature {
			log.Debug("subscription change on a secondary handle")
			return
		}
		c.state.NotificationsEnabled = e.Kind == link.NotificationsEnabled
		log.Info("subscription changed")
	case link.Confirmed:
		c.producer.Acknowledge()
		log.Debug("acknowledged")
	case link.IndicationTimeout:
		c.producer.Acknowledge()
		log.Warn("acknowledgment timed out")
	default:
		log.Debug("ignored")
	}
}

func (c *Core) closeLink() {
	c.producer.Reset()
	c.state.Close()
	c.fsm.Reset()
}

// SubmitValue pushes payload to dest through the indication producer. It
// must be called from the loop goroutine; use Submit from anywhere else.
func (c *Core) SubmitValue(dest link.Handle, payload []byte) error {
	before := c.state.Snapshot()
	defer c.publish(before)
	return c.producer.Submit(dest, payload)
}

// Submit is SubmitValue for use from any goroutine while Run is active.
func (c *Core) Submit(ctx context.Context, dest link.Handle, payload []byte) error {
	r := request{dest: dest, payload: append([]byte(nil), payload...), reply: make(chan error, 1)}
	select {
	case c.requests <- r:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-r.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SessionState returns the last published session state. It is safe to
// call from any goroutine.
func (c *Core) SessionState() session.Snapshot {
	return c.state.Published()
}

// Measurements returns the stream of measurements. Values are dropped when
// nobody reads them.
func (c *Core) Measurements() <-chan sampler.Measurement {
	return c.measurements
}

// Sessions returns the stream of session changes. Values are dropped when
// nobody reads them.
func (c *Core) Sessions() <-chan session.Snapshot {
	return c.sessions
}

// Uptime returns the time elapsed in whole epochs.
func (c *Core) Uptime() time.Duration {
	return c.tick.Uptime()
}

func (c *Core) String() string {
	return fmt.Sprintf("thermometer{%s}", c.tick)
}

func (c *Core) onMeasurement(m sampler.Measurement) {
	offer(c.measurements, m)
	err := c.producer.Submit(link.Temperature, m.Payload())
	switch {
	case err == nil:
	case errors.Is(err, indication.ErrNotSubscribed):
		c.log.Debug("measurement not sent, peer not subscribed")
	default:
		c.log.WithError(err).Warn("measurement not sent")
	}
}

func (c *Core) onButton() {
	if c.button == nil {
		c.log.Debug("button change ignored, no button")
		return
	}
	pressed := c.button.Pressed()
	if pressed == c.state.ButtonPressed {
		c.log.Debug("button change coalesced, level unchanged")
		return
	}
	c.state.ButtonPressed = pressed
	v := byte(0)
	if pressed {
		v = 1
	}
	if err := c.producer.Submit(link.Button, []byte{v}); err != nil && !errors.Is(err, indication.ErrNotSubscribed) {
		c.log.WithError(err).Warn("button state not sent")
	}
}

func (c *Core) publish(before session.Snapshot) {
	if snap := c.state.Publish(); snap != before {
		offer(c.sessions, snap)
	}
}

// offer sends v unless ch is full.
func offer[T any](ch chan T, v T) {
	select {
	case ch <- v:
	default:
	}
}
