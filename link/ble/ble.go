// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package ble implements link.Link on top of a tinygo bluetooth adapter in
// the peripheral role.
//
// One flat service is registered with one notify characteristic per
// destination handle. The stack does not expose descriptor writes nor
// acknowledgments to the application, so a connection is reported as
// subscribed right away and every accepted write is followed by a
// link.Confirmed event.
package ble

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"tinygo.org/x/bluetooth"

	"github.com/GermanBionicSystems/thermolink/link"
)

var (
	// ServiceUUID is the service advertised by the peripheral.
	ServiceUUID = bluetooth.New16BitUUID(0xfff0)
	// TemperatureUUID carries link.Temperature values.
	TemperatureUUID = bluetooth.New16BitUUID(0xfff1)
	// ButtonUUID carries link.Button values.
	ButtonUUID = bluetooth.New16BitUUID(0xfff2)
)

// Opts represents configurable options for the Peripheral.
type Opts struct {
	// Name is the advertised local name.
	Name string
	// Log defaults to a new logrus logger.
	Log logrus.FieldLogger
}

// DefaultOpts is the recommended default options.
var DefaultOpts = Opts{Name: "thermolink"}

// Peripheral is a link.Link backed by a bluetooth adapter.
type Peripheral struct {
	adapter *bluetooth.Adapter
	log     logrus.FieldLogger
	events  chan link.Event
	chars   map[link.Handle]*bluetooth.Characteristic

	mu   sync.Mutex
	open bool
	conn link.Conn
	next link.Conn
}

// New enables adapter, registers the service and starts advertising.
func New(adapter *bluetooth.Adapter, opts *Opts) (*Peripheral, error) {
	o := DefaultOpts
	if opts != nil {
		o = *opts
	}
	if o.Log == nil {
		o.Log = logrus.New()
	}
	p := &Peripheral{
		adapter: adapter,
		log:     o.Log.WithField("component", "ble"),
		events:  make(chan link.Event, 64),
		chars: map[link.Handle]*bluetooth.Characteristic{
			link.Temperature: {},
			link.Button:      {},
		},
	}
	adapter.SetConnectHandler(p.onConnect)
	if err := adapter.Enable(); err != nil {
		return nil, fmt.Errorf("ble: enable: %w", err)
	}
	err := adapter.AddService(&bluetooth.Service{
		UUID: ServiceUUID,
		Characteristics: []bluetooth.CharacteristicConfig{
			{
				Handle: p.chars[link.Temperature],
				UUID:   TemperatureUUID,
				Value:  make([]byte, 4),
				Flags:  bluetooth.CharacteristicNotifyPermission | bluetooth.CharacteristicReadPermission,
			},
			{
				Handle: p.chars[link.Button],
				UUID:   ButtonUUID,
				Value:  []byte{0},
				Flags:  bluetooth.CharacteristicNotifyPermission | bluetooth.CharacteristicReadPermission,
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("ble: add service: %w", err)
	}
	adv := adapter.DefaultAdvertisement()
	if err := adv.Configure(bluetooth.AdvertisementOptions{
		LocalName:    o.Name,
		ServiceUUIDs: []bluetooth.UUID{ServiceUUID},
	}); err != nil {
		return nil, fmt.Errorf("ble: configure advertisement: %w", err)
	}
	if err := adv.Start(); err != nil {
		return nil, fmt.Errorf("ble: start advertisement: %w", err)
	}
	p.log.WithField("name", o.Name).Info("advertising")
	return p, nil
}

// Send implements link.Link.
func (p *Peripheral) Send(conn link.Conn, dest link.Handle, payload []byte) error {
	c, ok := p.chars[dest]
	if !ok {
		return fmt.Errorf("ble: unknown handle %d", dest)
	}
	p.mu.Lock()
	if !p.open || p.conn != conn {
		p.mu.Unlock()
		return link.ErrClosed
	}
	p.mu.Unlock()
	if _, err := c.Write(payload); err != nil {
		return fmt.Errorf("ble: notify handle %d: %w", dest, err)
	}
	p.deliver(link.Event{Kind: link.Confirmed, Conn: conn, Handle: dest})
	return nil
}

// Events implements link.Link.
func (p *Peripheral) Events() <-chan link.Event {
	return p.events
}

func (p *Peripheral) String() string {
	return "ble"
}

func (p *Peripheral) onConnect(device bluetooth.Device, connected bool) {
	p.mu.Lock()
	if connected == p.open {
		p.mu.Unlock()
		return
	}
	p.open = connected
	if connected {
		p.next++
		p.conn = p.next
	}
	conn := p.conn
	p.mu.Unlock()

	if !connected {
		p.log.WithField("conn", conn).Info("disconnected")
		p.deliver(link.Event{Kind: link.Closed, Conn: conn})
		return
	}
	p.log.WithField("conn", conn).Info("connected")
	p.deliver(link.Event{Kind: link.Opened, Conn: conn})
	p.deliver(link.Event{Kind: link.NotificationsEnabled, Conn: conn, Handle: link.Temperature})
	p.deliver(link.Event{Kind: link.NotificationsEnabled, Conn: conn, Handle: link.Button})
}

// deliver keeps event order; the stack callbacks must not block for long.
func (p *Peripheral) deliver(e link.Event) {
	select {
	case p.events <- e:
	default:
		p.log.WithField("event", e).Warn("event queue full, waiting")
		p.events <- e
	}
}

var _ link.Link = &Peripheral{}
