// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package linktest is meant to be used to test code that depends on a
// link.Link.
//
// Link records every accepted value and lets the test script peer behavior:
// connecting, subscribing, acknowledging or rejecting.
package linktest

import (
	"sync"
	"sync/atomic"

	"github.com/cornelk/hashmap"

	"github.com/GermanBionicSystems/thermolink/link"
)

// Sent is one accepted value.
type Sent struct {
	Conn    link.Conn
	Dest    link.Handle
	Payload []byte
}

// Link implements link.Link.
//
// Modify its members to script the peer. Reject, when not nil, is consulted
// before every Send and its error is returned as is.
type Link struct {
	// AutoConfirm queues a Confirmed event after every accepted Send.
	AutoConfirm bool

	mu     sync.Mutex
	reject func(n int, dest link.Handle) error
	sent   []Sent
	calls  int

	events  chan link.Event
	perDest *hashmap.Map[link.Handle, *atomic.Uint64]

	// backlog holds events that did not fit in events, oldest first. While
	// it is not empty every new event goes behind it.
	backlogMu sync.Mutex
	backlog   []link.Event
	pumping   bool
}

// New returns a Link whose event channel can hold buffer events.
func New(buffer int) *Link {
	if buffer <= 0 {
		buffer = 64
	}
	return &Link{
		events:  make(chan link.Event, buffer),
		perDest: hashmap.New[link.Handle, *atomic.Uint64](),
	}
}

// Reject installs fn to decide the outcome of every Send; n counts Send
// calls from zero. nil accepts everything.
func (l *Link) Reject(fn func(n int, dest link.Handle) error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.reject = fn
}

// Send implements link.Link.
func (l *Link) Send(conn link.Conn, dest link.Handle, payload []byte) error {
	l.mu.Lock()
	n := l.calls
	l.calls++
	if l.reject != nil {
		if err := l.reject(n, dest); err != nil {
			l.mu.Unlock()
			return err
		}
	}
	p := make([]byte, len(payload))
	copy(p, payload)
	l.sent = append(l.sent, Sent{Conn: conn, Dest: dest, Payload: p})
	auto := l.AutoConfirm
	l.mu.Unlock()

	c, _ := l.perDest.GetOrInsert(dest, &atomic.Uint64{})
	c.Add(1)
	if auto {
		l.deliver(link.Event{Kind: link.Confirmed, Conn: conn, Handle: dest})
	}
	return nil
}

// Events implements link.Link.
func (l *Link) Events() <-chan link.Event {
	return l.events
}

// Sent returns a copy of every accepted value, in order.
func (l *Link) Sent() []Sent {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Sent, len(l.sent))
	copy(out, l.sent)
	return out
}

// Calls returns the number of Send calls, accepted or not.
func (l *Link) Calls() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

// SentTo returns the number of accepted values for dest. It is safe to call
// while the link is in use.
func (l *Link) SentTo(dest link.Handle) uint64 {
	if c, ok := l.perDest.Get(dest); ok {
		return c.Load()
	}
	return 0
}

// Open queues an Opened event.
func (l *Link) Open(conn link.Conn) {
	l.deliver(link.Event{Kind: link.Opened, Conn: conn})
}

// Close queues a Closed event.
func (l *Link) Close(conn link.Conn) {
	l.deliver(link.Event{Kind: link.Closed, Conn: conn})
}

// Subscribe queues a NotificationsEnabled event for dest.
func (l *Link) Subscribe(conn link.Conn, dest link.Handle) {
	l.deliver(link.Event{Kind: link.NotificationsEnabled, Conn: conn, Handle: dest})
}

// Unsubscribe queues a NotificationsDisabled event for dest.
func (l *Link) Unsubscribe(conn link.Conn, dest link.Handle) {
	l.deliver(link.Event{Kind: link.NotificationsDisabled, Conn: conn, Handle: dest})
}

// Confirm queues a Confirmed event for dest.
func (l *Link) Confirm(conn link.Conn, dest link.Handle) {
	l.deliver(link.Event{Kind: link.Confirmed, Conn: conn, Handle: dest})
}

// Timeout queues an IndicationTimeout event for dest.
func (l *Link) Timeout(conn link.Conn, dest link.Handle) {
	l.deliver(link.Event{Kind: link.IndicationTimeout, Conn: conn, Handle: dest})
}

// Backlog returns the number of events waiting for room in the channel.
func (l *Link) Backlog() int {
	l.backlogMu.Lock()
	defer l.backlogMu.Unlock()
	return len(l.backlog)
}

// deliver never blocks the caller, which may be the consumer itself, and
// keeps events in order.
func (l *Link) deliver(e link.Event) {
	l.backlogMu.Lock()
	defer l.backlogMu.Unlock()
	if len(l.backlog) == 0 {
		select {
		case l.events <- e:
			return
		default:
		}
	}
	l.backlog = append(l.backlog, e)
	if !l.pumping {
		l.pumping = true
		go l.pump()
	}
}

// pump moves the backlog into the channel, one event at a time.
func (l *Link) pump() {
	for {
		l.backlogMu.Lock()
		if len(l.backlog) == 0 {
			l.pumping = false
			l.backlogMu.Unlock()
			return
		}
		e := l.backlog[0]
		l.backlogMu.Unlock()

		l.events <- e

		l.backlogMu.Lock()
		l.backlog = l.backlog[1:]
		l.backlogMu.Unlock()
	}
}

var _ link.Link = &Link{}
