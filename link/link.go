// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package link defines what the sampling core needs from a wireless link
// stack: a way to push a value to the connected peer and an ordered stream
// of link events.
//
// Connection establishment, pairing, discovery and advertising belong to
// the implementation. See link/ble for a radio backed one and link/linktest
// for a scripted fake.
package link

import (
	"errors"
	"fmt"
)

// Conn identifies a peer connection.
type Conn uint8

// Handle identifies the destination of a pushed value on the peer side.
type Handle uint16

const (
	// Temperature is the destination of temperature measurements.
	Temperature Handle = 1
	// Button is the destination of push button state changes.
	Button Handle = 2
)

var (
	// ErrBusy is returned by Send when the link cannot take a value right
	// now. The caller may keep it and retry later.
	ErrBusy = errors.New("link: busy")
	// ErrClosed is returned by Send when no peer is connected.
	ErrClosed = errors.New("link: no open connection")
)

// Kind is the type of a link event.
type Kind uint8

const (
	// Opened is delivered when a peer connects.
	Opened Kind = iota + 1
	// Closed is delivered when the peer disconnects.
	Closed
	// NotificationsEnabled is delivered when the peer subscribes.
	NotificationsEnabled
	// NotificationsDisabled is delivered when the peer unsubscribes.
	NotificationsDisabled
	// Confirmed is delivered when the peer acknowledged the value in flight.
	Confirmed
	// IndicationTimeout is delivered when the peer failed to acknowledge in
	// time.
	IndicationTimeout
)

func (k Kind) String() string {
	switch k {
	case Opened:
		return "Opened"
	case Closed:
		return "Closed"
	case NotificationsEnabled:
		return "NotificationsEnabled"
	case NotificationsDisabled:
		return "NotificationsDisabled"
	case Confirmed:
		return "Confirmed"
	case IndicationTimeout:
		return "IndicationTimeout"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Event is one link event.
type Event struct {
	Kind Kind
	Conn Conn
	// Handle is set for subscription and acknowledgment events.
	Handle Handle
}

func (e Event) String() string {
	return fmt.Sprintf("%s{conn:%d handle:%d}", e.Kind, e.Conn, e.Handle)
}

// Link is a wireless link stack as seen by the core.
type Link interface {
	// Send pushes payload to dest on conn. A nil error means the link
	// accepted it and an acknowledgment event will follow.
	Send(conn Conn, dest Handle, payload []byte) error
	// Events returns the ordered link event stream.
	Events() <-chan Event
}
