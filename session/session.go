// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package session holds the connection state shared by the sampling loop and
// the indication producer.
//
// State is owned by a single goroutine. Other goroutines read published
// Snapshot values.
package session

import (
	"fmt"
	"sync/atomic"

	"github.com/GermanBionicSystems/thermolink/link"
)

// State is the mutable session state.
type State struct {
	// LinkOpen is true between the Opened and Closed link events.
	LinkOpen bool
	// NotificationsEnabled is true while the peer is subscribed.
	NotificationsEnabled bool
	// InFlight is true while one value awaits acknowledgment.
	InFlight bool
	// Pending is the number of queued values. It always equals the
	// indication queue occupancy.
	Pending int
	// Conn is the handle of the open connection.
	Conn link.Conn
	// ButtonPressed is the last known push button level.
	ButtonPressed bool

	published atomic.Pointer[Snapshot]
}

// Snapshot is an immutable copy of State.
type Snapshot struct {
	LinkOpen             bool
	NotificationsEnabled bool
	InFlight             bool
	Pending              int
	Conn                 link.Conn
	ButtonPressed        bool
}

// Subscribed reports whether a value may be pushed to the peer.
func (s *State) Subscribed() bool {
	return s.LinkOpen && s.NotificationsEnabled
}

// Close resets everything tied to the connection.
func (s *State) Close() {
	s.LinkOpen = false
	s.NotificationsEnabled = false
	s.InFlight = false
	s.Pending = 0
	s.Conn = 0
}

// Snapshot returns a copy of the current values.
func (s *State) Snapshot() Snapshot {
	return Snapshot{
		LinkOpen:             s.LinkOpen,
		NotificationsEnabled: s.NotificationsEnabled,
		InFlight:             s.InFlight,
		Pending:              s.Pending,
		Conn:                 s.Conn,
		ButtonPressed:        s.ButtonPressed,
	}
}

// Publish makes the current values visible to Published. It must be called
// by the owner after each batch of changes.
func (s *State) Publish() Snapshot {
	snap := s.Snapshot()
	s.published.Store(&snap)
	return snap
}

// Published returns the last published snapshot. It is safe to call from
// any goroutine.
func (s *State) Published() Snapshot {
	if p := s.published.Load(); p != nil {
		return *p
	}
	return Snapshot{}
}

func (s Snapshot) String() string {
	return fmt.Sprintf("session{open:%t notify:%t inflight:%t pending:%d conn:%d button:%t}",
		s.LinkOpen, s.NotificationsEnabled, s.InFlight, s.Pending, s.Conn, s.ButtonPressed)
}
