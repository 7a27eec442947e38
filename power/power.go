// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package power tracks advisory current-mode requirements.
//
// Bus transactions need the host to stay in a higher power mode while they
// run. Every Raise must be matched by a Lower; the Manager counts the
// outstanding requirements and reports transitions between the low and the
// high mode. Nothing in the sampling logic depends on it for correctness.
package power

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Mode is the current-mode the host is allowed to drop to.
type Mode int

const (
	// Low means nothing needs the bus clock; the host may sleep deeply.
	Low Mode = iota
	// High means at least one requirement is outstanding.
	High
)

func (m Mode) String() string {
	if m == High {
		return "high"
	}
	return "low"
}

// Manager is a reference counted power requirement.
type Manager struct {
	mu       sync.Mutex
	count    int
	raises   uint64
	onChange func(Mode)
	log      logrus.FieldLogger
}

// New returns a Manager. onChange, when not nil, is called on every mode
// transition with the lock held; it must not call back into the Manager.
func New(log logrus.FieldLogger, onChange func(Mode)) *Manager {
	if log == nil {
		log = logrus.New()
	}
	return &Manager{log: log, onChange: onChange}
}

// Raise adds one requirement for the high mode.
func (m *Manager) Raise() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.count++
	m.raises++
	if m.count == 1 {
		m.log.Debug("power: entering high mode")
		if m.onChange != nil {
			m.onChange(High)
		}
	}
}

// Lower removes one requirement. Unbalanced calls are logged and ignored.
func (m *Manager) Lower() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.count == 0 {
		m.log.Warn("power: lower without matching raise")
		return
	}
	m.count--
	if m.count == 0 {
		m.log.Debug("power: back to low mode")
		if m.onChange != nil {
			m.onChange(Low)
		}
	}
}

// Mode returns the current mode.
func (m *Manager) Mode() Mode {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.count > 0 {
		return High
	}
	return Low
}

// Outstanding returns the number of unmatched Raise calls.
func (m *Manager) Outstanding() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.count
}

// Raises returns the total number of Raise calls.
func (m *Manager) Raises() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.raises
}
