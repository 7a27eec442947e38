// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package indication

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/GermanBionicSystems/thermolink/link"
	"github.com/GermanBionicSystems/thermolink/session"
)

// ErrNotSubscribed is returned by Submit when no peer listens.
var ErrNotSubscribed = errors.New("indication: peer not subscribed")

// Stats counts what happened to submitted values.
type Stats struct {
	Sent     uint64
	Queued   uint64
	Rejected uint64
	Dropped  uint64
	Acked    uint64
}

// Producer pushes values to the peer through a link.Link, one at a time.
//
// It shares the session.State with its owner and keeps State.InFlight and
// State.Pending in sync with the Queue. It is not safe for concurrent use.
type Producer struct {
	link  link.Link
	queue *Queue
	state *session.State
	log   logrus.FieldLogger
	buf   [MaxPayloadSize]byte
	stats Stats
}

// NewProducer returns a Producer. A nil queue selects a queue of
// DefaultCapacity.
func NewProducer(l link.Link, s *session.State, q *Queue, log logrus.FieldLogger) *Producer {
	if q == nil {
		q = NewQueue(DefaultCapacity)
	}
	if log == nil {
		log = logrus.New()
	}
	return &Producer{link: l, queue: q, state: s, log: log.WithField("component", "indication")}
}

// Submit sends payload to dest right away when nothing is in flight,
// otherwise it queues it.
//
// A busy link queues the value too. Any other link error is returned and
// the value is lost.
func (p *Producer) Submit(dest link.Handle, payload []byte) error {
	if !p.state.Subscribed() {
		return ErrNotSubscribed
	}
	if len(payload) > MaxPayloadSize {
		return ErrTooLarge
	}
	if !p.state.InFlight {
		err := p.link.Send(p.state.Conn, dest, payload)
		if err == nil {
			p.state.InFlight = true
			p.stats.Sent++
			return nil
		}
		if !errors.Is(err, link.ErrBusy) {
			p.stats.Rejected++
			p.log.WithError(err).WithField("dest", dest).Error("send rejected")
			return fmt.Errorf("indication: send: %w", err)
		}
		p.log.WithField("dest", dest).Warn("link busy, queueing")
	}
	if err := p.queue.Enqueue(payload, dest); err != nil {
		p.log.WithError(err).WithField("dest", dest).Warn("value not queued")
		return err
	}
	p.state.Pending++
	p.stats.Queued++
	return nil
}

// Acknowledge clears the in flight value. It is called on confirmation and
// on acknowledgment timeout alike.
func (p *Producer) Acknowledge() {
	if p.state.InFlight {
		p.stats.Acked++
	}
	p.state.InFlight = false
}

// Drain sends the queue head when nothing is in flight. It is called on
// every epoch tick and sends at most one value. It returns true when a value
// was accepted by the link.
//
// The head is kept when the link is busy and dropped on any other error.
func (p *Producer) Drain() bool {
	if p.state.InFlight || p.state.Pending == 0 || !p.state.Subscribed() {
		return false
	}
	dest, n, err := p.queue.Peek(p.buf[:])
	if err != nil {
		return false
	}
	err = p.link.Send(p.state.Conn, dest, p.buf[:n])
	if errors.Is(err, link.ErrBusy) {
		p.log.WithField("pending", p.state.Pending).Debug("link busy, retrying next tick")
		return false
	}
	if _, _, derr := p.queue.Dequeue(p.buf[:]); derr != nil {
		return false
	}
	p.state.Pending--
	if err != nil {
		p.stats.Dropped++
		p.log.WithError(err).WithField("dest", dest).Error("queued value dropped")
		return false
	}
	p.state.InFlight = true
	p.stats.Sent++
	return true
}

// Reset forgets everything queued or in flight. It is called when the link
// closes.
func (p *Producer) Reset() {
	p.queue.Reset()
	p.state.InFlight = false
	p.state.Pending = 0
}

// Len returns the queue occupancy.
func (p *Producer) Len() int {
	return p.queue.Len()
}

// Cap returns the queue capacity.
func (p *Producer) Cap() int {
	return p.queue.Cap()
}

// Stats returns the counters.
func (p *Producer) Stats() Stats {
	return p.stats
}
