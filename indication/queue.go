// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package indication

import (
	"errors"
	"fmt"

	"github.com/GermanBionicSystems/thermolink/link"
)

// MaxPayloadSize is the largest payload an Entry can hold.
const MaxPayloadSize = 8

// DefaultCapacity is the queue capacity used when none is specified.
const DefaultCapacity = 16

var (
	// ErrFull is returned when enqueueing into a full Queue.
	ErrFull = errors.New("indication: queue full")
	// ErrEmpty is returned when reading from an empty Queue.
	ErrEmpty = errors.New("indication: queue empty")
	// ErrTooLarge is returned for payloads above MaxPayloadSize.
	ErrTooLarge = fmt.Errorf("indication: payload larger than %d bytes", MaxPayloadSize)
)

// Entry is one queued value.
type Entry struct {
	Payload [MaxPayloadSize]byte
	Len     int
	Dest    link.Handle
}

// Bytes returns the used part of the payload.
func (e *Entry) Bytes() []byte {
	return e.Payload[:e.Len]
}

// Queue is a fixed capacity FIFO of Entry.
//
// write == read means empty unless full is set.
//
// It is not safe for concurrent use.
type Queue struct {
	entries []Entry
	read    int
	write   int
	full    bool
}

// NewQueue returns a Queue holding up to capacity entries. A capacity below
// 1 selects DefaultCapacity.
func NewQueue(capacity int) *Queue {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &Queue{entries: make([]Entry, capacity)}
}

// Enqueue copies payload at the tail.
func (q *Queue) Enqueue(payload []byte, dest link.Handle) error {
	if len(payload) > MaxPayloadSize {
		return ErrTooLarge
	}
	if q.full {
		return ErrFull
	}
	e := &q.entries[q.write]
	e.Len = copy(e.Payload[:], payload)
	e.Dest = dest
	q.write = q.next(q.write)
	q.full = q.write == q.read
	return nil
}

// Peek copies the head payload into out without removing it. It returns the
// destination and the payload length.
func (q *Queue) Peek(out []byte) (link.Handle, int, error) {
	if q.empty() {
		return 0, 0, ErrEmpty
	}
	e := &q.entries[q.read]
	return e.Dest, copy(out, e.Bytes()), nil
}

// Dequeue is Peek followed by the removal of the head.
func (q *Queue) Dequeue(out []byte) (link.Handle, int, error) {
	dest, n, err := q.Peek(out)
	if err != nil {
		return 0, 0, err
	}
	q.read = q.next(q.read)
	q.full = false
	return dest, n, nil
}

// Len returns the number of queued entries.
func (q *Queue) Len() int {
	if q.full {
		return len(q.entries)
	}
	if q.write >= q.read {
		return q.write - q.read
	}
	return len(q.entries) - q.read + q.write
}

// Cap returns the capacity.
func (q *Queue) Cap() int {
	return len(q.entries)
}

// Reset empties the queue.
func (q *Queue) Reset() {
	q.read = 0
	q.write = 0
	q.full = false
}

func (q *Queue) empty() bool {
	return q.read == q.write && !q.full
}

func (q *Queue) next(i int) int {
	if i++; i == len(q.entries) {
		return 0
	}
	return i
}
