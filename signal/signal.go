// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package signal

import (
	"math/bits"
	"strconv"
	"strings"
	"sync/atomic"
)

// Signal is a set of application signals, one bit per source.
type Signal uint32

const (
	// Epoch is the periodic tick that starts a sampling cycle and drains
	// the indication queue.
	Epoch Signal = 1 << iota
	// DelayElapsed is the one-shot tick armed for an explicit sub-period.
	DelayElapsed
	// TransferComplete is posted when a bus transaction succeeded.
	TransferComplete
	// TransferFailed is posted when a bus transaction failed.
	TransferFailed
	// ButtonChanged is posted when the push button level changed. The
	// level itself is read from the watcher, so a press and a release that
	// coalesce before the loop runs still leave the latest level visible.
	ButtonChanged

	// All is the union of every defined signal.
	All = Epoch | DelayElapsed | TransferComplete | TransferFailed | ButtonChanged
)

var names = [...]string{
	"Epoch",
	"DelayElapsed",
	"TransferComplete",
	"TransferFailed",
	"ButtonChanged",
}

// Has reports whether every bit of o is raised in s.
func (s Signal) Has(o Signal) bool {
	return o != 0 && s&o == o
}

// Each calls fn once per raised bit, lowest bit first.
func (s Signal) Each(fn func(Signal)) {
	for s != 0 {
		b := Signal(1) << bits.TrailingZeros32(uint32(s))
		s &^= b
		fn(b)
	}
}

// Count returns the number of raised bits.
func (s Signal) Count() int {
	return bits.OnesCount32(uint32(s))
}

func (s Signal) String() string {
	if s == 0 {
		return "None"
	}
	var parts []string
	s.Each(func(b Signal) {
		i := bits.TrailingZeros32(uint32(b))
		if i < len(names) {
			parts = append(parts, names[i])
		} else {
			parts = append(parts, "Signal(bit"+strconv.Itoa(i)+")")
		}
	})
	return strings.Join(parts, "|")
}

// Poster is implemented by anything signals can be posted to. Interrupt
// side code only ever depends on this.
type Poster interface {
	Post(s Signal)
}

// Bridge is the shared signal word between event sources and the loop.
//
// The zero value is not usable, use New.
type Bridge struct {
	word atomic.Uint32
	wake chan struct{}

	posted   atomic.Uint64
	consumed atomic.Uint64
}

// New returns an empty Bridge.
func New() *Bridge {
	return &Bridge{wake: make(chan struct{}, 1)}
}

// Post raises s. It is safe from any goroutine and never blocks.
func (b *Bridge) Post(s Signal) {
	if s == 0 {
		return
	}
	b.word.Or(uint32(s))
	b.posted.Add(1)
	select {
	case b.wake <- struct{}{}:
	default:
	}
}

// Wake returns the channel nudged after every Post. A receive does not
// consume any signal, call Take afterwards.
func (b *Bridge) Wake() <-chan struct{} {
	return b.wake
}

// Take atomically returns the raised signals and clears them.
func (b *Bridge) Take() Signal {
	s := Signal(b.word.Swap(0))
	if s != 0 {
		b.consumed.Add(uint64(s.Count()))
	}
	return s
}

// Pending returns the raised signals without clearing them.
func (b *Bridge) Pending() Signal {
	return Signal(b.word.Load())
}

// Stats returns how many Post calls were made and how many signal bits were
// handed to the loop. The difference is the number of coalesced posts.
func (b *Bridge) Stats() (posted, consumed uint64) {
	return b.posted.Load(), b.consumed.Load()
}

var _ Poster = &Bridge{}
