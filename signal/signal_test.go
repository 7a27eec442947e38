// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package signal

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignal_Each(t *testing.T) {
	var got []Signal
	(TransferFailed | Epoch | ButtonChanged).Each(func(s Signal) {
		got = append(got, s)
	})
	assert.Equal(t, []Signal{Epoch, TransferFailed, ButtonChanged}, got)

	called := false
	Signal(0).Each(func(Signal) { called = true })
	assert.False(t, called)
}

func TestSignal_String(t *testing.T) {
	assert.Equal(t, "None", Signal(0).String())
	assert.Equal(t, "Epoch", Epoch.String())
	assert.Equal(t, "DelayElapsed|TransferComplete", (TransferComplete | DelayElapsed).String())
	assert.Equal(t, "Signal(bit31)", Signal(1<<31).String())
}

func TestSignal_Has(t *testing.T) {
	s := Epoch | DelayElapsed
	assert.True(t, s.Has(Epoch))
	assert.True(t, s.Has(Epoch|DelayElapsed))
	assert.False(t, s.Has(TransferComplete))
	assert.False(t, s.Has(0))
	assert.Equal(t, 5, All.Count())
}

func TestBridge_PostTake(t *testing.T) {
	b := New()
	assert.Equal(t, Signal(0), b.Take())

	b.Post(Epoch)
	b.Post(TransferComplete)
	b.Post(0)

	select {
	case <-b.Wake():
	default:
		t.Fatal("expected a wake-up after Post")
	}
	assert.Equal(t, Epoch|TransferComplete, b.Pending())
	assert.Equal(t, Epoch|TransferComplete, b.Take())
	assert.Equal(t, Signal(0), b.Take())

	posted, consumed := b.Stats()
	assert.Equal(t, uint64(2), posted)
	assert.Equal(t, uint64(2), consumed)
}

func TestBridge_Coalesces(t *testing.T) {
	b := New()
	b.Post(Epoch)
	b.Post(Epoch)
	assert.Equal(t, Epoch, b.Take())
	posted, consumed := b.Stats()
	assert.Equal(t, uint64(2), posted)
	assert.Equal(t, uint64(1), consumed)
}

func TestBridge_PostNeverBlocks(t *testing.T) {
	b := New()
	done := make(chan struct{})
	go func() {
		for range 1000 {
			b.Post(DelayElapsed)
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Post blocked without a consumer")
	}
}

// Every producer posts its own bit and waits until the loop has seen it
// before posting again, so nothing may coalesce and every round trip must
// complete while the consumer concurrently swaps the word.
func TestBridge_ConcurrentNoLoss(t *testing.T) {
	const rounds = 500
	b := New()
	sources := []Signal{Epoch, DelayElapsed, TransferComplete, TransferFailed, ButtonChanged}
	acks := make(map[Signal]chan struct{}, len(sources))
	for _, s := range sources {
		acks[s] = make(chan struct{}, 1)
	}

	counts := make(map[Signal]int, len(sources))
	stop := make(chan struct{})
	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		for {
			select {
			case <-stop:
				return
			case <-b.Wake():
				b.Take().Each(func(s Signal) {
					counts[s]++
					acks[s] <- struct{}{}
				})
			}
		}
	}()

	var wg sync.WaitGroup
	for _, s := range sources {
		wg.Add(1)
		go func(s Signal) {
			defer wg.Done()
			for range rounds {
				b.Post(s)
				<-acks[s]
			}
		}(s)
	}
	wg.Wait()
	close(stop)
	<-loopDone

	for _, s := range sources {
		require.Equal(t, rounds, counts[s], "signal %s", s)
	}
	assert.Equal(t, Signal(0), b.Pending())
}
