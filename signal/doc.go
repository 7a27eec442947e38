// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package signal bridges hardware events into the application event loop.
//
// Each event source owns one bit of a shared word. Producers (timer
// callbacks, bus completion, GPIO edge watchers) set their bit with an
// atomic OR and nudge a one slot wake channel; they never block and never
// take a lock. The event loop swaps the word to zero in a single atomic
// operation and dispatches every raised bit individually, so a signal can
// neither be dispatched twice nor be lost between the check and the clear.
//
// Posting the same bit again before the loop consumed it coalesces, exactly
// like a pending interrupt flag.
package signal
