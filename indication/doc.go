// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package indication serializes values pushed to the connected peer.
//
// At most one value is ever awaiting acknowledgment. Values submitted while
// one is in flight, or while the link is busy, wait in a fixed capacity FIFO
// Queue that is drained one entry per epoch tick.
//
// The Queue never overwrites: once full, new values are rejected with
// ErrFull and the oldest are preserved.
package indication
