// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package thermometer ties the sampling FSM, the indication producer and the
// session state to one event loop.
//
// Hardware side sources (tick, bus transfers, button) only post signals to
// a signal.Bridge. Link events arrive in order on the link event channel.
// Core.Run consumes both on a single goroutine, which is the only one
// touching the FSM, the queue and the session.
//
// Sampling only runs while a peer is connected. Each epoch tick also sends
// the next queued value when nothing awaits acknowledgment.
package thermometer
