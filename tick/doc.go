// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package tick is the periodic countdown timer of the sampling loop.
//
// It raises two distinct conditions on a signal.Poster: a periodic
// signal.Epoch and a one-shot signal.DelayElapsed armed with ArmDelay. Time
// comes from a clockwork.Clock so tests can drive it with a fake clock.
//
// An armed delay cannot be cancelled. It always elapses and posts, even if
// nobody is interested anymore; consumers ignore stale signals.
package tick
