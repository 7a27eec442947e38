// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package sampler sequences one temperature measurement per epoch.
//
// The FSM never waits. Each step arms a delay or starts a bus transaction
// and returns; the next step runs when the matching signal is handed to
// Handle:
//
//	Idle                  --Epoch-->            AwaitingWarmup
//	AwaitingWarmup        --DelayElapsed-->     AwaitingWriteComplete
//	AwaitingWriteComplete --TransferComplete--> AwaitingConversion
//	AwaitingConversion    --DelayElapsed-->     AwaitingReadComplete
//	AwaitingReadComplete  --TransferComplete--> Idle (Measurement emitted)
//
// Any other signal leaves the state unchanged. A failed transaction powers
// the sensor off and goes back to Idle.
package sampler
