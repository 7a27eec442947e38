// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package thermolink is a container for the packages of a temperature to
// Bluetooth bridge.
//
// A Si7021 sensor is sampled once per epoch by a non-blocking state machine
// (sampler) driven by signals (signal) from a tick source (tick), the bus
// driver (si7021) and a push button (button). Measurements are pushed to the
// connected peer (link) by an indication producer (indication) that keeps at
// most one value awaiting acknowledgment. The thermometer package runs the
// event loop; cmd/thermolink wires it to real or simulated hardware.
package thermolink
