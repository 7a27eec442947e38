// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package readout shows the last measurement and the link state on any
// display.Drawer.
//
// Panel renders the text with the Go regular font. Terminal is a
// display.Drawer that prints an image to a terminal using ANSI 256 color
// blocks, useful while the real panel is not wired.
package readout
