// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package si7021

import (
	"errors"
	"fmt"
)

// ErrBusy is returned when a transaction is started while another one runs.
var ErrBusy = errors.New("si7021: transfer in progress")

// ErrNoData is returned by Temperature before any successful read.
var ErrNoData = errors.New("si7021: no measurement read yet")

// ChecksumError is returned when the checksum byte does not match the data.
type ChecksumError struct {
	Got, Want byte
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("si7021: checksum mismatch, got %#02x want %#02x", e.Got, e.Want)
}
