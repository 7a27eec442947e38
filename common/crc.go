// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package common contains functions used across multiple packages. For
// example, the CRC8 calculation used by the sensor checksum byte.
package common

// Polynomial for p(x) = x^8 + x^5 + x^4 + 1, shared by the Silicon Labs and
// Sensirion humidity/temperature sensors.
const crc8Polynomial byte = 0x31

// CRC8 calculates the 8-bit CRC of bytes starting from seed. Sensirion
// parts seed with 0xff, the Si70xx family with 0x00.
func CRC8(seed byte, bytes []byte) byte {
	crc := seed
	for _, val := range bytes {
		crc ^= val
		for range 8 {
			if (crc & 0x80) == 0 {
				crc <<= 1
			} else {
				crc = (crc << 1) ^ crc8Polynomial
			}
		}
	}
	return crc
}
