// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.
//
// si7021 provides a package for interfacing a Silicon Labs Si7021 I2C
// temperature and humidity sensor. Only the temperature is read. The
// Si7013, Si7020 and HTU21D share the command set.
//
// Range: -10°C - 85°C
//
// Accuracy: +/- 0.4°C
//
// Resolution: 0.01°C (14 bit)
//
// The driver offers two ways to read the sensor. Sense blocks for the whole
// power up and conversion sequence. StartWrite and StartRead run a single
// bus transaction in the background and post its completion to a
// signal.Poster, so a caller can sequence a measurement without blocking.
//
// For detailed information, refer to the [datasheet].
//
// [datasheet]: https://www.silabs.com/documents/public/data-sheets/Si7021-A20.pdf
package si7021
