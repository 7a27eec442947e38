// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"

	"github.com/GermanBionicSystems/thermolink/si7021"
)

var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Read the sensor with blocking waits",
	Long: `Powers the sensor, waits for it to start, triggers one conversion and reads
it back, without the event loop. Useful to check the wiring.

Examples:
  thermolink sample
  thermolink sample --count 5 --interval 1s`,
	Args: cobra.NoArgs,
	RunE: runSample,
}

var (
	sampleCount    int
	sampleInterval time.Duration
)

func init() {
	sampleCmd.Flags().IntVar(&sampleCount, "count", 1, "Number of readings")
	sampleCmd.Flags().DurationVar(&sampleInterval, "interval", time.Second, "Delay between readings")
}

func runSample(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("host init: %w", err)
	}
	bus, err := i2creg.Open(cfg.I2C.Bus)
	if err != nil {
		return fmt.Errorf("failed to open I²C: %w", err)
	}
	defer bus.Close()

	opts := &si7021.Opts{
		Addr:           cfg.I2C.Address,
		Checksum:       cfg.Sensor.Checksum,
		PowerUpTime:    cfg.Timing.Warmup,
		ConversionTime: cfg.Timing.Conversion,
	}
	if cfg.Sensor.PowerPin != "" {
		pin := gpioreg.ByName(cfg.Sensor.PowerPin)
		if pin == nil {
			return fmt.Errorf("no such pin %q", cfg.Sensor.PowerPin)
		}
		opts.Power = pin
	}
	dev, err := si7021.NewI2C(bus, nil, opts)
	if err != nil {
		return err
	}
	log.WithField("sensor", dev).Debug("sampling")

	for i := range sampleCount {
		if i > 0 {
			time.Sleep(sampleInterval)
		}
		env := physic.Env{}
		if err := dev.Sense(&env); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%8s\n", env.Temperature)
	}
	return nil
}
