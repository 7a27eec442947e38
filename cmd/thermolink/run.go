// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	ossignal "os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
	"tinygo.org/x/bluetooth"

	"github.com/GermanBionicSystems/thermolink/button"
	"github.com/GermanBionicSystems/thermolink/link/ble"
	"github.com/GermanBionicSystems/thermolink/power"
	"github.com/GermanBionicSystems/thermolink/si7021"
	"github.com/GermanBionicSystems/thermolink/signal"
	"github.com/GermanBionicSystems/thermolink/thermometer"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Sample the sensor and serve the measurements over Bluetooth",
	Args:  cobra.NoArgs,
	RunE:  runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
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

	var pwr gpio.PinIO
	if cfg.Sensor.PowerPin != "" {
		if pwr = gpioreg.ByName(cfg.Sensor.PowerPin); pwr == nil {
			return fmt.Errorf("no such pin %q", cfg.Sensor.PowerPin)
		}
	}
	bridge := signal.New()
	opts := &si7021.Opts{Addr: cfg.I2C.Address, Checksum: cfg.Sensor.Checksum}
	if pwr != nil {
		opts.Power = pwr
	}
	dev, err := si7021.NewI2C(bus, bridge, opts)
	if err != nil {
		return err
	}
	defer dev.PowerOff()

	periph, err := ble.New(bluetooth.DefaultAdapter, &ble.Opts{Name: cfg.Link.Name, Log: log})
	if err != nil {
		return err
	}

	pm := power.New(log, func(m power.Mode) {
		log.WithField("mode", m).Debug("power mode")
	})
	coreOpts := &thermometer.Opts{
		Period:        cfg.Timing.Epoch,
		Warmup:        cfg.Timing.Warmup,
		Conversion:    cfg.Timing.Conversion,
		QueueCapacity: cfg.Queue.Capacity,
		Power:         pm,
		Log:           log,
	}
	var btn *button.Watcher
	if cfg.Button.Pin != "" {
		if btn, err = newButton(cfg.Button.Pin, cfg.Button.ActiveHigh, bridge); err != nil {
			return err
		}
		coreOpts.Button = btn
	}
	core, err := thermometer.New(dev, periph, bridge, coreOpts)
	if err != nil {
		return err
	}

	ctx, stop := ossignal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if btn != nil {
		go func() {
			if err := btn.Run(ctx); err != nil && ctx.Err() == nil {
				log.WithError(err).Error("button watcher stopped")
			}
		}()
	}
	panel, err := newPanel(cfg)
	if err != nil {
		return err
	}
	go refresh(ctx, core, panel, log)

	log.WithFields(logrus.Fields{"sensor": dev, "link": periph}).Info("starting")
	return core.Run(ctx)
}

func newButton(name string, activeHigh bool, p signal.Poster) (*button.Watcher, error) {
	pin := gpioreg.ByName(name)
	if pin == nil {
		return nil, fmt.Errorf("no such pin %q", name)
	}
	return button.New(pin, p, &button.Opts{ActiveHigh: activeHigh})
}
