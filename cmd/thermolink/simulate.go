// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"periph.io/x/conn/v3/physic"

	"github.com/GermanBionicSystems/thermolink/link"
	"github.com/GermanBionicSystems/thermolink/link/linktest"
	"github.com/GermanBionicSystems/thermolink/power"
	"github.com/GermanBionicSystems/thermolink/si7021"
	"github.com/GermanBionicSystems/thermolink/si7021/si7021test"
	"github.com/GermanBionicSystems/thermolink/signal"
	"github.com/GermanBionicSystems/thermolink/thermometer"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run the sampling loop on a simulated sensor and peer",
	Long: `Runs the complete loop against a simulated Si7021 and a peer that subscribes
right away and acknowledges every value. The temperature drifts by --step
each cycle.

Examples:
  thermolink simulate --cycles 5
  thermolink simulate --start 18.5 --step 0.25 --log-level debug`,
	Args: cobra.NoArgs,
	RunE: runSimulate,
}

var (
	simCycles int
	simStart  float64
	simStep   float64
)

func init() {
	simulateCmd.Flags().IntVar(&simCycles, "cycles", 0, "Stop after this many measurements; 0 runs until interrupted")
	simulateCmd.Flags().Float64Var(&simStart, "start", 21.5, "Initial temperature in °C")
	simulateCmd.Flags().Float64Var(&simStep, "step", 0.1, "Temperature change per cycle in °C")
}

func celsius(c float64) physic.Temperature {
	return physic.ZeroCelsius + physic.Temperature(c*float64(physic.Kelvin))
}

func runSimulate(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	bridge := signal.New()
	bus := si7021test.New(celsius(simStart))
	dev, err := si7021.NewI2C(bus, bridge, &si7021.Opts{Checksum: cfg.Sensor.Checksum})
	if err != nil {
		return err
	}
	peer := linktest.New(0)
	peer.AutoConfirm = true

	core, err := thermometer.New(dev, peer, bridge, &thermometer.Opts{
		Period:        cfg.Timing.Epoch,
		Warmup:        cfg.Timing.Warmup,
		Conversion:    cfg.Timing.Conversion,
		QueueCapacity: cfg.Queue.Capacity,
		Power:         power.New(log, nil),
		Log:           log,
	})
	if err != nil {
		return err
	}
	panel, err := newPanel(cfg)
	if err != nil {
		return err
	}

	ctx, stop := ossignal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	peer.Open(1)
	peer.Subscribe(1, link.Temperature)
	peer.Subscribe(1, link.Button)

	done := make(chan error, 1)
	go func() { done <- core.Run(ctx) }()

	out := cmd.OutOrStdout()
	temp := simStart
	for n := 0; simCycles == 0 || n < simCycles; n++ {
		select {
		case err := <-done:
			return err
		case m := <-core.Measurements():
			if panel != nil {
				if err := panel.Measurement(m); err != nil {
					log.WithError(err).Warn("display refresh failed")
				}
			} else {
				fmt.Fprintf(out, "%s %s\n", m.At.Format(time.TimeOnly), m)
			}
			log.WithFields(logrus.Fields{"session": core.SessionState(), "uptime": core.Uptime()}).Debug("cycle done")
			temp += simStep
			bus.SetTemperature(celsius(temp))
		}
	}
	cancel()
	<-done
	if panel != nil {
		if err := panel.Halt(); err != nil {
			log.WithError(err).Warn("display halt failed")
		}
	}
	fmt.Fprintf(out, "%d values acknowledged\n", peer.SentTo(link.Temperature))
	return nil
}
