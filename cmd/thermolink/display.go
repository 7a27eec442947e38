// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/GermanBionicSystems/thermolink/config"
	"github.com/GermanBionicSystems/thermolink/readout"
	"github.com/GermanBionicSystems/thermolink/thermometer"
)

// newPanel returns the terminal readout, or nil when disabled.
func newPanel(cfg *config.Config) (*readout.Panel, error) {
	if !cfg.Display.Terminal {
		return nil, nil
	}
	term, err := readout.NewTerminal(&readout.TerminalOpts{W: cfg.Display.Width, H: cfg.Display.Height})
	if err != nil {
		return nil, err
	}
	return readout.NewPanel(term, nil)
}

// refresh redraws p on every measurement and session change until ctx is
// done. A nil panel only drains the streams.
func refresh(ctx context.Context, core *thermometer.Core, p *readout.Panel, log logrus.FieldLogger) {
	for {
		var err error
		select {
		case <-ctx.Done():
			if p != nil {
				if err := p.Halt(); err != nil {
					log.WithError(err).Warn("display halt failed")
				}
			}
			return
		case m := <-core.Measurements():
			if p != nil {
				err = p.Measurement(m)
			}
		case s := <-core.Sessions():
			if p != nil {
				err = p.Session(s, core.Uptime())
			}
		}
		if err != nil {
			log.WithError(err).Warn("display refresh failed")
		}
	}
}
