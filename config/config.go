// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package config loads the thermolink YAML configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/GermanBionicSystems/thermolink/indication"
	"github.com/GermanBionicSystems/thermolink/sampler"
	"github.com/GermanBionicSystems/thermolink/si7021"
	"github.com/GermanBionicSystems/thermolink/tick"
)

// Config holds all application configuration.
type Config struct {
	LogLevel string        `yaml:"log_level"`
	I2C      I2CConfig     `yaml:"i2c"`
	Sensor   SensorConfig  `yaml:"sensor"`
	Button   ButtonConfig  `yaml:"button"`
	Timing   TimingConfig  `yaml:"timing"`
	Queue    QueueConfig   `yaml:"queue"`
	Link     LinkConfig    `yaml:"link"`
	Display  DisplayConfig `yaml:"display"`
}

// I2CConfig selects the bus. An empty Bus picks the first one.
type I2CConfig struct {
	Bus     string `yaml:"bus"`
	Address uint16 `yaml:"address"`
}

// SensorConfig holds sensor wiring.
type SensorConfig struct {
	PowerPin string `yaml:"power_pin"` // empty when always powered
	Checksum bool   `yaml:"checksum"`
}

// ButtonConfig holds the push button wiring. An empty Pin disables it.
type ButtonConfig struct {
	Pin        string `yaml:"pin"`
	ActiveHigh bool   `yaml:"active_high"`
}

// TimingConfig holds the sampling periods, as Go duration strings.
type TimingConfig struct {
	Epoch      time.Duration `yaml:"epoch"`
	Warmup     time.Duration `yaml:"warmup"`
	Conversion time.Duration `yaml:"conversion"`
}

// QueueConfig sizes the indication queue.
type QueueConfig struct {
	Capacity int `yaml:"capacity"`
}

// LinkConfig holds radio settings.
type LinkConfig struct {
	Name string `yaml:"name"`
}

// DisplayConfig sizes the readout. Terminal prints it to stdout.
type DisplayConfig struct {
	Width    int  `yaml:"width"`
	Height   int  `yaml:"height"`
	Terminal bool `yaml:"terminal"`
}

// Default returns a Config with the datasheet timings.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		I2C:      I2CConfig{Address: si7021.DefaultAddress},
		Sensor:   SensorConfig{Checksum: true},
		Timing: TimingConfig{
			Epoch:      tick.DefaultPeriod,
			Warmup:     sampler.DefaultWarmup,
			Conversion: sampler.DefaultConversion,
		},
		Queue:   QueueConfig{Capacity: indication.DefaultCapacity},
		Link:    LinkConfig{Name: "thermolink"},
		Display: DisplayConfig{Width: 64, Height: 24},
	}
}

// Load reads and parses a YAML config file. Missing fields keep their
// defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	return cfg, nil
}

// Validate checks the config for invalid values.
func (c *Config) Validate() error {
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	if c.I2C.Address == 0 || c.I2C.Address > 0x7f {
		return fmt.Errorf("i2c.address must be a 7 bit address, got %#x", c.I2C.Address)
	}
	if c.Timing.Epoch <= 0 {
		return fmt.Errorf("timing.epoch must be > 0, got %s", c.Timing.Epoch)
	}
	if c.Timing.Warmup < 0 || c.Timing.Conversion < 0 {
		return fmt.Errorf("timing.warmup and timing.conversion must be >= 0")
	}
	if c.Timing.Warmup+c.Timing.Conversion >= c.Timing.Epoch {
		return fmt.Errorf("timing.warmup + timing.conversion must be shorter than timing.epoch")
	}
	if c.Queue.Capacity < 1 {
		return fmt.Errorf("queue.capacity must be >= 1, got %d", c.Queue.Capacity)
	}
	if c.Link.Name == "" {
		return fmt.Errorf("link.name must not be empty")
	}
	if c.Display.Width < 1 || c.Display.Height < 1 {
		return fmt.Errorf("display size must be positive, got %dx%d", c.Display.Width, c.Display.Height)
	}
	return nil
}

// NewLogger creates a configured logger instance.
func (c *Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})
	return logger
}
