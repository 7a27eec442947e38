// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestSimulate(t *testing.T) {
	path := writeConfig(t, "log_level: error\ntiming:\n  epoch: 150ms\n  warmup: 5ms\n  conversion: 2ms\n")
	out, err := execute(t, "simulate", "--config", path, "--cycles", "2", "--start", "20")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3, out)
	assert.Contains(t, lines[0], "°C")
	assert.Contains(t, lines[2], "values acknowledged")
}

func TestLoadConfig_Invalid(t *testing.T) {
	path := writeConfig(t, "queue:\n  capacity: 0\n")
	_, err := execute(t, "simulate", "--config", path, "--cycles", "1")
	assert.ErrorContains(t, err, "queue.capacity")

	_, err = execute(t, "simulate", "--log-level", "loud", "--cycles", "1")
	assert.ErrorContains(t, err, "log_level")
}
