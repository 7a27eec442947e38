// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package power

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
)

func TestManager(t *testing.T) {
	var modes []Mode
	m := New(nil, func(md Mode) { modes = append(modes, md) })
	assert.Equal(t, Low, m.Mode())

	m.Raise()
	m.Raise()
	assert.Equal(t, High, m.Mode())
	assert.Equal(t, 2, m.Outstanding())

	m.Lower()
	assert.Equal(t, High, m.Mode())
	m.Lower()
	assert.Equal(t, Low, m.Mode())

	assert.Equal(t, []Mode{High, Low}, modes)
	assert.Equal(t, uint64(2), m.Raises())
	assert.Equal(t, "high", High.String())
	assert.Equal(t, "low", Low.String())
}

func TestManager_Unbalanced(t *testing.T) {
	log, hook := test.NewNullLogger()
	m := New(log, nil)
	m.Lower()
	assert.Equal(t, 0, m.Outstanding())
	if assert.Len(t, hook.Entries, 1) {
		assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	}
}
