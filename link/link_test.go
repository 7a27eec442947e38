// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package link

import "testing"

func TestKind_String(t *testing.T) {
	tests := []struct {
		k    Kind
		want string
	}{
		{Opened, "Opened"},
		{Closed, "Closed"},
		{NotificationsEnabled, "NotificationsEnabled"},
		{NotificationsDisabled, "NotificationsDisabled"},
		{Confirmed, "Confirmed"},
		{IndicationTimeout, "IndicationTimeout"},
		{Kind(42), "Kind(42)"},
	}
	for _, tt := range tests {
		if got := tt.k.String(); got != tt.want {
			t.Errorf("Kind(%d).String() = %q, want %q", uint8(tt.k), got, tt.want)
		}
	}
}

func TestEvent_String(t *testing.T) {
	e := Event{Kind: Confirmed, Conn: 1, Handle: Temperature}
	if got, want := e.String(), "Confirmed{conn:1 handle:1}"; got != want {
		t.Errorf("Event.String() = %q, want %q", got, want)
	}
}
