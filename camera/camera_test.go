// Copyright 2026 The Learningbuilding Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package camera

import "testing"

func TestIdentity_Class(t *testing.T) {
	data := []struct {
		id   string
		want DeviceClass
	}{
		{"C++ Emulator", EmulatorCpp},
		{"FLIR C++ Emulator #2", EmulatorCpp},
		{"EMULATED FLIR ONE", EmulatorFlirOne},
		{"EMULATED FLIR ONE Pro", EmulatorFlirOne},
		{"emulated flir one", Physical},
		{"FLIR ONE Edge", Physical},
		{"", Physical},
	}
	for i, line := range data {
		if got := (Identity{DeviceID: line.id}).Class(); got != line.want {
			t.Fatalf("%d: %q: %s, want %s", i, line.id, got, line.want)
		}
	}
}

func TestRegistry(t *testing.T) {
	r := Registry{}
	if _, ok := r.FindPhysical(); ok {
		t.Fatal("empty")
	}
	cpp := Identity{DeviceID: "C++ Emulator", Interface: Emulator}
	one := Identity{DeviceID: "EMULATED FLIR ONE", Interface: Emulator}
	usb1 := Identity{DeviceID: "FLIR ONE 1", Interface: USB}
	usb2 := Identity{DeviceID: "FLIR ONE 2", Interface: USB}
	for _, id := range []Identity{cpp, usb1, one, usb2} {
		if !r.Add(id) {
			t.Fatal(id)
		}
	}
	if r.Add(usb1) {
		t.Fatal("duplicate")
	}
	if id, ok := r.FindPhysical(); !ok || id != usb1 {
		t.Fatal(id)
	}
	if id, ok := r.FindEmulatorCpp(); !ok || id != cpp {
		t.Fatal(id)
	}
	if id, ok := r.FindEmulatorFlirOne(); !ok || id != one {
		t.Fatal(id)
	}
	l := r.List()
	if len(l) != 4 || l[0] != cpp || l[3] != usb2 {
		t.Fatal(l)
	}
	l[0] = Identity{}
	if id, _ := r.Get(0); id != cpp {
		t.Fatal("List must return a copy")
	}
	if _, ok := r.Get(4); ok {
		t.Fatal("out of range")
	}
	r.Clear()
	if r.Len() != 0 {
		t.Fatal(r.Len())
	}
	if _, ok := r.FindEmulatorCpp(); ok {
		t.Fatal("cleared")
	}
}

func TestState_String(t *testing.T) {
	if s := Streaming.String(); s != "Streaming" {
		t.Fatal(s)
	}
	if s := stateMessage(Disconnected); s != "DISCONNECTED" {
		t.Fatal(s)
	}
	if s := State(42).String(); s != "State(42)" {
		t.Fatal(s)
	}
}
