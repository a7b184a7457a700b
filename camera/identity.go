// Copyright 2026 The Learningbuilding Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package camera manages the connection to a single thermal camera and feeds
// its frames into a thermal.FrameQueue.
//
// The vendor SDK is abstracted by Camera, Discoverer and PermissionRequester.
package camera

import (
	"fmt"
	"strings"
)

// CommunicationInterface is the transport used to reach a camera.
type CommunicationInterface uint8

// Valid values for CommunicationInterface.
const (
	USB CommunicationInterface = iota
	Network
	Emulator
)

func (c CommunicationInterface) String() string {
	switch c {
	case USB:
		return "USB"
	case Network:
		return "Network"
	case Emulator:
		return "Emulator"
	default:
		return fmt.Sprintf("CommunicationInterface(%d)", c)
	}
}

// DeviceClass tells a physical camera from the SDK's emulators.
type DeviceClass uint8

// Valid values for DeviceClass.
const (
	Physical DeviceClass = iota
	EmulatorCpp
	EmulatorFlirOne
)

func (d DeviceClass) String() string {
	switch d {
	case Physical:
		return "Physical"
	case EmulatorCpp:
		return "EmulatorCpp"
	case EmulatorFlirOne:
		return "EmulatorFlirOne"
	default:
		return fmt.Sprintf("DeviceClass(%d)", d)
	}
}

// Descriptor substrings the SDK puts in the emulators' device ID.
const (
	cppEmulatorTag     = "C++ Emulator"
	flirOneEmulatorTag = "EMULATED FLIR ONE"
)

// Identity is a camera found by a Discoverer.
type Identity struct {
	DeviceID  string
	Interface CommunicationInterface
}

// Class derives the device class from the device ID.
func (i Identity) Class() DeviceClass {
	switch {
	case strings.Contains(i.DeviceID, cppEmulatorTag):
		return EmulatorCpp
	case strings.Contains(i.DeviceID, flirOneEmulatorTag):
		return EmulatorFlirOne
	default:
		return Physical
	}
}

func (i Identity) String() string {
	return fmt.Sprintf("%s (%s, %s)", i.DeviceID, i.Interface, i.Class())
}
