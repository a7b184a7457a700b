// Copyright 2026 The Learningbuilding Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package camera

import (
	"fmt"
	"strings"
)

// State is the connection state of a Pipeline.
type State uint8

// Valid values for State.
//
// Disconnected is transient: the pipeline reports it once a connection ended,
// then settles in Idle.
const (
	Idle State = iota
	Discovering
	Connecting
	Connected
	Streaming
	Disconnecting
	Disconnected
)

var stateNames = [...]string{"Idle", "Discovering", "Connecting", "Connected", "Streaming", "Disconnecting", "Disconnected"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", s)
}

// busy returns true if a camera is attached in this state.
func (s State) busy() bool {
	return s == Connecting || s == Connected || s == Streaming
}

// Status is emitted on every state transition and on rejected operations.
type Status struct {
	State    State
	Identity *Identity // Camera involved, if any.
	Session  string    // Connection session ID, set while connected.
	Message  string    // User visible text, e.g. "DISCONNECTED".
}

func (s Status) String() string {
	if s.Identity == nil {
		return fmt.Sprintf("%s: %s", s.State, s.Message)
	}
	return fmt.Sprintf("%s: %s [%s]", s.State, s.Message, s.Identity.DeviceID)
}

// StatusFunc receives the pipeline's Status notifications. It is called with
// the pipeline lock held and must not call back into the Pipeline.
type StatusFunc func(Status)

func stateMessage(s State) string {
	return strings.ToUpper(s.String())
}
