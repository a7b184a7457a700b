// Copyright 2026 The Learningbuilding Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package camera

import (
	"context"
	"errors"

	"github.com/skybluego123/Learningbuilding/thermal"
)

var (
	// ErrConnectFailure is returned when the camera could not be reached. The
	// pipeline is back to Idle.
	ErrConnectFailure = errors.New("camera: connection failed")
	// ErrAlreadyConnected is returned when a camera is already connecting,
	// connected or streaming. Nothing changed.
	ErrAlreadyConnected = errors.New("camera: already connected")
	// ErrNoCameraAvailable is returned when connecting without an identity.
	ErrNoCameraAvailable = errors.New("camera: no camera available")
	// ErrInvalidTransition is returned when an operation is not permitted in
	// the current state.
	ErrInvalidTransition = errors.New("camera: invalid state transition")
	// ErrPermissionDenied is returned when the user refused USB access to a
	// physical camera.
	ErrPermissionDenied = errors.New("camera: permission denied")
)

// FrameFunc is called by the camera on its own goroutine for each frame.
//
// raw is only valid until FrameFunc returns.
type FrameFunc func(raw thermal.RawFrame)

// DisconnectFunc is called by the camera when the connection is lost without
// Disconnect being called.
type DisconnectFunc func(err error)

// Camera is a single thermal camera as exposed by the vendor SDK. This
// interface can be mocked, see package cameratest.
type Camera interface {
	// Connect opens the connection to id. It blocks until the camera is
	// connected or the connection failed.
	Connect(ctx context.Context, id Identity, lost DisconnectFunc) error
	// Disconnect closes the connection.
	Disconnect() error
	// Subscribe starts the stream. fn is called on the camera's goroutine for
	// each frame until UnsubscribeAll, never from within Subscribe.
	Subscribe(fn FrameFunc) error
	// UnsubscribeAll stops all streams. It returns once no FrameFunc call is in
	// flight.
	UnsubscribeAll() error
	// IsGrabbing returns true while a stream is active.
	IsGrabbing() bool
}

// Discoverer scans the communication interfaces for cameras.
type Discoverer interface {
	// Scan starts scanning in the background. found is called for each camera
	// discovered, failed for each interface that could not be scanned. Both are
	// called from another goroutine, never from within Scan.
	Scan(found func(Identity), failed func(CommunicationInterface, error), ifaces ...CommunicationInterface) error
	// Stop stops scanning. It is fine to call it when not scanning.
	Stop(ifaces ...CommunicationInterface) error
}

// PermissionRequester negotiates access to a physical USB camera with the
// user.
type PermissionRequester interface {
	// HasPermission returns true if access to id was already granted.
	HasPermission(id Identity) bool
	// RequestPermission blocks until the user answered. It returns nil when
	// granted and an error wrapping ErrPermissionDenied when refused. Any other
	// error means the request itself failed.
	RequestPermission(ctx context.Context, id Identity) error
}
