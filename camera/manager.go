// Copyright 2026 The Learningbuilding Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package camera

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
)

// Manager is the entry point used by the UI: it picks a camera from the
// registry, negotiates USB permission and starts streaming.
type Manager struct {
	p    *Pipeline
	perm PermissionRequester
}

// NewManager returns a Manager over p. perm may be nil when no physical camera
// can be attached, e.g. with the emulator.
func NewManager(p *Pipeline, perm PermissionRequester) *Manager {
	return &Manager{p: p, perm: perm}
}

// Pipeline returns the underlying pipeline.
func (m *Manager) Pipeline() *Pipeline {
	return m.p
}

// Status returns the pipeline status.
func (m *Manager) Status() Status {
	return m.p.Status()
}

// Cameras returns the cameras found so far.
func (m *Manager) Cameras() []Identity {
	return m.p.Registry().List()
}

// StartDiscovery starts scanning for cameras.
func (m *Manager) StartDiscovery() error {
	return m.p.StartDiscovery()
}

// StopDiscovery stops scanning for cameras.
func (m *Manager) StopDiscovery() error {
	return m.p.StopDiscovery()
}

// Connect stops discovery, connects to id and starts streaming.
//
// A physical camera goes through the PermissionRequester first. A refusal or a
// failed request leaves the pipeline Idle.
func (m *Manager) Connect(ctx context.Context, id *Identity) error {
	if id == nil || m.p.State().busy() {
		// Let the pipeline reject it and report the status.
		return m.p.Connect(ctx, id)
	}
	if err := m.p.StopDiscovery(); err != nil {
		return err
	}
	if id.Class() == Physical && m.perm != nil && !m.perm.HasPermission(*id) {
		log.Info().Str("device_id", id.DeviceID).Msg("requesting permission")
		if err := m.perm.RequestPermission(ctx, *id); err != nil {
			if errors.Is(err, ErrPermissionDenied) {
				m.p.report("Permission was denied for identity " + id.DeviceID)
				return err
			}
			m.p.report(fmt.Sprintf("Error when asking for permission for FLIR ONE, error: %v identity: %s", err, id.DeviceID))
			return fmt.Errorf("camera: permission request: %w", err)
		}
	}
	if err := m.p.Connect(ctx, id); err != nil {
		return err
	}
	if err := m.p.Subscribe(); err != nil {
		// Leave no half open connection behind.
		if derr := m.p.Disconnect(); derr != nil {
			log.Warn().Err(derr).Msg("disconnect after failed subscribe")
		}
		return err
	}
	return nil
}

// ConnectPhysical connects to the first physical camera found.
func (m *Manager) ConnectPhysical(ctx context.Context) error {
	return m.connectFound(ctx, m.p.Registry().FindPhysical)
}

// ConnectEmulatorCpp connects to the first C++ emulator found.
func (m *Manager) ConnectEmulatorCpp(ctx context.Context) error {
	return m.connectFound(ctx, m.p.Registry().FindEmulatorCpp)
}

// ConnectEmulatorFlirOne connects to the first FLIR ONE emulator found.
func (m *Manager) ConnectEmulatorFlirOne(ctx context.Context) error {
	return m.connectFound(ctx, m.p.Registry().FindEmulatorFlirOne)
}

func (m *Manager) connectFound(ctx context.Context, find func() (Identity, bool)) error {
	id, ok := find()
	if !ok {
		return m.Connect(ctx, nil)
	}
	return m.Connect(ctx, &id)
}

// Disconnect stops streaming and disconnects.
func (m *Manager) Disconnect() error {
	return m.p.Disconnect()
}
