// Copyright 2026 The Learningbuilding Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package camera

import "sync"

// Registry holds the cameras found during a discovery session, in discovery
// order.
type Registry struct {
	mu  sync.Mutex
	ids []Identity
}

// Add appends id. A camera reported twice is only kept once.
func (r *Registry) Add(id Identity) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.ids {
		if e == id {
			return false
		}
	}
	r.ids = append(r.ids, id)
	return true
}

// Clear forgets all cameras.
func (r *Registry) Clear() {
	r.mu.Lock()
	r.ids = nil
	r.mu.Unlock()
}

// Len returns the number of cameras.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.ids)
}

// List returns a copy of the cameras.
func (r *Registry) List() []Identity {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Identity(nil), r.ids...)
}

// Get returns the i-th camera.
func (r *Registry) Get(i int) (Identity, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i < 0 || i >= len(r.ids) {
		return Identity{}, false
	}
	return r.ids[i], true
}

// FindPhysical returns the first real camera.
func (r *Registry) FindPhysical() (Identity, bool) {
	return r.find(Physical)
}

// FindEmulatorCpp returns the first C++ emulator.
func (r *Registry) FindEmulatorCpp() (Identity, bool) {
	return r.find(EmulatorCpp)
}

// FindEmulatorFlirOne returns the first FLIR ONE emulator.
func (r *Registry) FindEmulatorFlirOne() (Identity, bool) {
	return r.find(EmulatorFlirOne)
}

func (r *Registry) find(c DeviceClass) (Identity, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range r.ids {
		if id.Class() == c {
			return id, true
		}
	}
	return Identity{}, false
}
