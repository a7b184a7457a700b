// Copyright 2026 The Learningbuilding Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package cameratest implements a fake thermal camera SDK.
//
// It plays the role of the vendor's emulators: Discovery reports a C++
// emulator and a FLIR ONE emulator, Emulator streams synthetic frames.
package cameratest

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"periph.io/x/periph/conn/physic"

	"github.com/skybluego123/Learningbuilding/camera"
)

// Identities reported by Discovery by default.
var (
	CppEmulator     = camera.Identity{DeviceID: "C++ Emulator", Interface: camera.Emulator}
	FlirOneEmulator = camera.Identity{DeviceID: "EMULATED FLIR ONE", Interface: camera.Emulator}
	// FlirOne is a physical camera, only reported when added to
	// Discovery.Identities.
	FlirOne = camera.Identity{DeviceID: "FLIR ONE Edge Pro 0x1234", Interface: camera.USB}
)

// ErrNotConnected is returned when streaming without a connection.
var ErrNotConnected = errors.New("cameratest: not connected")

// Options configures an Emulator.
type Options struct {
	Size          image.Point        // Default: 80x60.
	FrameInterval time.Duration      // Default: 111ms, ~9Hz.
	Ambient       physic.Temperature // Default: 20°C.
	FailEvery     int                // Every nth frame fails to render; 0 disables.
	Seed          int64
}

// Emulator implements camera.Camera.
type Emulator struct {
	// ConnectErr, when set, is returned by Connect.
	ConnectErr error

	opts    Options
	ambient float64 // °C

	mu        sync.Mutex
	connected *camera.Identity
	lost      camera.DisconnectFunc
	stop      chan struct{}
	done      chan struct{} // Closed when the stream goroutine exits.
	noise     *noise
	seq       uint64
	delivered uint64
}

var _ camera.Camera = (*Emulator)(nil)

// New returns an emulated camera.
func New(opts Options) *Emulator {
	if opts.Size.X <= 0 || opts.Size.Y <= 0 {
		opts.Size = image.Pt(80, 60)
	}
	if opts.FrameInterval <= 0 {
		opts.FrameInterval = 111 * time.Millisecond
	}
	if opts.Ambient == 0 {
		opts.Ambient = physic.ZeroCelsius + 20*physic.Celsius
	}
	return &Emulator{
		opts:    opts,
		ambient: float64(opts.Ambient-physic.ZeroCelsius) / float64(physic.Kelvin),
		noise:   makeNoise(opts.Seed, opts.Size.X, opts.Size.Y),
	}
}

// Connect implements camera.Camera.
func (e *Emulator) Connect(ctx context.Context, id camera.Identity, lost camera.DisconnectFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if e.ConnectErr != nil {
		return e.ConnectErr
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.connected = &id
	e.lost = lost
	return nil
}

// Disconnect implements camera.Camera.
func (e *Emulator) Disconnect() error {
	if err := e.UnsubscribeAll(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.connected = nil
	e.lost = nil
	return nil
}

// Subscribe implements camera.Camera.
func (e *Emulator) Subscribe(fn camera.FrameFunc) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.connected == nil {
		return ErrNotConnected
	}
	if e.stop != nil {
		return errors.New("cameratest: already streaming")
	}
	e.stop = make(chan struct{})
	e.done = make(chan struct{})
	go e.stream(e.stop, e.done, fn)
	return nil
}

// UnsubscribeAll implements camera.Camera.
func (e *Emulator) UnsubscribeAll() error {
	e.mu.Lock()
	done := e.stopLocked()
	e.mu.Unlock()
	if done != nil {
		<-done
	}
	return nil
}

// IsGrabbing implements camera.Camera.
func (e *Emulator) IsGrabbing() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stop != nil
}

// Connected returns the identity the emulator is connected to.
func (e *Emulator) Connected() (camera.Identity, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.connected == nil {
		return camera.Identity{}, false
	}
	return *e.connected, true
}

// Delivered returns the number of frames handed to the callback.
func (e *Emulator) Delivered() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.delivered
}

// HousingTemperature returns the emulated camera body temperature.
func (e *Emulator) HousingTemperature() physic.Temperature {
	return e.opts.Ambient + 5*physic.Kelvin
}

// Unplug simulates the camera vanishing: the stream stops and the
// DisconnectFunc passed to Connect is called with err.
//
// The connection is gone and the stream told to stop before the notification;
// the frame callback may still be running at that point. A Connect made from
// the notification is left untouched.
func (e *Emulator) Unplug(err error) {
	e.mu.Lock()
	lost := e.lost
	e.lost = nil
	e.connected = nil
	done := e.stopLocked()
	e.mu.Unlock()
	if lost != nil {
		lost(err)
	}
	if done != nil {
		<-done
	}
}

// stopLocked signals the current stream to stop. It returns the channel
// closed once the stream goroutine exited, or nil if none was running.
func (e *Emulator) stopLocked() chan struct{} {
	if e.stop == nil {
		return nil
	}
	close(e.stop)
	done := e.done
	e.stop, e.done = nil, nil
	return done
}

// Grab renders the next frame. The caller must call Expire once done.
func (e *Emulator) Grab() *Frame {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.seq++
	e.noise.update()
	f := &Frame{
		Seq:    e.seq,
		w:      e.opts.Size.X,
		h:      e.opts.Size.Y,
		values: make([]float64, e.opts.Size.X*e.opts.Size.Y),
		fail:   e.opts.FailEvery > 0 && e.seq%uint64(e.opts.FailEvery) == 0,
	}
	e.noise.render(e.ambient, f.values)
	return f
}

func (e *Emulator) stream(stop <-chan struct{}, done chan<- struct{}, fn camera.FrameFunc) {
	defer close(done)
	t := time.NewTicker(e.opts.FrameInterval)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
		}
		f := e.Grab()
		fn(f)
		f.Expire()
		e.mu.Lock()
		e.delivered++
		e.mu.Unlock()
	}
}

// Discovery implements camera.Discoverer.
type Discovery struct {
	// Identities is what Scan reports. Default: CppEmulator and
	// FlirOneEmulator.
	Identities []camera.Identity
	// Fail makes Scan report an error for an interface.
	Fail map[camera.CommunicationInterface]error
	// Delay before cameras are reported.
	Delay time.Duration

	mu   sync.Mutex
	stop chan struct{}
}

var _ camera.Discoverer = (*Discovery)(nil)

// Scan implements camera.Discoverer.
func (d *Discovery) Scan(found func(camera.Identity), failed func(camera.CommunicationInterface, error), ifaces ...camera.CommunicationInterface) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stop != nil {
		return nil
	}
	ids := d.Identities
	if ids == nil {
		ids = []camera.Identity{CppEmulator, FlirOneEmulator}
	}
	stop := make(chan struct{})
	d.stop = stop
	go func() {
		if d.Delay > 0 {
			select {
			case <-stop:
				return
			case <-time.After(d.Delay):
			}
		}
		for _, iface := range ifaces {
			select {
			case <-stop:
				return
			default:
			}
			if err := d.Fail[iface]; err != nil {
				failed(iface, err)
				continue
			}
			for _, id := range ids {
				if id.Interface == iface {
					found(id)
				}
			}
		}
	}()
	return nil
}

// Stop implements camera.Discoverer.
func (d *Discovery) Stop(ifaces ...camera.CommunicationInterface) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stop != nil {
		close(d.stop)
		d.stop = nil
	}
	return nil
}

// Scanning returns true between Scan and Stop.
func (d *Discovery) Scanning() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stop != nil
}

// Permissions implements camera.PermissionRequester.
type Permissions struct {
	// Deny makes RequestPermission refuse.
	Deny bool
	// Err makes RequestPermission fail.
	Err error

	mu       sync.Mutex
	granted  map[string]bool
	requests int
}

var _ camera.PermissionRequester = (*Permissions)(nil)

// HasPermission implements camera.PermissionRequester.
func (p *Permissions) HasPermission(id camera.Identity) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.granted[id.DeviceID]
}

// RequestPermission implements camera.PermissionRequester.
func (p *Permissions) RequestPermission(ctx context.Context, id camera.Identity) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.requests++
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.Err != nil {
		return p.Err
	}
	if p.Deny {
		return fmt.Errorf("%w: %s", camera.ErrPermissionDenied, id.DeviceID)
	}
	if p.granted == nil {
		p.granted = map[string]bool{}
	}
	p.granted[id.DeviceID] = true
	return nil
}

// Requests returns the number of times permission was asked.
func (p *Permissions) Requests() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.requests
}
