// Copyright 2026 The Learningbuilding Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package camera

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/skybluego123/Learningbuilding/thermal"
)

// PipelineOptions are the collaborators of a Pipeline. Registry and OnStatus
// are optional.
type PipelineOptions struct {
	Camera     Camera
	Discoverer Discoverer
	Registry   *Registry
	Assembler  *thermal.Assembler
	Thresholds *thermal.ThresholdConfig
	Queue      *thermal.FrameQueue
	OnStatus   StatusFunc
}

// Pipeline owns the connection state machine of one camera and drives the
// Assembler for each frame it streams.
//
//	Idle -> Discovering -> Idle
//	Idle|Discovering -> Connecting -> Connected -> Streaming
//	Connecting -> Disconnected -> Idle                  (connection failure)
//	Connected|Streaming -> Disconnecting -> Disconnected -> Idle
//	Connected|Streaming -> Disconnected -> Idle         (camera lost)
//
// All transitions are serialized.
type Pipeline struct {
	cam      Camera
	disc     Discoverer
	reg      *Registry
	asm      *thermal.Assembler
	cfg      *thermal.ThresholdConfig
	queue    *thermal.FrameQueue
	onStatus StatusFunc

	mu      sync.Mutex
	state   State
	active  *Identity
	session string
	message string
	cancel  context.CancelFunc // Stops pending Push of the current stream.

	dropped atomic.Uint64
}

// NewPipeline returns an Idle pipeline.
func NewPipeline(opts PipelineOptions) (*Pipeline, error) {
	if opts.Camera == nil || opts.Discoverer == nil || opts.Assembler == nil || opts.Thresholds == nil || opts.Queue == nil {
		return nil, errors.New("camera: missing pipeline collaborator")
	}
	if opts.Registry == nil {
		opts.Registry = &Registry{}
	}
	return &Pipeline{
		cam:      opts.Camera,
		disc:     opts.Discoverer,
		reg:      opts.Registry,
		asm:      opts.Assembler,
		cfg:      opts.Thresholds,
		queue:    opts.Queue,
		onStatus: opts.OnStatus,
		message:  stateMessage(Idle),
	}, nil
}

// Registry returns the cameras found by discovery.
func (p *Pipeline) Registry() *Registry {
	return p.reg
}

// Status returns the current state.
func (p *Pipeline) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.statusLocked(p.message)
}

// State returns the current state.
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Dropped returns the number of assembled frames that could not be queued.
// Frames that failed to assemble are counted by the Assembler instead.
func (p *Pipeline) Dropped() uint64 {
	return p.dropped.Load()
}

// StartDiscovery starts scanning. Cameras found are added to the Registry.
func (p *Pipeline) StartDiscovery() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch p.state {
	case Discovering:
		return nil
	case Idle:
	default:
		return fmt.Errorf("%w: discovery while %s", ErrInvalidTransition, p.state)
	}
	p.reg.Clear()
	found := func(id Identity) {
		if p.reg.Add(id) {
			log.Info().Str("device_id", id.DeviceID).Stringer("interface", id.Interface).Stringer("class", id.Class()).Msg("camera found")
		}
	}
	failed := func(iface CommunicationInterface, err error) {
		log.Warn().Err(err).Stringer("interface", iface).Msg("discovery error")
		p.report(fmt.Sprintf("discovery error on %s: %v", iface, err))
	}
	if err := p.disc.Scan(found, failed, USB, Network, Emulator); err != nil {
		return fmt.Errorf("camera: discovery: %w", err)
	}
	p.setLocked(Discovering, nil, "")
	return nil
}

// StopDiscovery stops scanning. It is a no-op when not discovering.
func (p *Pipeline) StopDiscovery() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != Discovering {
		return nil
	}
	return p.stopDiscoveryLocked()
}

func (p *Pipeline) stopDiscoveryLocked() error {
	err := p.disc.Stop()
	if err != nil {
		log.Warn().Err(err).Msg("stopping discovery")
	}
	p.setLocked(Idle, nil, "")
	return err
}

// Connect opens the connection to id.
//
// On failure the pipeline reports Disconnected and is back to Idle; the
// returned error wraps ErrConnectFailure. Nothing is retried.
func (p *Pipeline) Connect(ctx context.Context, id *Identity) error {
	p.mu.Lock()
	if err := p.checkConnectLocked(id); err != nil {
		p.mu.Unlock()
		return err
	}
	if p.state == Discovering {
		_ = p.stopDiscoveryLocked()
	}
	target := *id
	p.setLocked(Connecting, &target, "")
	p.mu.Unlock()

	// Other transitions are rejected while Connecting so the lock is not
	// needed during the blocking call.
	err := p.cam.Connect(ctx, target, p.OnDisconnected)

	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		log.Error().Err(err).Str("device_id", target.DeviceID).Msg("connection failed")
		p.setLocked(Disconnected, &target, "")
		p.setLocked(Idle, nil, stateMessage(Disconnected))
		return fmt.Errorf("%w: %s: %w", ErrConnectFailure, target.DeviceID, err)
	}
	p.session = uuid.New().String()
	log.Info().Str("device_id", target.DeviceID).Str("session", p.session).Msg("connected")
	p.setLocked(Connected, &target, "")
	return nil
}

// checkConnectLocked rejects the connection without changing the state.
func (p *Pipeline) checkConnectLocked(id *Identity) error {
	if id == nil {
		p.emitLocked(p.statusLocked("No camera available"))
		return ErrNoCameraAvailable
	}
	if p.state.busy() {
		p.emitLocked(p.statusLocked("Already connected to a camera"))
		return fmt.Errorf("%w: %s", ErrAlreadyConnected, p.active.DeviceID)
	}
	if p.state != Idle && p.state != Discovering {
		return fmt.Errorf("%w: connect while %s", ErrInvalidTransition, p.state)
	}
	return nil
}

// Subscribe starts streaming. Each frame is assembled with the current
// thresholds and pushed to the queue, blocking the camera while the queue is
// full.
func (p *Pipeline) Subscribe() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != Connected {
		return fmt.Errorf("%w: subscribe while %s", ErrInvalidTransition, p.state)
	}
	ctx, cancel := context.WithCancel(context.Background())
	if err := p.cam.Subscribe(p.onFrame(ctx)); err != nil {
		cancel()
		return fmt.Errorf("camera: subscribe: %w", err)
	}
	p.cancel = cancel
	p.setLocked(Streaming, p.active, "")
	return nil
}

// onFrame returns the callback run on the camera goroutine.
//
// A frame that fails to assemble is dropped; the stream continues.
func (p *Pipeline) onFrame(ctx context.Context) FrameFunc {
	return func(raw thermal.RawFrame) {
		f, err := p.asm.Assemble(raw, p.cfg.Snapshot())
		if err != nil {
			log.Warn().Err(err).Msg("frame dropped")
			return
		}
		if err := p.queue.Push(ctx, f); err != nil {
			log.Debug().Err(err).Uint64("seq", f.Seq).Msg("frame not queued")
			p.dropped.Add(1)
		}
	}
}

// Disconnect stops streaming and closes the connection. It is a no-op when no
// camera is connected.
func (p *Pipeline) Disconnect() error {
	p.mu.Lock()
	switch p.state {
	case Connected, Streaming:
	case Idle, Discovering, Disconnected:
		p.mu.Unlock()
		return nil
	default:
		s := p.state
		p.mu.Unlock()
		return fmt.Errorf("%w: disconnect while %s", ErrInvalidTransition, s)
	}
	id := p.active
	p.setLocked(Disconnecting, id, "")
	p.stopStreamLocked()
	p.mu.Unlock()

	// The camera may call OnDisconnected synchronously; it is ignored while
	// Disconnecting.
	var errs []error
	if err := p.cam.UnsubscribeAll(); err != nil {
		errs = append(errs, fmt.Errorf("unsubscribe: %w", err))
	}
	if err := p.cam.Disconnect(); err != nil {
		errs = append(errs, fmt.Errorf("disconnect: %w", err))
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.setLocked(Disconnected, id, "")
	p.setLocked(Idle, nil, stateMessage(Disconnected))
	if err := errors.Join(errs...); err != nil {
		log.Warn().Err(err).Msg("disconnect")
		return fmt.Errorf("camera: %w", err)
	}
	log.Info().Str("device_id", id.DeviceID).Msg("disconnected")
	return nil
}

// OnDisconnected is the camera's notification that the connection was lost.
func (p *Pipeline) OnDisconnected(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != Connected && p.state != Streaming {
		return
	}
	log.Warn().Err(err).Str("device_id", p.active.DeviceID).Msg("camera lost")
	id := p.active
	p.stopStreamLocked()
	p.setLocked(Disconnected, id, "")
	p.setLocked(Idle, nil, stateMessage(Disconnected))
}

func (p *Pipeline) stopStreamLocked() {
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
}

// setLocked transitions to s and emits the status. msg defaults to the state
// name.
func (p *Pipeline) setLocked(s State, id *Identity, msg string) {
	if msg == "" {
		msg = stateMessage(s)
	}
	p.state = s
	p.active = id
	if id == nil {
		p.session = ""
	}
	p.message = msg
	p.emitLocked(p.statusLocked(msg))
}

// report emits a message without changing the state.
func (p *Pipeline) report(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.emitLocked(p.statusLocked(msg))
}

func (p *Pipeline) statusLocked(msg string) Status {
	s := Status{State: p.state, Session: p.session, Message: msg}
	if p.active != nil {
		id := *p.active
		s.Identity = &id
	}
	return s
}

func (p *Pipeline) emitLocked(s Status) {
	log.Debug().Stringer("state", s.State).Str("text", s.Message).Msg("status")
	if p.onStatus != nil {
		p.onStatus(s)
	}
}
