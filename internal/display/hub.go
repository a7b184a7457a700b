// Copyright 2026 The Learningbuilding Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package display consumes processed frames and serves them over HTTP.
package display

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/skybluego123/Learningbuilding/thermal"
)

// historySize is 10 seconds worth of frames at ~9Hz.
const historySize = 9 * 10

// Hub is the display consumer. It keeps the most recent frames and wakes up
// the streams on each new one.
type Hub struct {
	cond      sync.Cond
	frames    [historySize]*thermal.ProcessedFrame
	lastIndex int    // Index of the most recent frame.
	count     uint64 // Frames added so far.
	closed    bool
}

// NewHub returns an empty Hub.
func NewHub() *Hub {
	return &Hub{cond: *sync.NewCond(&sync.Mutex{}), lastIndex: -1}
}

// Add makes f the latest frame.
func (h *Hub) Add(f *thermal.ProcessedFrame) {
	h.cond.L.Lock()
	defer h.cond.L.Unlock()
	h.lastIndex = (h.lastIndex + 1) % len(h.frames)
	h.frames[h.lastIndex] = f
	h.count++
	h.cond.Broadcast()
}

// Latest returns the most recent frame, or nil.
func (h *Hub) Latest() *thermal.ProcessedFrame {
	h.cond.L.Lock()
	defer h.cond.L.Unlock()
	if h.lastIndex < 0 {
		return nil
	}
	return h.frames[h.lastIndex]
}

// Count returns the number of frames added.
func (h *Hub) Count() uint64 {
	h.cond.L.Lock()
	defer h.cond.L.Unlock()
	return h.count
}

// Rate returns the frame rate measured over the history.
func (h *Hub) Rate() float64 {
	h.cond.L.Lock()
	defer h.cond.L.Unlock()
	n := int(h.count)
	if n > len(h.frames) {
		n = len(h.frames)
	}
	if n < 2 {
		return 0
	}
	newest := h.frames[h.lastIndex].Timestamp
	oldest := h.frames[(h.lastIndex-n+1+len(h.frames))%len(h.frames)].Timestamp
	d := newest.Sub(oldest)
	if d <= 0 {
		return 0
	}
	return float64(n-1) / d.Seconds()
}

// Close wakes up all the streams for good.
func (h *Hub) Close() {
	h.cond.L.Lock()
	defer h.cond.L.Unlock()
	h.closed = true
	h.cond.Broadcast()
}

// Consume pops frames from q into the Hub until q is closed or ctx is done.
//
// Returns nil when q is closed.
func (h *Hub) Consume(ctx context.Context, q *thermal.FrameQueue) error {
	start := time.Now()
	for {
		f, err := q.Pop(ctx)
		if errors.Is(err, thermal.ErrQueueClosed) {
			log.Info().Uint64("frames", h.Count()).Dur("uptime", time.Since(start)).Msg("display stopped")
			return nil
		}
		if err != nil {
			return err
		}
		h.Add(f)
	}
}

// next blocks until a frame newer than seen is available, ctx is done or the
// Hub is closed.
//
// Frames are skipped when the caller is too slow; only the latest is
// returned.
func (h *Hub) next(ctx context.Context, seen uint64) (*thermal.ProcessedFrame, uint64, bool) {
	stop := context.AfterFunc(ctx, func() {
		h.cond.L.Lock()
		h.cond.Broadcast()
		h.cond.L.Unlock()
	})
	defer stop()
	h.cond.L.Lock()
	defer h.cond.L.Unlock()
	for h.count == seen && !h.closed && ctx.Err() == nil {
		h.cond.Wait()
	}
	if h.closed || ctx.Err() != nil {
		return nil, seen, false
	}
	return h.frames[h.lastIndex], h.count, true
}
