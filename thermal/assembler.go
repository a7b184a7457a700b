// Copyright 2026 The Learningbuilding Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package thermal

import (
	"fmt"
	"image"
	"image/draw"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
)

// Stats is the assembler's frame accounting.
type Stats struct {
	LastFail   error
	GoodFrames uint64
	Failed     uint64
}

// Assembler converts RawFrame into ProcessedFrame.
//
// It is safe for concurrent use but is normally only called from the camera's
// delivery goroutine.
type Assembler struct {
	rule atomic.Pointer[ruleHolder]
	seq  atomic.Uint64
	good atomic.Uint64
	bad  atomic.Uint64

	mu       sync.Mutex
	lastFail error
}

type ruleHolder struct {
	r Rule
}

// NewAssembler returns an Assembler painting with rule. The cutoff stored in
// rule is ignored; it is taken from the Snapshot passed to Assemble.
func NewAssembler(rule Rule) *Assembler {
	if rule == nil {
		rule = SingleThreshold{}
	}
	a := &Assembler{}
	a.rule.Store(&ruleHolder{rule})
	return a
}

// Rule returns the active overlay rule.
func (a *Assembler) Rule() Rule {
	return a.rule.Load().r
}

// SetRule changes the overlay for the next frames.
func (a *Assembler) SetRule(rule Rule) {
	if rule != nil {
		a.rule.Store(&ruleHolder{rule})
	}
}

// Stats returns a copy of the counters.
func (a *Assembler) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return Stats{LastFail: a.lastFail, GoodFrames: a.good.Load(), Failed: a.bad.Load()}
}

// Assemble processes one frame against the cutoffs in cfg.
//
// It must be called while raw is still valid. On failure the returned error
// wraps ErrFrameProcessing and the caller is expected to drop the frame.
func (a *Assembler) Assemble(raw RawFrame, cfg Snapshot) (*ProcessedFrame, error) {
	f, err := a.assemble(raw, cfg)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrFrameProcessing, err)
		a.bad.Add(1)
		a.mu.Lock()
		a.lastFail = err
		a.mu.Unlock()
		return nil, err
	}
	a.good.Add(1)
	return f, nil
}

func (a *Assembler) assemble(raw RawFrame, cfg Snapshot) (*ProcessedFrame, error) {
	if raw == nil {
		return nil, fmt.Errorf("%w: nil frame", ErrInvalidArgument)
	}
	thermalImg, err := raw.ThermalImage()
	if err != nil {
		return nil, fmt.Errorf("thermal image: %w", err)
	}
	var photo *image.RGBA
	if p, err := raw.PhotoImage(); err != nil {
		return nil, fmt.Errorf("photo image: %w", err)
	} else if p != nil {
		photo = toRGBA(p)
	}

	size := raw.Size()
	values, err := raw.Values(image.Rect(0, 0, size.X, size.Y))
	if err != nil {
		return nil, fmt.Errorf("values: %w", err)
	}
	m, err := NewMatrix(size.X, size.Y, values)
	if err != nil {
		return nil, err
	}

	lo, hi, err := raw.ScaleRange()
	if err != nil {
		return nil, fmt.Errorf("scale: %w", err)
	}
	scale, err := TruncateScale(lo, hi)
	if err != nil {
		return nil, err
	}

	rule := a.Rule()
	rule = rule.WithCutoff(cfg.CutoffFor(rule))
	img, err := Apply(m, asRGBA(thermalImg), rule)
	if err != nil {
		return nil, err
	}
	coldest, warmest := m.MinMax()
	f := &ProcessedFrame{
		Image:     img,
		Photo:     photo,
		Scale:     scale,
		Min:       coldest,
		Max:       warmest,
		Seq:       a.seq.Add(1),
		Timestamp: time.Now(),
	}
	log.Debug().Uint64("seq", f.Seq).Stringer("rule", rule).Stringer("scale", scale).Msg("frame assembled")
	return f, nil
}

// asRGBA returns src as a *image.RGBA. The result may alias src.
func asRGBA(src image.Image) *image.RGBA {
	if r, ok := src.(*image.RGBA); ok {
		return r
	}
	return toRGBA(src)
}

// toRGBA returns a copy of src as a *image.RGBA rooted at the origin.
func toRGBA(src image.Image) *image.RGBA {
	if r, ok := src.(*image.RGBA); ok {
		return cloneRGBA(r)
	}
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}
