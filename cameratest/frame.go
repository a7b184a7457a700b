// Copyright 2026 The Learningbuilding Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package cameratest

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"sync/atomic"

	"github.com/skybluego123/Learningbuilding/thermal"
)

var (
	// ErrFrameExpired is returned by a Frame accessed after its callback
	// returned.
	ErrFrameExpired = errors.New("cameratest: frame accessed after its callback")
	// ErrInjected is returned by the accessors of frames selected by
	// Options.FailEvery.
	ErrInjected = errors.New("cameratest: injected failure")
)

// Frame implements thermal.RawFrame.
type Frame struct {
	Seq     uint64
	w, h    int
	values  []float64 // °C
	fail    bool
	expired atomic.Bool
}

var _ thermal.RawFrame = (*Frame)(nil)

// NewFrame returns a frame of w x h holding values in °C. It is useful to
// feed hand crafted matrices to an Assembler.
func NewFrame(w, h int, values []float64) (*Frame, error) {
	if w <= 0 || h <= 0 || len(values) != w*h {
		return nil, fmt.Errorf("cameratest: %d values for %dx%d", len(values), w, h)
	}
	return &Frame{w: w, h: h, values: values}, nil
}

// Expire makes all further accesses fail with ErrFrameExpired.
func (f *Frame) Expire() {
	f.expired.Store(true)
}

// Size implements thermal.RawFrame.
func (f *Frame) Size() image.Point {
	return image.Pt(f.w, f.h)
}

// ThermalImage implements thermal.RawFrame.
//
// It renders the values with a black-red-yellow-white palette stretched over
// the frame's range.
func (f *Frame) ThermalImage() (image.Image, error) {
	if err := f.check(); err != nil {
		return nil, err
	}
	lo, hi := minMax(f.values)
	delta := hi - lo
	if delta == 0 {
		delta = 1
	}
	img := image.NewRGBA(image.Rect(0, 0, f.w, f.h))
	for i, v := range f.values {
		img.SetRGBA(i%f.w, i/f.w, iron((v-lo)/delta))
	}
	return img, nil
}

// PhotoImage implements thermal.RawFrame.
//
// The visual camera has twice the thermal resolution; it only shows a
// gradient.
func (f *Frame) PhotoImage() (image.Image, error) {
	if err := f.check(); err != nil {
		return nil, err
	}
	img := image.NewGray(image.Rect(0, 0, 2*f.w, 2*f.h))
	for y := 0; y < 2*f.h; y++ {
		for x := 0; x < 2*f.w; x++ {
			img.Pix[y*img.Stride+x] = uint8((x + y + int(f.Seq)) & 0xFF)
		}
	}
	return img, nil
}

// Values implements thermal.RawFrame.
func (f *Frame) Values(r image.Rectangle) ([]float64, error) {
	if f.expired.Load() {
		return nil, ErrFrameExpired
	}
	if !r.In(image.Rect(0, 0, f.w, f.h)) || r.Empty() {
		return nil, fmt.Errorf("cameratest: rectangle %v outside of %dx%d", r, f.w, f.h)
	}
	out := make([]float64, 0, r.Dx()*r.Dy())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		out = append(out, f.values[y*f.w+r.Min.X:y*f.w+r.Max.X]...)
	}
	return out, nil
}

// ScaleRange implements thermal.RawFrame.
func (f *Frame) ScaleRange() (float64, float64, error) {
	if f.expired.Load() {
		return 0, 0, ErrFrameExpired
	}
	lo, hi := minMax(f.values)
	return lo, hi, nil
}

func (f *Frame) check() error {
	if f.expired.Load() {
		return ErrFrameExpired
	}
	if f.fail {
		return fmt.Errorf("%w: frame %d", ErrInjected, f.Seq)
	}
	return nil
}

func minMax(values []float64) (float64, float64) {
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

// iron maps [0, 1] to black, red, yellow then white.
func iron(v float64) color.RGBA {
	if v < 0 {
		v = 0
	} else if v > 1 {
		v = 1
	}
	c := uint8(255)
	switch {
	case v < 1./3:
		return color.RGBA{uint8(v * 3 * 255), 0, 0, c}
	case v < 2./3:
		return color.RGBA{c, uint8((v - 1./3) * 3 * 255), 0, c}
	default:
		return color.RGBA{c, c, uint8((v - 2./3) * 3 * 255), c}
	}
}
