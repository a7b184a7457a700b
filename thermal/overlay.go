// Copyright 2026 The Learningbuilding Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package thermal

import (
	"fmt"
	"image"
	"image/color"
)

// Marker colors.
var (
	// FlaggedColor is painted on each pixel above the cutoff by
	// SingleThreshold. It is the SDK's -1 ARGB value.
	FlaggedColor = color.RGBA{0xFF, 0xFF, 0xFF, 0xFF}
	// MarkerColor is painted by DottedThreshold. #39ff14, neon green.
	MarkerColor = color.RGBA{0x39, 0xFF, 0x14, 0xFF}
)

// Default DottedThreshold geometry.
const (
	DefaultDotSize = 3
	DefaultStride  = 9
)

// Rule decides which pixels of a frame get a marker.
//
// It is implemented by SingleThreshold and DottedThreshold only.
type Rule interface {
	// WithCutoff returns a copy of the rule using cutoff.
	WithCutoff(cutoff float64) Rule
	paint(m *Matrix, dst *image.RGBA) error
	String() string
}

// SingleThreshold flags every pixel strictly warmer than Cutoff.
type SingleThreshold struct {
	Cutoff float64
}

// WithCutoff implements Rule.
func (s SingleThreshold) WithCutoff(cutoff float64) Rule {
	s.Cutoff = cutoff
	return s
}

func (s SingleThreshold) String() string {
	return fmt.Sprintf("single(>%g)", s.Cutoff)
}

func (s SingleThreshold) paint(m *Matrix, dst *image.RGBA) error {
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			if m.At(x, y) > s.Cutoff {
				dst.SetRGBA(x, y, FlaggedColor)
			}
		}
	}
	return nil
}

// DottedThreshold samples the matrix every Stride pixels and paints a
// DotSize x DotSize block where the sample is strictly colder than Cutoff.
//
// Sampling stops DotSize pixels short of the right and bottom edges so a
// block never leaves the bitmap.
type DottedThreshold struct {
	Cutoff  float64
	DotSize int
	Stride  int
}

// NewDottedThreshold returns a DottedThreshold with the default 3x3 dots every
// 9 pixels.
func NewDottedThreshold(cutoff float64) DottedThreshold {
	return DottedThreshold{Cutoff: cutoff, DotSize: DefaultDotSize, Stride: DefaultStride}
}

// WithCutoff implements Rule.
func (d DottedThreshold) WithCutoff(cutoff float64) Rule {
	d.Cutoff = cutoff
	return d
}

func (d DottedThreshold) String() string {
	return fmt.Sprintf("dotted(<%g, %dpx every %dpx)", d.Cutoff, d.DotSize, d.Stride)
}

func (d DottedThreshold) paint(m *Matrix, dst *image.RGBA) error {
	if d.DotSize <= 0 || d.Stride <= 0 {
		return fmt.Errorf("%w: dot size %d, stride %d", ErrInvalidArgument, d.DotSize, d.Stride)
	}
	for i := 0; i < m.Width-d.DotSize; i += d.Stride {
		for j := 0; j < m.Height-d.DotSize; j += d.Stride {
			if !(m.At(i, j) < d.Cutoff) {
				continue
			}
			for x := 0; x < d.DotSize; x++ {
				for y := 0; y < d.DotSize; y++ {
					dst.SetRGBA(i+x, j+y, MarkerColor)
				}
			}
		}
	}
	return nil
}

// Apply returns a copy of img with the markers of rule painted on it. img is
// not modified.
func Apply(m *Matrix, img *image.RGBA, rule Rule) (*image.RGBA, error) {
	if m == nil || img == nil || rule == nil {
		return nil, fmt.Errorf("%w: nil input", ErrInvalidArgument)
	}
	b := img.Bounds()
	if b.Dx() != m.Width || b.Dy() != m.Height {
		return nil, fmt.Errorf("%w: matrix %dx%d, bitmap %dx%d", ErrDimensionMismatch, m.Width, m.Height, b.Dx(), b.Dy())
	}
	dst := cloneRGBA(img)
	if err := rule.paint(m, dst); err != nil {
		return nil, err
	}
	return dst, nil
}

// cloneRGBA returns a copy of src rebased at the origin.
func cloneRGBA(src *image.RGBA) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		off := src.PixOffset(b.Min.X, b.Min.Y+y)
		copy(dst.Pix[y*dst.Stride:(y+1)*dst.Stride], src.Pix[off:off+4*b.Dx()])
	}
	return dst
}
