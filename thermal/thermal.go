// Copyright 2026 The Learningbuilding Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package thermal converts radiometric frames from a thermal camera into
// displayable bitmaps with a threshold overlay.
//
// The camera SDK is abstracted by RawFrame. Each frame is processed
// synchronously by an Assembler on the camera's delivery goroutine, then
// handed to the display through a FrameQueue.
//
// References:
// FLIR ONE thermal SDK, ThermalImage accessors:
//   getImage() with FusionMode.THERMAL_ONLY, getFusion().getPhoto(),
//   getValues(Rectangle), getScale().getRangeMin()/getRangeMax().
package thermal

import (
	"errors"
	"fmt"
	"image"
	"math"
	"strconv"
	"strings"
)

// ZeroCelsius is 0°C expressed in Kelvin.
const ZeroCelsius = 273.15

var (
	// ErrDimensionMismatch is returned when a Matrix and a bitmap do not cover
	// the same rectangle.
	ErrDimensionMismatch = errors.New("thermal: dimension mismatch")
	// ErrInvalidArgument is returned on contract violations, e.g. NaN humidity.
	ErrInvalidArgument = errors.New("thermal: invalid argument")
	// ErrFrameProcessing is returned when a single frame could not be
	// assembled. The stream is not affected.
	ErrFrameProcessing = errors.New("thermal: frame processing failed")
	// ErrQueueClosed is returned by FrameQueue once closed.
	ErrQueueClosed = errors.New("thermal: queue closed")
)

// Matrix is the calibrated temperature of each pixel of a frame, in °C,
// stored row-major.
type Matrix struct {
	Width  int
	Height int
	Values []float64
}

// NewMatrix returns a Matrix wrapping values. len(values) must be w*h.
func NewMatrix(w, h int, values []float64) (*Matrix, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: matrix %dx%d", ErrInvalidArgument, w, h)
	}
	if len(values) != w*h {
		return nil, fmt.Errorf("%w: %d values for %dx%d", ErrDimensionMismatch, len(values), w, h)
	}
	return &Matrix{Width: w, Height: h, Values: values}, nil
}

// MatrixFromRows builds a Matrix from rows; all rows must have the same
// length.
func MatrixFromRows(rows [][]float64) (*Matrix, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no rows", ErrInvalidArgument)
	}
	w := len(rows[0])
	v := make([]float64, 0, w*len(rows))
	for y, r := range rows {
		if len(r) != w {
			return nil, fmt.Errorf("%w: row %d has %d values, expected %d", ErrDimensionMismatch, y, len(r), w)
		}
		v = append(v, r...)
	}
	return NewMatrix(w, len(rows), v)
}

// At returns the temperature at x, y.
func (m *Matrix) At(x, y int) float64 {
	return m.Values[y*m.Width+x]
}

// Bounds returns the rectangle covered by the matrix.
func (m *Matrix) Bounds() image.Rectangle {
	return image.Rect(0, 0, m.Width, m.Height)
}

// MinMax returns the lowest and highest temperature of the frame.
func (m *Matrix) MinMax() (float64, float64) {
	lo := math.Inf(1)
	hi := math.Inf(-1)
	for _, v := range m.Values {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

// Scale is the temperature range used by the camera's auto-scale for the
// current frame, in °C.
type Scale struct {
	Min float64
	Max float64
}

func (s Scale) String() string {
	return fmt.Sprintf("%s°C - %s°C", formatTemp(s.Min), formatTemp(s.Max))
}

// TruncateScale reduces the camera's range to what the FLIR ONE app shows.
//
// The value is cut to the first 4 characters of its decimal representation,
// not rounded: 23.789 becomes 23.7, 123.4 becomes 123 and -5.25 becomes -5.2.
func TruncateScale(lo, hi float64) (Scale, error) {
	lo, err := truncate4(lo)
	if err != nil {
		return Scale{}, err
	}
	hi, err = truncate4(hi)
	if err != nil {
		return Scale{}, err
	}
	return Scale{Min: lo, Max: hi}, nil
}

func truncate4(v float64) (float64, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: scale value %v", ErrInvalidArgument, v)
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if len(s) > 4 {
		s = s[:4]
	}
	s = strings.TrimSuffix(s, ".")
	if s == "-" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

func formatTemp(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
