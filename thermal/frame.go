// Copyright 2026 The Learningbuilding Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package thermal

import (
	"image"
	"time"
)

// RawFrame is the handle the camera passes to the frame callback.
//
// It is only valid for the duration of the callback. Nothing returned by its
// accessors may be retained after the callback returns unless copied.
type RawFrame interface {
	// Size is the resolution of the thermal sensor.
	Size() image.Point
	// ThermalImage returns the thermal-only fusion rendering, as large as Size.
	ThermalImage() (image.Image, error)
	// PhotoImage returns the visual light camera rendering. Its resolution is
	// usually higher than the thermal image.
	PhotoImage() (image.Image, error)
	// Values returns the calibrated temperature of each pixel in r, in °C,
	// row-major.
	Values(r image.Rectangle) ([]float64, error)
	// ScaleRange returns the current auto-scale range, in °C.
	ScaleRange() (min, max float64, err error)
}

// ProcessedFrame is a frame ready to be displayed.
//
// It is owned by whoever holds it last; it is never modified once returned by
// Assembler.
type ProcessedFrame struct {
	Image     *image.RGBA // Thermal rendering with the overlay.
	Photo     *image.RGBA // Visual light rendering, may be nil.
	Scale     Scale       // Truncated auto-scale range.
	Min       float64     // Coldest pixel, in °C.
	Max       float64     // Warmest pixel, in °C.
	Seq       uint64      // Monotonic per Assembler, starting at 1.
	Timestamp time.Time   // When the frame was assembled.
}
