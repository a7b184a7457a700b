// Copyright 2026 The Learningbuilding Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package display

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"

	"github.com/disintegration/gift"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/skybluego123/Learningbuilding/thermal"
)

// DefaultZoom is the upscaling factor of the still image.
const DefaultZoom = 4

// legendHeight fits one line of basicfont.Face7x13.
const legendHeight = 16

// Legend returns the text drawn under the still image.
//
// basicfont only has ASCII glyphs so the degree sign is dropped.
func Legend(f *thermal.ProcessedFrame) string {
	s := fmt.Sprintf("%s  min %.1f°C max %.1f°C", f.Scale, f.Min, f.Max)
	return strings.ReplaceAll(s, "°", "")
}

// Render upscales the thermal image of f by zoom and draws the legend below
// it.
func Render(f *thermal.ProcessedFrame, zoom int) *image.RGBA {
	if zoom < 1 {
		zoom = 1
	}
	src := f.Image
	g := gift.New(gift.Resize(src.Bounds().Dx()*zoom, 0, gift.NearestNeighborResampling))
	b := g.Bounds(src.Bounds())
	up := image.NewRGBA(b)
	g.Draw(up, src)
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()+legendHeight))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)
	draw.Draw(dst, image.Rect(0, 0, b.Dx(), b.Dy()), up, b.Min, draw.Src)
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(color.White),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(2, b.Dy()+legendHeight-4),
	}
	d.DrawString(Legend(f))
	return dst
}
