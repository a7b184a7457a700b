// Copyright 2026 The Learningbuilding Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package thermal

import (
	"errors"
	"image"
	"image/color"
	"testing"
)

type fakeFrame struct {
	w, h      int
	values    []float64
	thermal   image.Image
	photo     image.Image
	min, max  float64
	thermErr  error
	valuesErr error
	scaleErr  error
}

func (f *fakeFrame) Size() image.Point { return image.Pt(f.w, f.h) }

func (f *fakeFrame) ThermalImage() (image.Image, error) {
	return f.thermal, f.thermErr
}

func (f *fakeFrame) PhotoImage() (image.Image, error) {
	return f.photo, nil
}

func (f *fakeFrame) Values(r image.Rectangle) ([]float64, error) {
	if f.valuesErr != nil {
		return nil, f.valuesErr
	}
	if r != image.Rect(0, 0, f.w, f.h) {
		return nil, errors.New("unexpected rectangle")
	}
	return f.values, nil
}

func (f *fakeFrame) ScaleRange() (float64, float64, error) {
	return f.min, f.max, f.scaleErr
}

func newFakeFrame() *fakeFrame {
	// 30°C at (1,0), 6.85°C elsewhere.
	v := make([]float64, 16)
	for i := range v {
		v[i] = 6.85
	}
	v[1] = 30
	return &fakeFrame{
		w: 4, h: 4,
		values:  v,
		thermal: solid(4, 4, color.RGBA{0, 0, 0x80, 0xFF}),
		photo:   image.NewGray(image.Rect(0, 0, 8, 8)),
		min:     6.8512,
		max:     30.0001,
	}
}

func TestAssembler(t *testing.T) {
	a := NewAssembler(SingleThreshold{})
	raw := newFakeFrame()
	cfg := Snapshot{TemperatureK: 300, Humidity: 100, DewPointK: 300}
	f, err := a.Assemble(raw, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if f.Seq != 1 {
		t.Fatal(f.Seq)
	}
	if f.Scale != (Scale{Min: 6.85, Max: 30}) {
		t.Fatal(f.Scale)
	}
	if f.Min != 6.85 || f.Max != 30 {
		t.Fatal(f.Min, f.Max)
	}
	if f.Image.RGBAAt(1, 0) != FlaggedColor {
		t.Fatal("(1,0) not flagged")
	}
	if f.Image.RGBAAt(0, 0) != (color.RGBA{0, 0, 0x80, 0xFF}) {
		t.Fatal("(0,0) flagged")
	}
	if f.Photo == nil || f.Photo.Bounds().Dx() != 8 {
		t.Fatal("photo")
	}
	// The camera's bitmap must not be modified.
	if raw.thermal.(*image.RGBA).RGBAAt(1, 0) == FlaggedColor {
		t.Fatal("camera bitmap modified")
	}
	f2, err := a.Assemble(raw, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if f2.Seq != 2 {
		t.Fatal(f2.Seq)
	}
	if s := a.Stats(); s.GoodFrames != 2 || s.Failed != 0 {
		t.Fatalf("%+v", s)
	}
}

func TestAssembler_dotted(t *testing.T) {
	a := NewAssembler(SingleThreshold{})
	a.SetRule(DottedThreshold{DotSize: 1, Stride: 1})
	raw := newFakeFrame()
	// Dew point of 10°C: everything at 6.85°C gets a dot, within the
	// clamped 3x3 sampling area.
	f, err := a.Assemble(raw, Snapshot{TemperatureK: 400, Humidity: 100, DewPointK: 283.15})
	if err != nil {
		t.Fatal(err)
	}
	if f.Image.RGBAAt(0, 0) != MarkerColor {
		t.Fatal("(0,0) not marked")
	}
	if f.Image.RGBAAt(1, 0) == MarkerColor {
		t.Fatal("(1,0) is above the dew point")
	}
	if f.Image.RGBAAt(3, 3) == MarkerColor {
		t.Fatal("edge must not be sampled")
	}
}

func TestAssembler_failures(t *testing.T) {
	a := NewAssembler(nil)
	cfg := NewThresholdConfig().Snapshot()
	errSDK := errors.New("sdk")
	data := []func(f *fakeFrame){
		func(f *fakeFrame) { f.thermErr = errSDK },
		func(f *fakeFrame) { f.valuesErr = errSDK },
		func(f *fakeFrame) { f.scaleErr = errSDK },
		func(f *fakeFrame) { f.values = f.values[:3] },
		func(f *fakeFrame) { f.thermal = solid(5, 4, color.RGBA{}) },
	}
	for i, mutate := range data {
		raw := newFakeFrame()
		mutate(raw)
		if _, err := a.Assemble(raw, cfg); !errors.Is(err, ErrFrameProcessing) {
			t.Fatalf("%d: %v", i, err)
		}
	}
	if _, err := a.Assemble(newFakeFrame(), cfg); err != nil {
		t.Fatal(err)
	}
	s := a.Stats()
	if s.Failed != uint64(len(data)) || s.GoodFrames != 1 || s.LastFail == nil {
		t.Fatalf("%+v", s)
	}
	if _, err := a.Assemble(nil, cfg); !errors.Is(err, ErrInvalidArgument) {
		t.Fatal(err)
	}
}
