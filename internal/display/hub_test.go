// Copyright 2026 The Learningbuilding Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package display

import (
	"context"
	"image"
	"image/color"
	"math"
	"testing"
	"time"

	"github.com/skybluego123/Learningbuilding/thermal"
)

func makeFrame(seq uint64, ts time.Time) *thermal.ProcessedFrame {
	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	for y := 0; y < 3; y++ {
		for x := 0; x < 4; x++ {
			img.SetRGBA(x, y, color.RGBA{uint8(x * 60), uint8(y * 100), 0, 255})
		}
	}
	return &thermal.ProcessedFrame{
		Image:     img,
		Scale:     thermal.Scale{Min: 23.7, Max: 9999},
		Min:       21,
		Max:       35.5,
		Seq:       seq,
		Timestamp: ts,
	}
}

func TestHub(t *testing.T) {
	h := NewHub()
	if h.Latest() != nil || h.Count() != 0 || h.Rate() != 0 {
		t.Fatal("not empty")
	}
	start := time.Now()
	for i := 0; i < 3; i++ {
		h.Add(makeFrame(uint64(i+1), start.Add(time.Duration(i)*100*time.Millisecond)))
	}
	if f := h.Latest(); f.Seq != 3 {
		t.Fatal(f.Seq)
	}
	if r := h.Rate(); math.Abs(r-10) > 1e-6 {
		t.Fatal(r)
	}
	// Wrap around the history.
	for i := 3; i < 2*historySize+5; i++ {
		h.Add(makeFrame(uint64(i+1), start.Add(time.Duration(i)*100*time.Millisecond)))
	}
	if r := h.Rate(); math.Abs(r-10) > 1e-6 {
		t.Fatal(r)
	}
	if c := h.Count(); c != 2*historySize+5 {
		t.Fatal(c)
	}
	if f := h.Latest(); f.Seq != 2*historySize+5 {
		t.Fatal(f.Seq)
	}
}

func TestHub_next(t *testing.T) {
	h := NewHub()
	ctx := context.Background()
	type result struct {
		f  *thermal.ProcessedFrame
		n  uint64
		ok bool
	}
	wait := func(ctx context.Context, seen uint64) chan result {
		c := make(chan result, 1)
		go func() {
			f, n, ok := h.next(ctx, seen)
			c <- result{f, n, ok}
		}()
		return c
	}

	c := wait(ctx, 0)
	select {
	case <-c:
		t.Fatal("returned without a frame")
	case <-time.After(10 * time.Millisecond):
	}
	h.Add(makeFrame(1, time.Now()))
	if r := <-c; !r.ok || r.n != 1 || r.f.Seq != 1 {
		t.Fatalf("%+v", r)
	}

	// A slow reader only gets the latest frame.
	h.Add(makeFrame(2, time.Now()))
	h.Add(makeFrame(3, time.Now()))
	if r := <-wait(ctx, 1); !r.ok || r.n != 3 || r.f.Seq != 3 {
		t.Fatalf("%+v", r)
	}

	cctx, cancel := context.WithCancel(ctx)
	c = wait(cctx, 3)
	cancel()
	if r := <-c; r.ok {
		t.Fatalf("%+v", r)
	}

	c = wait(ctx, 3)
	h.Close()
	if r := <-c; r.ok {
		t.Fatalf("%+v", r)
	}
}

func TestHub_Consume(t *testing.T) {
	h := NewHub()
	q := thermal.NewFrameQueue(4)
	ctx := context.Background()
	for i := 1; i <= 3; i++ {
		if err := q.Push(ctx, makeFrame(uint64(i), time.Now())); err != nil {
			t.Fatal(err)
		}
	}
	q.Close()
	if err := h.Consume(ctx, q); err != nil {
		t.Fatal(err)
	}
	if h.Count() != 3 || h.Latest().Seq != 3 {
		t.Fatal(h.Count())
	}

	cctx, cancel := context.WithCancel(ctx)
	cancel()
	if err := h.Consume(cctx, thermal.NewFrameQueue(1)); err != context.Canceled {
		t.Fatal(err)
	}
}

func TestRender(t *testing.T) {
	f := makeFrame(1, time.Now())
	if got, want := Legend(f), "23.7C - 9999C  min 21.0C max 35.5C"; got != want {
		t.Fatalf("%q != %q", got, want)
	}
	img := Render(f, 4)
	if b := img.Bounds(); b.Dx() != 16 || b.Dy() != 12+legendHeight {
		t.Fatal(b)
	}
	for _, p := range []image.Point{{0, 0}, {3, 2}, {1, 1}} {
		want := f.Image.RGBAAt(p.X, p.Y)
		for _, d := range []image.Point{{0, 0}, {3, 3}} {
			if got := img.RGBAAt(p.X*4+d.X, p.Y*4+d.Y); got != want {
				t.Fatalf("%v+%v: %v != %v", p, d, got, want)
			}
		}
	}
	if img.RGBAAt(15, 12+legendHeight-1) != (color.RGBA{0, 0, 0, 255}) {
		t.Fatal("legend background")
	}
	if img := Render(f, 0); img.Bounds().Dx() != 4 {
		t.Fatal(img.Bounds())
	}
}
