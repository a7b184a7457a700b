// Copyright 2026 The Learningbuilding Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package cameratest

import (
	"math/rand"
)

type vector struct {
	intensity float64 // °C at the center.
	x         float64
	y         float64
}

// noise is cheezy but gets us going for testing without a device.
//
// It is a few hot and cold spots drifting slowly over an ambient background.
type noise struct {
	rand    *rand.Rand
	w, h    int
	vectors []vector
}

func makeNoise(seed int64, w, h int) *noise {
	n := &noise{rand: rand.New(rand.NewSource(seed)), w: w, h: h}
	n.vectors = make([]vector, 10)
	for i := range n.vectors {
		n.vectors[i].intensity = n.rand.NormFloat64() * 8
		n.vectors[i].x = n.rand.NormFloat64()*float64(w)/6 + float64(w)/2
		n.vectors[i].y = n.rand.NormFloat64()*float64(h)/6 + float64(h)/2
	}
	return n
}

func (n *noise) update() {
	for i := range n.vectors {
		n.vectors[i].intensity += n.rand.NormFloat64() * 0.1
		n.vectors[i].x += n.rand.NormFloat64() * 0.2
		n.vectors[i].y += n.rand.NormFloat64() * 0.2
	}
}

// render writes the temperature of each pixel in °C into dst, row-major.
func (n *noise) render(ambient float64, dst []float64) {
	const dynamicRange = 15.
	for y := 0; y < n.h; y++ {
		fy := float64(y)
		for x := 0; x < n.w; x++ {
			fx := float64(x)
			value := ambient
			for _, v := range n.vectors {
				d := (v.x-fx)*(v.x-fx) + (v.y-fy)*(v.y-fy)
				value += v.intensity * 16 / (d + 16)
			}
			if value > ambient+dynamicRange {
				value = ambient + dynamicRange
			}
			if value < ambient-dynamicRange {
				value = ambient - dynamicRange
			}
			dst[y*n.w+x] = value
		}
	}
}
