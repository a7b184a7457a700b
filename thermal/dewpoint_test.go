// Copyright 2026 The Learningbuilding Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package thermal

import (
	"errors"
	"fmt"
	"math"
	"testing"
)

func TestDewPoint(t *testing.T) {
	data := []struct {
		t, rh float64
		want  float64
	}{
		{298, 50, 266.444937226416},
		{298, 100, 298},
		{300, 50, 268.2955445041844},
		{273.15, 80, 263.3068438848972},
	}
	for i, line := range data {
		got, err := DewPoint(line.t, line.rh)
		if err != nil {
			t.Fatalf("%d: %v", i, err)
		}
		if math.Abs(got-line.want) > 1e-9 {
			t.Fatalf("%d: DewPoint(%g, %g) = %.12g, want %.12g", i, line.t, line.rh, got, line.want)
		}
	}
}

func TestDewPoint_golden(t *testing.T) {
	got, err := DewPoint(298.0, 50.0)
	if err != nil {
		t.Fatal(err)
	}
	if r := math.Round(got*1000) / 1000; r != 266.445 {
		t.Fatalf("%.3f", got)
	}
}

func TestDewPointC(t *testing.T) {
	data := []struct {
		c, rh float64
		want  string
	}{
		{20, 50, "9.211"},
		{24.85, 50, "13.698"},
		{20, 100, "20.000"},
	}
	for i, line := range data {
		got, err := DewPointC(line.c, line.rh)
		if err != nil {
			t.Fatal(err)
		}
		if s := fmt.Sprintf("%.3f", got); s != line.want {
			t.Fatalf("%d: DewPointC(%g, %g) = %s, want %s", i, line.c, line.rh, s, line.want)
		}
	}
	// The displayed value is not the Kelvin cutoff converted to °C.
	k, _ := DewPoint(20+ZeroCelsius, 50)
	if c, _ := DewPointC(20, 50); math.Abs(c-(k-ZeroCelsius)) < 1 {
		t.Fatal(c, k)
	}
	if _, err := DewPointC(20, 0); !errors.Is(err, ErrInvalidArgument) {
		t.Fatal(err)
	}
}

func TestDewPoint_monotonic(t *testing.T) {
	for _, rh := range []float64{0.5, 10, 35, 50, 80, 99.9, 100} {
		prev := math.Inf(-1)
		for k := 200.0; k < 350; k += 0.5 {
			got, err := DewPoint(k, rh)
			if err != nil {
				t.Fatal(err)
			}
			if !(got > prev) {
				t.Fatalf("rh=%g: DewPoint(%g) = %g <= %g", rh, k, got, prev)
			}
			again, _ := DewPoint(k, rh)
			if again != got {
				t.Fatalf("not deterministic: %g != %g", again, got)
			}
			prev = got
		}
	}
}

func TestDewPoint_invalid(t *testing.T) {
	data := []struct{ t, rh float64 }{
		{298, math.NaN()},
		{298, 0},
		{298, -1},
		{298, 100.01},
		{math.NaN(), 50},
		{math.Inf(1), 50},
	}
	for i, line := range data {
		if _, err := DewPoint(line.t, line.rh); !errors.Is(err, ErrInvalidArgument) {
			t.Fatalf("%d: DewPoint(%g, %g): %v", i, line.t, line.rh, err)
		}
	}
}
