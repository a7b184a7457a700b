// Copyright 2026 The Learningbuilding Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package thermal

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"

	"periph.io/x/periph/conn/physic"
)

func TestThresholdConfig_defaults(t *testing.T) {
	s := NewThresholdConfig().Snapshot()
	if s.TemperatureK != 298 || s.Humidity != 100 || s.DewPointK != 0 {
		t.Fatalf("%+v", s)
	}
	if s.Temperature() != 298*physic.Kelvin {
		t.Fatal(s.Temperature())
	}
	if s.RelativeHumidity() != 100*physic.PercentRH {
		t.Fatal(s.RelativeHumidity())
	}
}

func TestThresholdConfig_commit(t *testing.T) {
	c := NewThresholdConfig()
	s, err := c.CommitHumidity(50)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(s.DewPointK-266.444937226416) > 1e-9 {
		t.Fatalf("%+v", s)
	}
	s, err = c.CommitTemperature(300)
	if err != nil {
		t.Fatal(err)
	}
	if s.Humidity != 50 || math.Abs(s.DewPointK-268.2955445041844) > 1e-9 {
		t.Fatalf("%+v", s)
	}
	if got := c.Snapshot(); got != s {
		t.Fatalf("%+v != %+v", got, s)
	}
}

func TestThresholdConfig_commitInvalid(t *testing.T) {
	c := NewThresholdConfig()
	before := c.Snapshot()
	if _, err := c.CommitHumidity(math.NaN()); !errors.Is(err, ErrInvalidArgument) {
		t.Fatal(err)
	}
	if _, err := c.Commit(math.NaN(), 50); !errors.Is(err, ErrInvalidArgument) {
		t.Fatal(err)
	}
	if got := c.Snapshot(); got != before {
		t.Fatalf("%+v", got)
	}
}

// Readers never see a triple that wasn't committed together.
func TestThresholdConfig_consistent(t *testing.T) {
	c := NewThresholdConfig()
	var wg sync.WaitGroup
	stop := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			if _, err := c.Commit(280+float64(i%40), 10+float64(i%90)); err != nil {
				t.Error(err)
				return
			}
		}
	}()
	for i := 0; i < 10000; i++ {
		s := c.Snapshot()
		if s.DewPointK == 0 {
			continue
		}
		want, err := DewPoint(s.TemperatureK, s.Humidity)
		if err != nil {
			t.Fatal(err)
		}
		if want != s.DewPointK {
			t.Fatalf("torn read %+v", s)
		}
	}
	close(stop)
	wg.Wait()
}

func TestSnapshot_CutoffFor(t *testing.T) {
	s := Snapshot{TemperatureK: 300, Humidity: 50, DewPointK: 273.15}
	if v := s.CutoffFor(SingleThreshold{}); math.Abs(v-26.85) > 1e-9 {
		t.Fatal(v)
	}
	if v := s.CutoffFor(NewDottedThreshold(0)); v != 0 {
		t.Fatal(v)
	}
}

func TestSnapshot_DisplayDewPointC(t *testing.T) {
	s := Snapshot{TemperatureK: 20 + ZeroCelsius, Humidity: 50, DewPointK: 266}
	if v := fmt.Sprintf("%.3f", s.DisplayDewPointC()); v != "9.211" {
		t.Fatal(v)
	}
	if v := NewThresholdConfig().Snapshot().DisplayDewPointC(); fmt.Sprintf("%.3f", v) != "24.850" {
		t.Fatal(v)
	}
	if v := (Snapshot{}).DisplayDewPointC(); !math.IsNaN(v) {
		t.Fatal(v)
	}
}

func TestParseRule(t *testing.T) {
	r, err := ParseRule("single", 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := r.(SingleThreshold); !ok {
		t.Fatalf("%T", r)
	}
	r, err = ParseRule("dotted", 0, 4)
	if err != nil {
		t.Fatal(err)
	}
	if d, ok := r.(DottedThreshold); !ok || d.DotSize != DefaultDotSize || d.Stride != 4 {
		t.Fatalf("%#v", r)
	}
	if _, err := ParseRule("dotted", -1, 0); !errors.Is(err, ErrInvalidArgument) {
		t.Fatal(err)
	}
	if _, err := ParseRule("stripes", 0, 0); !errors.Is(err, ErrInvalidArgument) {
		t.Fatal(err)
	}
}
