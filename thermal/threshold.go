// Copyright 2026 The Learningbuilding Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package thermal

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"periph.io/x/periph/conn/physic"
)

// Default cutoffs, as shipped in the FLIR ONE app.
const (
	DefaultCutoffTemperatureK = 298
	DefaultCutoffHumidity     = 100
	DefaultCutoffDewPointK    = 0
)

// Snapshot is a consistent view of the three cutoffs.
type Snapshot struct {
	TemperatureK float64
	Humidity     float64 // %rH
	DewPointK    float64
}

// Temperature returns the temperature cutoff.
func (s Snapshot) Temperature() physic.Temperature {
	return kelvinToPhysic(s.TemperatureK)
}

// DewPoint returns the dew point cutoff.
func (s Snapshot) DewPoint() physic.Temperature {
	return kelvinToPhysic(s.DewPointK)
}

// DisplayDewPointC returns the dew point in °C as presented to the user.
func (s Snapshot) DisplayDewPointC() float64 {
	v, err := DewPointC(s.TemperatureK-ZeroCelsius, s.Humidity)
	if err != nil {
		return math.NaN()
	}
	return v
}

// RelativeHumidity returns the humidity cutoff.
func (s Snapshot) RelativeHumidity() physic.RelativeHumidity {
	return physic.RelativeHumidity(math.Round(s.Humidity * float64(physic.PercentRH)))
}

// CutoffFor returns the cutoff in °C that rule compares the matrix against.
//
// SingleThreshold uses the temperature cutoff. DottedThreshold uses the dew
// point cutoff; the frame's surface temperatures are compared to the dew point
// to show where condensation may form.
func (s Snapshot) CutoffFor(rule Rule) float64 {
	switch rule.(type) {
	case DottedThreshold:
		return s.DewPointK - ZeroCelsius
	default:
		return s.TemperatureK - ZeroCelsius
	}
}

func (s Snapshot) String() string {
	return fmt.Sprintf("cutoff %s at %s => dew point %s", s.Temperature(), s.RelativeHumidity(), s.DewPoint())
}

// ThresholdConfig holds the cutoffs shared between the control side, which
// commits new values, and the frame assembler, which reads them.
//
// Readers always observe the three fields from the same commit.
type ThresholdConfig struct {
	mu  sync.Mutex // serializes writers
	cur atomic.Pointer[Snapshot]
}

// NewThresholdConfig returns a config initialized to the defaults.
func NewThresholdConfig() *ThresholdConfig {
	t := &ThresholdConfig{}
	t.cur.Store(&Snapshot{
		TemperatureK: DefaultCutoffTemperatureK,
		Humidity:     DefaultCutoffHumidity,
		DewPointK:    DefaultCutoffDewPointK,
	})
	return t
}

// Snapshot returns the current cutoffs.
func (t *ThresholdConfig) Snapshot() Snapshot {
	return *t.cur.Load()
}

// CommitTemperature sets the temperature cutoff in K and recomputes the dew
// point.
func (t *ThresholdConfig) CommitTemperature(tempK float64) (Snapshot, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.commitLocked(tempK, t.cur.Load().Humidity)
}

// CommitHumidity sets the humidity cutoff in %rH and recomputes the dew point.
func (t *ThresholdConfig) CommitHumidity(rh float64) (Snapshot, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.commitLocked(t.cur.Load().TemperatureK, rh)
}

// Commit sets both the temperature and the humidity cutoffs at once.
func (t *ThresholdConfig) Commit(tempK, rh float64) (Snapshot, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.commitLocked(tempK, rh)
}

func (t *ThresholdConfig) commitLocked(tempK, rh float64) (Snapshot, error) {
	dp, err := DewPoint(tempK, rh)
	if err != nil {
		return *t.cur.Load(), err
	}
	s := &Snapshot{TemperatureK: tempK, Humidity: rh, DewPointK: dp}
	t.cur.Store(s)
	return *s, nil
}

// ParseRule returns the Rule named name, "single" or "dotted". dotSize and
// stride are only used by "dotted"; 0 selects the default.
func ParseRule(name string, dotSize, stride int) (Rule, error) {
	switch name {
	case "single", "":
		return SingleThreshold{}, nil
	case "dotted":
		d := NewDottedThreshold(0)
		if dotSize != 0 {
			d.DotSize = dotSize
		}
		if stride != 0 {
			d.Stride = stride
		}
		if d.DotSize < 0 || d.Stride < 0 {
			return nil, fmt.Errorf("%w: dot size %d, stride %d", ErrInvalidArgument, d.DotSize, d.Stride)
		}
		return d, nil
	default:
		return nil, fmt.Errorf("%w: unknown overlay %q", ErrInvalidArgument, name)
	}
}

func kelvinToPhysic(k float64) physic.Temperature {
	return physic.Temperature(math.Round(k * float64(physic.Kelvin)))
}
