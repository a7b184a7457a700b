// Copyright 2026 The Learningbuilding Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package telemetry

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/skybluego123/Learningbuilding/thermal"
)

// DefaultInterval is the polling period of the sensor service.
const DefaultInterval = 5 * time.Second

// Poller periodically fetches the sensors and keeps the last good reading of
// each.
type Poller struct {
	Client *Client
	// Sensors are the sensor names; the index is the sensor ID.
	Sensors  []string
	Interval time.Duration
	// Thresholds, when set, receives the reading of sensor 0 after each
	// successful poll.
	Thresholds *thermal.ThresholdConfig

	mu      sync.Mutex
	token   string
	last    []Reading
	ok      []bool
	lastErr error
}

// Run polls until ctx is done.
func (p *Poller) Run(ctx context.Context) error {
	interval := p.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		if err := p.Poll(ctx); err != nil {
			log.Warn().Err(err).Msg("telemetry")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
}

// Poll fetches all sensors once.
//
// On failure the previous readings are kept and the error wraps
// ErrTelemetryFetch.
func (p *Poller) Poll(ctx context.Context) error {
	if len(p.Sensors) == 0 {
		return errors.New("telemetry: no sensor configured")
	}
	readings, err := p.fetch(ctx)
	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		p.lastErr = err
		return err
	}
	p.lastErr = nil
	if len(p.last) != len(p.Sensors) {
		p.last = make([]Reading, len(p.Sensors))
		p.ok = make([]bool, len(p.Sensors))
	}
	copy(p.last, readings)
	for i := range p.ok {
		p.ok[i] = true
	}
	for _, r := range readings {
		log.Info().Str("sensor", r.Sensor).Stringer("temperature", r.Temperature).Stringer("humidity", r.Humidity).Msg("reading")
	}
	if p.Thresholds != nil {
		s, err := p.Thresholds.Commit(readings[0].TemperatureK(), readings[0].HumidityPercent())
		if err != nil {
			return err
		}
		log.Info().Stringer("thresholds", s).Msg("thresholds updated from sensor")
	}
	return nil
}

func (p *Poller) fetch(ctx context.Context) ([]Reading, error) {
	p.mu.Lock()
	token := p.token
	p.mu.Unlock()
	if token == "" {
		var err error
		if token, err = p.Client.Authenticate(ctx); err != nil {
			return nil, err
		}
	}
	readings, err := p.Client.Samples(ctx, token, p.Sensors...)
	p.mu.Lock()
	if err != nil {
		// The token may have expired; get a new one next time.
		p.token = ""
	} else {
		p.token = token
	}
	p.mu.Unlock()
	return readings, err
}

// Reading returns the last good reading of the sensor with ID id.
func (p *Poller) Reading(id int) (Reading, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if id < 0 || id >= len(p.last) || !p.ok[id] {
		return Reading{}, false
	}
	return p.last[id], true
}

// Err returns the error of the last poll, if it failed.
func (p *Poller) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastErr
}
