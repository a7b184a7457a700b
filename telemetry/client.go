// Copyright 2026 The Learningbuilding Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package telemetry fetches ambient temperature and humidity from the remote
// sensor service.
//
// The service uses a two step OAuth-like exchange: the credentials are traded
// for an authorization code, which is traded for an access token. The token is
// then sent as-is in the Authorization header.
package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"periph.io/x/periph/conn/physic"
)

// ErrTelemetryFetch is returned when the sensor service could not be queried.
var ErrTelemetryFetch = errors.New("telemetry: fetch failed")

// Reading is the most recent sample of one sensor.
type Reading struct {
	Sensor      string
	Temperature physic.Temperature
	Humidity    physic.RelativeHumidity
	Fetched     time.Time
}

// TemperatureK returns the temperature in K.
func (r Reading) TemperatureK() float64 {
	return float64(r.Temperature) / float64(physic.Kelvin)
}

// HumidityPercent returns the relative humidity in %rH.
func (r Reading) HumidityPercent() float64 {
	return float64(r.Humidity) / float64(physic.PercentRH)
}

func (r Reading) String() string {
	return fmt.Sprintf("%s: %s %s", r.Sensor, r.Temperature, r.Humidity)
}

// Client talks to the sensor service.
type Client struct {
	BaseURL  string
	Email    string
	Password string
	// HTTP defaults to a client with a 10s timeout.
	HTTP *http.Client
}

// Authenticate returns an access token.
func (c *Client) Authenticate(ctx context.Context) (string, error) {
	var auth struct {
		Authorization string `json:"authorization"`
	}
	req := map[string]string{"email": c.Email, "password": c.Password}
	if err := c.post(ctx, "/oauth/authorize", "", req, &auth); err != nil {
		return "", err
	}
	if auth.Authorization == "" {
		return "", fmt.Errorf("%w: empty authorization code", ErrTelemetryFetch)
	}
	var token struct {
		AccessToken string `json:"accesstoken"`
	}
	req = map[string]string{"authorization": auth.Authorization, "password": c.Password}
	if err := c.post(ctx, "/oauth/accesstoken", "", req, &token); err != nil {
		return "", err
	}
	if token.AccessToken == "" {
		return "", fmt.Errorf("%w: empty access token", ErrTelemetryFetch)
	}
	return token.AccessToken, nil
}

// Sample returns the latest sample of sensor.
func (c *Client) Sample(ctx context.Context, token, sensor string) (Reading, error) {
	r, err := c.Samples(ctx, token, sensor)
	if err != nil {
		return Reading{}, err
	}
	return r[0], nil
}

// Samples returns the latest sample of each sensor with a single request, in
// the same order.
func (c *Client) Samples(ctx context.Context, token string, sensors ...string) ([]Reading, error) {
	if len(sensors) == 0 {
		return nil, fmt.Errorf("%w: no sensor", ErrTelemetryFetch)
	}
	var resp struct {
		Sensors map[string][]struct {
			Temperature number `json:"temperature"`
			Humidity    number `json:"humidity"`
		} `json:"sensors"`
	}
	if err := c.post(ctx, "/samples", token, map[string]int{"limit": 1}, &resp); err != nil {
		return nil, err
	}
	now := time.Now()
	out := make([]Reading, 0, len(sensors))
	for _, name := range sensors {
		s := resp.Sensors[name]
		if len(s) == 0 {
			return nil, fmt.Errorf("%w: no sample for sensor %q", ErrTelemetryFetch, name)
		}
		out = append(out, Reading{
			Sensor:      name,
			Temperature: physic.ZeroCelsius + physic.Temperature(math.Round(float64(s[0].Temperature)*float64(physic.Celsius))),
			Humidity:    physic.RelativeHumidity(math.Round(float64(s[0].Humidity) * float64(physic.PercentRH))),
			Fetched:     now,
		})
	}
	return out, nil
}

// post sends in as JSON to path and decodes the JSON response into out.
func (c *Client) post(ctx context.Context, path, token string, in, out interface{}) error {
	b, err := json.Marshal(in)
	if err != nil {
		return err
	}
	url := strings.TrimSuffix(c.BaseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTelemetryFetch, err)
	}
	req.Header.Set("Content-Type", "application/json; utf-8")
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	h := c.HTTP
	if h == nil {
		h = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := h.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrTelemetryFetch, path, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrTelemetryFetch, path, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s: %s", ErrTelemetryFetch, path, resp.Status)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrTelemetryFetch, path, err)
	}
	return nil
}

// number decodes a JSON number or a string holding one. The service sends
// strings.
type number float64

func (n *number) UnmarshalJSON(b []byte) error {
	s := string(b)
	if len(s) >= 2 && s[0] == '"' {
		var err error
		if s, err = strconv.Unquote(s); err != nil {
			return err
		}
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return err
	}
	*n = number(v)
	return nil
}
