// Copyright 2026 The Learningbuilding Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package config loads the thermalapp configuration file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"os"
	"os/user"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/skybluego123/Learningbuilding/telemetry"
	"github.com/skybluego123/Learningbuilding/thermal"
)

// Config is the content of thermalapp.yaml.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Threshold ThresholdConfig `yaml:"threshold"`
	Camera    CameraConfig    `yaml:"camera"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig is the HTTP server.
type ServerConfig struct {
	Host        string        `yaml:"host"`
	Port        int           `yaml:"port"`
	ReadTimeout time.Duration `yaml:"read_timeout"`
}

// ThresholdConfig is the overlay.
type ThresholdConfig struct {
	TemperatureC float64 `yaml:"temperature_c"`
	Humidity     float64 `yaml:"humidity"` // %rH
	Overlay      string  `yaml:"overlay"`  // "single" or "dotted"
	DotSize      int     `yaml:"dot_size"`
	Stride       int     `yaml:"stride"`
}

// CameraConfig selects the camera.
type CameraConfig struct {
	Emulator      bool          `yaml:"emulator"`
	FrameInterval time.Duration `yaml:"frame_interval"` // Emulator only.
	Width         int           `yaml:"width"`          // Emulator only.
	Height        int           `yaml:"height"`         // Emulator only.
}

// TelemetryConfig is the remote sensor service. It is disabled when BaseURL
// is empty.
type TelemetryConfig struct {
	BaseURL  string        `yaml:"base_url"`
	Email    string        `yaml:"email"`
	Password string        `yaml:"password"`
	Sensors  []string      `yaml:"sensors"`
	Interval time.Duration `yaml:"interval"`
	// CommitThresholds feeds the first sensor's reading into the thresholds.
	CommitThresholds bool `yaml:"commit_thresholds"`
}

// Default returns the configuration used when there is no file.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Host: "0.0.0.0", Port: 8010, ReadTimeout: 10 * time.Second},
		Threshold: ThresholdConfig{
			TemperatureC: 24.85, // 298K
			Humidity:     thermal.DefaultCutoffHumidity,
			Overlay:      "single",
			DotSize:      thermal.DefaultDotSize,
			Stride:       thermal.DefaultStride,
		},
		Camera:    CameraConfig{Emulator: true, FrameInterval: 111 * time.Millisecond, Width: 80, Height: 60},
		Telemetry: TelemetryConfig{Interval: telemetry.DefaultInterval},
	}
}

// DefaultPath returns ~/.config/thermalapp/thermalapp.yaml.
func DefaultPath() (string, error) {
	usr, err := user.Current()
	if err != nil {
		return "", err
	}
	return filepath.Join(usr.HomeDir, ".config", "thermalapp", "thermalapp.yaml"), nil
}

// Parse decodes data over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	c := Default()
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Load reads path, or creates it with the defaults if missing.
//
// The file is normalized: if it differs from its canonical form, e.g. a new
// field was added, it is rewritten. Environment overrides are applied after
// and never written back.
func Load(path string) (*Config, error) {
	src, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: %w", err)
	}
	c, err := Parse(src)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if !bytes.Equal(src, data) {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			log.Warn().Err(err).Msg("config")
		} else if err := os.WriteFile(path, data, 0o600); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("failed to normalize config")
		}
	}
	if err := c.applyEnv(); err != nil {
		return nil, err
	}
	return c, c.Validate()
}

// applyEnv applies THERMALAPP_HOST and THERMALAPP_PORT.
func (c *Config) applyEnv() error {
	if v := os.Getenv("THERMALAPP_HOST"); v != "" {
		c.Server.Host = v
	}
	if v := os.Getenv("THERMALAPP_PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: THERMALAPP_PORT: %w", err)
		}
		c.Server.Port = p
	}
	return nil
}

// Validate returns an error if the configuration is unusable.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: invalid port %d", c.Server.Port)
	}
	t := c.Threshold
	if math.IsNaN(t.TemperatureC) || math.IsInf(t.TemperatureC, 0) || t.TemperatureC < -thermal.ZeroCelsius {
		return fmt.Errorf("config: invalid temperature %g°C", t.TemperatureC)
	}
	if _, err := thermal.DewPoint(c.TemperatureK(), t.Humidity); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if _, err := c.Rule(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.Camera.FrameInterval < 0 || c.Camera.Width < 0 || c.Camera.Height < 0 {
		return errors.New("config: invalid camera settings")
	}
	if c.Telemetry.BaseURL != "" {
		if n := len(c.Telemetry.Sensors); n < 1 || n > 2 {
			return fmt.Errorf("config: expected 1 or 2 telemetry sensors, got %d", n)
		}
		if c.Telemetry.Interval < 0 {
			return fmt.Errorf("config: invalid telemetry interval %s", c.Telemetry.Interval)
		}
	}
	return nil
}

// ServerAddress returns the address to listen on.
func (c *Config) ServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// TemperatureK returns the temperature cutoff in K.
func (c *Config) TemperatureK() float64 {
	return c.Threshold.TemperatureC + thermal.ZeroCelsius
}

// Rule returns the overlay rule.
func (c *Config) Rule() (thermal.Rule, error) {
	return thermal.ParseRule(c.Threshold.Overlay, c.Threshold.DotSize, c.Threshold.Stride)
}

// Commit stores the threshold section into t.
func (c *Config) Commit(t *thermal.ThresholdConfig) (thermal.Snapshot, error) {
	return t.Commit(c.TemperatureK(), c.Threshold.Humidity)
}
