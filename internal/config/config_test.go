// Copyright 2026 The Learningbuilding Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package config

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/skybluego123/Learningbuilding/thermal"
)

func TestDefault(t *testing.T) {
	c := Default()
	if err := c.Validate(); err != nil {
		t.Fatal(err)
	}
	if math.Abs(c.TemperatureK()-thermal.DefaultCutoffTemperatureK) > 1e-9 {
		t.Fatal(c.TemperatureK())
	}
	if got := c.ServerAddress(); got != "0.0.0.0:8010" {
		t.Fatal(got)
	}
	r, err := c.Rule()
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := r.(thermal.SingleThreshold); !ok {
		t.Fatalf("%T", r)
	}
}

func TestLoad(t *testing.T) {
	t.Setenv("THERMALAPP_HOST", "")
	t.Setenv("THERMALAPP_PORT", "")
	p := filepath.Join(t.TempDir(), "sub", "thermalapp.yaml")
	c, err := Load(p)
	if err != nil {
		t.Fatal(err)
	}
	if c.Server.Port != 8010 {
		t.Fatal(c.Server.Port)
	}
	created, err := os.ReadFile(p)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(created), "temperature_c: 24.85") {
		t.Fatalf("%s", created)
	}

	// A partial file gets the missing fields filled in.
	if err := os.WriteFile(p, []byte("threshold:\n  overlay: dotted\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if c, err = Load(p); err != nil {
		t.Fatal(err)
	}
	r, err := c.Rule()
	if err != nil {
		t.Fatal(err)
	}
	if d, ok := r.(thermal.DottedThreshold); !ok || d.DotSize != thermal.DefaultDotSize || d.Stride != thermal.DefaultStride {
		t.Fatalf("%#v", r)
	}
	normalized, err := os.ReadFile(p)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(normalized), "port: 8010") || !strings.Contains(string(normalized), "overlay: dotted") {
		t.Fatalf("%s", normalized)
	}
}

func TestLoad_env(t *testing.T) {
	t.Setenv("THERMALAPP_HOST", "127.0.0.1")
	t.Setenv("THERMALAPP_PORT", "9000")
	p := filepath.Join(t.TempDir(), "thermalapp.yaml")
	c, err := Load(p)
	if err != nil {
		t.Fatal(err)
	}
	if got := c.ServerAddress(); got != "127.0.0.1:9000" {
		t.Fatal(got)
	}
	b, err := os.ReadFile(p)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(b), "9000") {
		t.Fatalf("override was written back:\n%s", b)
	}

	t.Setenv("THERMALAPP_PORT", "http")
	if _, err := Load(p); err == nil {
		t.Fatal("expected error")
	}
}

func TestParse_invalid(t *testing.T) {
	data := []string{
		"server: [",
		"server:\n  port: 0\n",
		"server:\n  port: 70000\n",
		"threshold:\n  temperature_c: -300\n",
		"threshold:\n  temperature_c: .nan\n",
		"threshold:\n  humidity: 0\n",
		"threshold:\n  humidity: 101\n",
		"threshold:\n  overlay: stripes\n",
		"threshold:\n  overlay: dotted\n  dot_size: -1\n",
		"camera:\n  width: -1\n",
		"telemetry:\n  base_url: http://localhost\n",
		"telemetry:\n  base_url: http://localhost\n  sensors: [a, b, c]\n",
	}
	for i, line := range data {
		if _, err := Parse([]byte(line)); err == nil {
			t.Fatalf("#%d: expected error for %q", i, line)
		}
	}
}

func TestCommit(t *testing.T) {
	c, err := Parse([]byte("threshold:\n  temperature_c: 20\n  humidity: 50\n"))
	if err != nil {
		t.Fatal(err)
	}
	cfg := thermal.NewThresholdConfig()
	s, err := c.Commit(cfg)
	if err != nil {
		t.Fatal(err)
	}
	want, _ := thermal.DewPoint(293.15, 50)
	if s.Humidity != 50 || math.Abs(s.TemperatureK-293.15) > 1e-9 || math.Abs(s.DewPointK-want) > 1e-9 {
		t.Fatalf("%+v", s)
	}
	if cfg.Snapshot() != s {
		t.Fatal("not stored")
	}
}

func TestWatch(t *testing.T) {
	t.Setenv("THERMALAPP_HOST", "")
	t.Setenv("THERMALAPP_PORT", "")
	p := filepath.Join(t.TempDir(), "thermalapp.yaml")
	if _, err := Load(p); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	got := make(chan *Config, 16)
	done := make(chan error)
	go func() {
		done <- Watch(ctx, p, func(c *Config) { got <- c })
	}()

	// The watcher may not be registered yet; keep writing until it fires.
	// The invalid content is ignored.
	_ = os.WriteFile(p, []byte("server:\n  port: 0\n"), 0o600)
	// A write may be observed while the file is still truncated, which parses
	// as the defaults.
	for found := false; !found; {
		if err := os.WriteFile(p, []byte("server:\n  port: 8123\n"), 0o600); err != nil {
			t.Fatal(err)
		}
		select {
		case c := <-got:
			found = c.Server.Port == 8123
		case <-time.After(50 * time.Millisecond):
		}
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatal(err)
	}
}
