// Copyright 2026 The Learningbuilding Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// sensor-query fetches the latest readings of the ambient sensors and prints
// the resulting dew point.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/skybluego123/Learningbuilding/internal/config"
	"github.com/skybluego123/Learningbuilding/telemetry"
	"github.com/skybluego123/Learningbuilding/thermal"
)

func mainImpl() error {
	configPath := flag.String("config", "", "path to thermalapp.yaml; defaults to ~/.config/thermalapp/thermalapp.yaml")
	timeout := flag.Duration("timeout", 10*time.Second, "query timeout")
	verbose := flag.Bool("v", false, "verbose mode")
	flag.Parse()
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	sensors := flag.Args()
	if *configPath == "" {
		var err error
		if *configPath, err = config.DefaultPath(); err != nil {
			return err
		}
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if cfg.Telemetry.BaseURL == "" {
		return fmt.Errorf("telemetry.base_url is not set in %s", *configPath)
	}
	if len(sensors) == 0 {
		sensors = cfg.Telemetry.Sensors
	}
	if len(sensors) == 0 {
		return errors.New("supply sensor names")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	thresholds := thermal.NewThresholdConfig()
	p := &telemetry.Poller{
		Client: &telemetry.Client{
			BaseURL:  cfg.Telemetry.BaseURL,
			Email:    cfg.Telemetry.Email,
			Password: cfg.Telemetry.Password,
		},
		Sensors:    sensors,
		Thresholds: thresholds,
	}
	if err := p.Poll(ctx); err != nil {
		return err
	}
	for i := range sensors {
		r, _ := p.Reading(i)
		fmt.Printf("%d %-16s %s  %s\n", i, r.Sensor, r.Temperature, r.Humidity)
	}
	s := thresholds.Snapshot()
	fmt.Printf("Dew point (sensor 0): %.3f°C\n", s.DisplayDewPointC())
	return nil
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "\nsensor-query: %s.\n", err)
		os.Exit(1)
	}
}
