// Copyright 2026 The Learningbuilding Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// thermal-grab captures a single image from the emulated camera.
package main

import (
	"errors"
	"flag"
	"fmt"
	"image"
	"image/png"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"periph.io/x/periph/conn/physic"

	"github.com/skybluego123/Learningbuilding/cameratest"
	"github.com/skybluego123/Learningbuilding/internal/display"
	"github.com/skybluego123/Learningbuilding/thermal"
)

func mainImpl() error {
	width := flag.Int("w", 80, "image width")
	height := flag.Int("h", 60, "image height")
	ambient := flag.Float64("ambient", 20, "ambient temperature in °C")
	seed := flag.Int64("seed", 0, "noise seed")
	cutoff := flag.Float64("cutoff", 24.85, "overlay cutoff in °C")
	humidity := flag.Float64("rh", 100, "relative humidity in %, used by the dotted overlay")
	overlay := flag.String("overlay", "single", "overlay: single or dotted")
	zoom := flag.Int("zoom", display.DefaultZoom, "upscaling factor, 0 saves the raw thermal image")
	photo := flag.Bool("photo", false, "save the visual image instead")
	meta := flag.Bool("meta", false, "print metadata")
	verbose := flag.Bool("v", false, "verbose mode")
	flag.Parse()
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	if flag.NArg() != 1 {
		return errors.New("supply path to PNG to save")
	}

	rule, err := thermal.ParseRule(*overlay, 0, 0)
	if err != nil {
		return err
	}
	thresholds := thermal.NewThresholdConfig()
	if _, err := thresholds.Commit(*cutoff+thermal.ZeroCelsius, *humidity); err != nil {
		return err
	}
	emu := cameratest.New(cameratest.Options{
		Size:    image.Pt(*width, *height),
		Ambient: physic.ZeroCelsius + physic.Temperature(*ambient*float64(physic.Kelvin)),
		Seed:    *seed,
	})
	raw := emu.Grab()
	defer raw.Expire()
	frame, err := thermal.NewAssembler(rule).Assemble(raw, thresholds.Snapshot())
	if err != nil {
		return err
	}
	if *meta {
		fmt.Printf("Seq:       %d\n", frame.Seq)
		fmt.Printf("Scale:     %s\n", frame.Scale)
		fmt.Printf("Min:       %.2f°C\n", frame.Min)
		fmt.Printf("Max:       %.2f°C\n", frame.Max)
		fmt.Printf("Overlay:   %s\n", rule.WithCutoff(thresholds.Snapshot().CutoffFor(rule)))
		fmt.Printf("Housing:   %s\n", emu.HousingTemperature())
	}

	var img image.Image = frame.Image
	switch {
	case *photo:
		if frame.Photo == nil {
			return errors.New("the camera has no visual image")
		}
		img = frame.Photo
	case *zoom > 0:
		img = display.Render(frame, *zoom)
	}
	f, err := os.Create(flag.Args()[0])
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "\nthermal-grab: %s.\n", err)
		os.Exit(1)
	}
}
