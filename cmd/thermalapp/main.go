// Copyright 2026 The Learningbuilding Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// thermalapp streams a thermal camera to a web page with a temperature
// overlay.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"os"
	"runtime/pprof"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/maruel/interrupt"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/skybluego123/Learningbuilding/camera"
	"github.com/skybluego123/Learningbuilding/cameratest"
	"github.com/skybluego123/Learningbuilding/internal/config"
	"github.com/skybluego123/Learningbuilding/internal/display"
	"github.com/skybluego123/Learningbuilding/telemetry"
	"github.com/skybluego123/Learningbuilding/thermal"
)

func mainImpl() error {
	configPath := flag.String("config", "", "path to thermalapp.yaml; defaults to ~/.config/thermalapp/thermalapp.yaml")
	cpuprofile := flag.String("cpuprofile", "", "dump CPU profile in file")
	connect := flag.String("connect", "cpp", "camera to connect to on startup: physical, cpp, flirone or none")
	verbose := flag.Bool("v", false, "verbose mode")
	flag.Parse()
	if flag.NArg() != 0 {
		return fmt.Errorf("unexpected argument: %s", flag.Args())
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05.000"})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	gin.SetMode(gin.ReleaseMode)
	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			return err
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			return err
		}
		defer pprof.StopCPUProfile()
	}

	interrupt.HandleCtrlC()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-interrupt.Channel
		cancel()
	}()

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
	if !cfg.Camera.Emulator {
		return errors.New("no camera SDK is available on this platform; set camera.emulator to true")
	}

	rule, err := cfg.Rule()
	if err != nil {
		return err
	}
	thresholds := thermal.NewThresholdConfig()
	if _, err := cfg.Commit(thresholds); err != nil {
		return err
	}
	assembler := thermal.NewAssembler(rule)
	queue := thermal.NewFrameQueue(thermal.QueueCapacity)
	hub := display.NewHub()
	p, err := camera.NewPipeline(camera.PipelineOptions{
		Camera: cameratest.New(cameratest.Options{
			Size:          image.Pt(cfg.Camera.Width, cfg.Camera.Height),
			FrameInterval: cfg.Camera.FrameInterval,
		}),
		Discoverer: &cameratest.Discovery{},
		Assembler:  assembler,
		Thresholds: thresholds,
		Queue:      queue,
		OnStatus: func(s camera.Status) {
			log.Info().Stringer("status", s).Msg("camera")
		},
	})
	if err != nil {
		return err
	}
	m := camera.NewManager(p, &cameratest.Permissions{})

	var poller *telemetry.Poller
	if cfg.Telemetry.BaseURL != "" {
		poller = &telemetry.Poller{
			Client: &telemetry.Client{
				BaseURL:  cfg.Telemetry.BaseURL,
				Email:    cfg.Telemetry.Email,
				Password: cfg.Telemetry.Password,
			},
			Sensors:  cfg.Telemetry.Sensors,
			Interval: cfg.Telemetry.Interval,
		}
		if cfg.Telemetry.CommitThresholds {
			poller.Thresholds = thresholds
		}
	}

	srv, err := display.New(display.Options{
		Manager:    m,
		Thresholds: thresholds,
		Assembler:  assembler,
		Hub:        hub,
		Poller:     poller,
	})
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	errs := make(chan error, 4)
	run := func(name string, fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(); err != nil && !errors.Is(err, context.Canceled) {
				errs <- fmt.Errorf("%s: %w", name, err)
				cancel()
			}
		}()
	}
	run("display", func() error { return hub.Consume(ctx, queue) })
	run("http", func() error { return srv.ListenAndServe(ctx, cfg.ServerAddress(), cfg.Server.ReadTimeout) })
	run("config", func() error {
		return config.Watch(ctx, *configPath, func(c *config.Config) {
			s, err := c.Commit(thresholds)
			if err != nil {
				log.Warn().Err(err).Msg("config")
				return
			}
			r, err := c.Rule()
			if err != nil {
				log.Warn().Err(err).Msg("config")
				return
			}
			assembler.SetRule(r)
			log.Info().Stringer("thresholds", s).Stringer("overlay", r).Msg("config applied")
		})
	})
	if poller != nil {
		run("telemetry", func() error { return poller.Run(ctx) })
	}

	if err := autoConnect(ctx, m, *connect); err != nil {
		log.Error().Err(err).Msg("connect")
	}

	t := time.NewTicker(time.Second)
	defer t.Stop()
loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case <-t.C:
			stats := assembler.Stats()
			fmt.Fprintf(os.Stderr, "\r%d frames %.1f fps %d failed %d dropped", stats.GoodFrames, hub.Rate(), stats.Failed, p.Dropped())
		}
	}
	fmt.Fprint(os.Stderr, "\n")

	if err := m.Disconnect(); err != nil {
		log.Warn().Err(err).Msg("disconnect")
	}
	queue.Close()
	hub.Close()
	wg.Wait()
	close(errs)
	var all []error
	for err := range errs {
		all = append(all, err)
	}
	return errors.Join(all...)
}

// autoConnect discovers the cameras and connects to target.
func autoConnect(ctx context.Context, m *camera.Manager, target string) error {
	var connect func(context.Context) error
	switch target {
	case "none":
		return nil
	case "physical":
		connect = m.ConnectPhysical
	case "cpp":
		connect = m.ConnectEmulatorCpp
	case "flirone":
		connect = m.ConnectEmulatorFlirOne
	default:
		return fmt.Errorf("unknown camera %q", target)
	}
	if err := m.StartDiscovery(); err != nil {
		return err
	}
	// Give discovery a moment to report the cameras.
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(500 * time.Millisecond):
	}
	return connect(ctx)
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "\nthermalapp: %s.\n", err)
		os.Exit(1)
	}
}
