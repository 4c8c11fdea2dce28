// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// rgbgauge shows the red, green and blue light levels read from an ISL29125
// sensor as three bar gauges on a SSD1306 OLED display.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/GermanBionicSystems/rgbgauge/config"
	"github.com/GermanBionicSystems/rgbgauge/gauge"
	"github.com/GermanBionicSystems/rgbgauge/isl29125"
	"github.com/GermanBionicSystems/rgbgauge/legend"
	"github.com/GermanBionicSystems/rgbgauge/ssd1306"
	"github.com/GermanBionicSystems/rgbgauge/termgauge"
)

// initFunc adapts a function to gauge.Initializer.
type initFunc func() error

func (f initFunc) Init() error {
	return f()
}

// legendWindow returns the strip under the gauges, if the panel has room.
func legendWindow(l gauge.Layout, pages int) (ssd1306.Window, bool) {
	first := l.FirstPage + 3
	if first >= pages {
		return ssd1306.Window{}, false
	}
	return ssd1306.Window{
		ColStart:  l.Col,
		ColEnd:    l.Col + l.Columns - 1,
		PageStart: first,
		PageEnd:   pages - 1,
	}, true
}

// sensorSource reads 8 bit samples. The sensor is opened on first use and
// again after a failed read, so it can be plugged in while running.
type sensorSource struct {
	open func() (*isl29125.Dev, error)
	dev  *isl29125.Dev
}

func (s *sensorSource) Sample() (gauge.Sample, error) {
	if s.dev == nil {
		d, err := s.open()
		if err != nil {
			return gauge.Sample{}, err
		}
		s.dev = d
	}
	c, err := s.dev.ReadRGB24()
	if err != nil {
		s.dev = nil
		return gauge.Sample{}, err
	}
	return gauge.Sample{gauge.Red: c.R, gauge.Green: c.G, gauge.Blue: c.B}, nil
}

// Halt powers down the sensor if it is open.
func (s *sensorSource) Halt() error {
	if s.dev == nil {
		return nil
	}
	return s.dev.Halt()
}

func mainImpl() error {
	cfgPath := flag.String("config", "", "JSON configuration file")
	bus := flag.String("bus", "", "I²C bus to use, overrides the configuration")
	console := flag.Bool("console", false, "mirror the gauges on the terminal")
	noLegend := flag.Bool("no-legend", false, "leave the area under the gauges blank")
	verbose := flag.Bool("v", false, "verbose log")
	flag.Parse()
	if flag.NArg() != 0 {
		return errors.New("unexpected argument, try -help")
	}

	cfg := config.Default()
	if *cfgPath != "" {
		var err error
		if cfg, err = config.Load(*cfgPath); err != nil {
			return err
		}
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "bus":
			cfg.Bus = *bus
		case "console":
			cfg.Console = *console
		case "no-legend":
			if *noLegend {
				cfg.Legend = ""
			}
		case "v":
			if *verbose {
				cfg.Log.Level = zerolog.LevelDebugValue
			}
		}
	})

	logger, closer, err := newLogger(cfg.Log, os.Stderr)
	if err != nil {
		return err
	}
	defer closer.Close()
	return run(cfg, logger)
}

func run(cfg config.Config, logger zerolog.Logger) error {
	if _, err := host.Init(); err != nil {
		return err
	}
	b, err := i2creg.Open(cfg.Bus)
	if err != nil {
		return err
	}
	defer b.Close()
	if err := b.SetSpeed(cfg.Speed); err != nil {
		logger.Warn().Err(err).Stringer("speed", cfg.Speed).Msg("bus speed not set")
	}

	if cfg.ResetPin != "" {
		p := gpioreg.ByName(cfg.ResetPin)
		if p == nil {
			return fmt.Errorf("no pin %q", cfg.ResetPin)
		}
		cfg.Display.Reset = p
	}
	dev, err := ssd1306.NewI2CBus(b, &cfg.Display)
	if err != nil {
		return err
	}
	logger.Info().Stringer("display", dev).Stringer("bus", b).Msg("starting")

	drawLegend := func() error { return nil }
	if w, ok := legendWindow(cfg.Gauge.Layout, dev.Pages()); ok && cfg.Legend != "" {
		drawLegend = func() error {
			return legend.Draw(dev, w, cfg.Legend, nil)
		}
	}
	reinit := initFunc(func() error {
		if err := dev.Init(); err != nil {
			return err
		}
		if err := drawLegend(); err != nil {
			logger.Warn().Err(err).Msg("legend not drawn")
		}
		return nil
	})
	if err := reinit.Init(); err != nil {
		return err
	}
	defer func() {
		if err := dev.Halt(); err != nil {
			logger.Warn().Err(err).Msg("display halt failed")
		}
	}()

	src := &sensorSource{open: func() (*isl29125.Dev, error) {
		d, err := isl29125.New(b, cfg.SensorAddr, &cfg.Sensor)
		if err == nil {
			logger.Info().Stringer("sensor", d).Msg("sensor configured")
		}
		return d, err
	}}
	defer func() {
		if err := src.Halt(); err != nil {
			logger.Warn().Err(err).Msg("sensor halt failed")
		}
	}()

	if cfg.Console {
		tg := termgauge.New(nil, nil)
		defer tg.Halt()
		cfg.Gauge.Mirror = tg
	}
	cfg.Gauge.Logger = logger
	r, err := gauge.New(dev, src, &cfg.Gauge)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	err = gauge.NewRunner(r, reinit).Run(ctx)
	logger.Info().Int("frames", r.Frames()).Msg("stopped")
	return err
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "rgbgauge: %s.\n", err)
		os.Exit(1)
	}
}
