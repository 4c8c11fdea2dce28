// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package config holds the settings of the gauge program and loads them
// from a JSON file.
//
// Every field has a default; a file only lists what it changes. Numbers may
// be written as JSON numbers or as strings in any Go integer syntax, so
// register values can be given in hex: "addr": "0x3d".
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/buger/jsonparser"
	"periph.io/x/conn/v3/physic"

	"github.com/GermanBionicSystems/rgbgauge/gauge"
	"github.com/GermanBionicSystems/rgbgauge/isl29125"
	"github.com/GermanBionicSystems/rgbgauge/ssd1306"
)

// Log selects where the program logs.
type Log struct {
	// Level is a zerolog level name.
	Level string
	// File, when set, receives the log too, rotated.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Config is the complete program configuration.
type Config struct {
	// Bus is the I²C bus name in the periph registry; empty is the first.
	Bus string
	// Speed is the bus clock.
	Speed physic.Frequency
	// ResetPin is the display reset GPIO name; empty when not wired.
	ResetPin string

	Display    ssd1306.Opts
	SensorAddr uint16
	Sensor     isl29125.Opts
	Gauge      gauge.Opts

	// Legend is drawn once under the gauges; empty disables it.
	Legend string
	// Console mirrors the gauges on stdout.
	Console bool
	Log     Log
}

// Default returns the configuration of the reference hardware: a 64x48
// panel at 0x3d with its reset line on GPIO17, an ISL29125 at 0x44, 400kHz.
func Default() Config {
	return Config{
		Speed:      400 * physic.KiloHertz,
		ResetPin:   "GPIO17",
		Display:    ssd1306.DefaultOpts,
		SensorAddr: isl29125.DefaultAddress,
		Sensor:     isl29125.DefaultOpts,
		Gauge:      gauge.DefaultOpts,
		Legend:     "R G B",
		Log: Log{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// Load reads the file at path and overlays it on Default().
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%w (in %s)", err, path)
	}
	return c, nil
}

// Parse overlays the JSON document data on Default().
func Parse(data []byte) (Config, error) {
	c := Default()
	if err := c.Overlay(data); err != nil {
		return Config{}, err
	}
	return c, nil
}

var knownKeys = map[string][]string{
	"": {"bus", "speed", "reset_pin", "display", "sensor", "gauge", "legend", "console", "log"},
	"display": {"addr", "width", "height", "column_offset", "mode", "mirror_vertical",
		"mirror_horizontal", "contrast", "clock_div", "charge_pump", "com_pins", "precharge",
		"vcom_deselect", "reset_hold", "power_up_delay"},
	"sensor": {"addr", "mode", "filter", "interrupt", "wait_conversion", "timeout"},
	"gauge":  {"col", "columns", "first_page", "divisor", "pace", "max_reinit", "border", "filled", "empty"},
	"log":    {"level", "file", "max_size_mb", "max_backups", "max_age_days"},
}

// Overlay sets the fields present in the JSON document data.
//
// Unknown keys are rejected so a typo doesn't silently keep a default.
func (c *Config) Overlay(data []byte) error {
	if err := checkKeys(data, ""); err != nil {
		return err
	}
	for section := range knownKeys {
		if section == "" {
			continue
		}
		sub, t, _, err := jsonparser.Get(data, section)
		if errors.Is(err, jsonparser.KeyPathNotFoundError) {
			continue
		}
		if err != nil {
			return fmt.Errorf("config: %s: %w", section, err)
		}
		if t != jsonparser.Object {
			return fmt.Errorf("config: %s: expected an object, got %s", section, t)
		}
		if err := checkKeys(sub, section); err != nil {
			return err
		}
	}
	p := parser{data: data}

	p.str(&c.Bus, "bus")
	p.frequency(&c.Speed, "speed")
	p.str(&c.ResetPin, "reset_pin")
	p.str(&c.Legend, "legend")
	p.boolean(&c.Console, "console")

	d := &c.Display
	p.uint16(&d.Addr, "display", "addr")
	p.int(&d.W, "display", "width")
	p.int(&d.H, "display", "height")
	p.int(&d.ColumnOffset, "display", "column_offset")
	p.mode(&d.Mode, "display", "mode")
	p.boolean(&d.MirrorVertical, "display", "mirror_vertical")
	p.boolean(&d.MirrorHorizontal, "display", "mirror_horizontal")
	p.byte(&d.Contrast, "display", "contrast")
	p.byte(&d.ClockDiv, "display", "clock_div")
	p.byte(&d.ChargePump, "display", "charge_pump")
	p.byte(&d.COMPins, "display", "com_pins")
	p.byte(&d.Precharge, "display", "precharge")
	p.byte(&d.VCOMDeselect, "display", "vcom_deselect")
	p.duration(&d.ResetHold, "display", "reset_hold")
	p.duration(&d.PowerUpDelay, "display", "power_up_delay")

	s := &c.Sensor
	p.uint16(&c.SensorAddr, "sensor", "addr")
	p.byte(&s.Mode, "sensor", "mode")
	p.byte(&s.Filter, "sensor", "filter")
	p.byte(&s.Interrupt, "sensor", "interrupt")
	p.boolean(&s.WaitConversion, "sensor", "wait_conversion")
	p.duration(&s.Timeout, "sensor", "timeout")

	g := &c.Gauge
	p.int(&g.Layout.Col, "gauge", "col")
	p.int(&g.Layout.Columns, "gauge", "columns")
	p.int(&g.Layout.FirstPage, "gauge", "first_page")
	p.uint16(&g.Divisor, "gauge", "divisor")
	p.duration(&g.Pace, "gauge", "pace")
	p.int(&g.MaxReinit, "gauge", "max_reinit")
	p.byte(&g.Pattern.Border, "gauge", "border")
	p.byte(&g.Pattern.Filled, "gauge", "filled")
	p.byte(&g.Pattern.Empty, "gauge", "empty")

	l := &c.Log
	p.str(&l.Level, "log", "level")
	p.str(&l.File, "log", "file")
	p.int(&l.MaxSizeMB, "log", "max_size_mb")
	p.int(&l.MaxBackups, "log", "max_backups")
	p.int(&l.MaxAgeDays, "log", "max_age_days")

	return p.err
}

func checkKeys(data []byte, section string) error {
	known := knownKeys[section]
	return jsonparser.ObjectEach(data, func(key, _ []byte, _ jsonparser.ValueType, _ int) error {
		k := string(key)
		for _, n := range known {
			if n == k {
				return nil
			}
		}
		if section != "" {
			k = section + "." + k
		}
		return fmt.Errorf("config: unknown key %q", k)
	})
}

// parser reads optional values; the first error sticks and stops further
// parsing.
type parser struct {
	data []byte
	err  error
}

// get returns the raw value at keys, or false when absent or after an error.
func (p *parser) get(keys []string) ([]byte, jsonparser.ValueType, bool) {
	if p.err != nil {
		return nil, 0, false
	}
	v, t, _, err := jsonparser.Get(p.data, keys...)
	if errors.Is(err, jsonparser.KeyPathNotFoundError) {
		return nil, 0, false
	}
	if err != nil {
		p.fail(keys, err)
		return nil, 0, false
	}
	return v, t, true
}

func (p *parser) fail(keys []string, err error) {
	p.err = fmt.Errorf("config: %s: %w", strings.Join(keys, "."), err)
}

// integer accepts a JSON number or a string in Go integer syntax.
func (p *parser) integer(keys []string, bits int) (uint64, bool) {
	v, t, ok := p.get(keys)
	if !ok {
		return 0, false
	}
	var s string
	switch t {
	case jsonparser.Number:
		s = string(v)
	case jsonparser.String:
		s = strings.TrimSpace(string(v))
	default:
		p.fail(keys, fmt.Errorf("expected an integer, got %s", t))
		return 0, false
	}
	n, err := strconv.ParseUint(s, 0, bits)
	if err != nil {
		p.fail(keys, err)
		return 0, false
	}
	return n, true
}

func (p *parser) int(dst *int, keys ...string) {
	if n, ok := p.integer(keys, 31); ok {
		*dst = int(n)
	}
}

func (p *parser) uint16(dst *uint16, keys ...string) {
	if n, ok := p.integer(keys, 16); ok {
		*dst = uint16(n)
	}
}

func (p *parser) byte(dst *byte, keys ...string) {
	if n, ok := p.integer(keys, 8); ok {
		*dst = byte(n)
	}
}

func (p *parser) str(dst *string, keys ...string) {
	v, t, ok := p.get(keys)
	if !ok {
		return
	}
	if t != jsonparser.String {
		p.fail(keys, fmt.Errorf("expected a string, got %s", t))
		return
	}
	s, err := jsonparser.ParseString(v)
	if err != nil {
		p.fail(keys, err)
		return
	}
	*dst = s
}

// boolean accepts true, false, "true" and "false".
func (p *parser) boolean(dst *bool, keys ...string) {
	v, t, ok := p.get(keys)
	if !ok {
		return
	}
	switch t {
	case jsonparser.Boolean:
		b, err := jsonparser.ParseBoolean(v)
		if err != nil {
			p.fail(keys, err)
			return
		}
		*dst = b
	case jsonparser.String:
		switch strings.ToLower(string(v)) {
		case "true":
			*dst = true
		case "false":
			*dst = false
		default:
			p.fail(keys, fmt.Errorf("invalid boolean %q", v))
		}
	default:
		p.fail(keys, fmt.Errorf("expected a boolean, got %s", t))
	}
}

// duration accepts a time.ParseDuration string or a number of milliseconds.
func (p *parser) duration(dst *time.Duration, keys ...string) {
	v, t, ok := p.get(keys)
	if !ok {
		return
	}
	switch t {
	case jsonparser.String:
		d, err := time.ParseDuration(string(v))
		if err != nil {
			p.fail(keys, err)
			return
		}
		*dst = d
	case jsonparser.Number:
		ms, err := jsonparser.ParseInt(v)
		if err != nil {
			p.fail(keys, err)
			return
		}
		*dst = time.Duration(ms) * time.Millisecond
	default:
		p.fail(keys, fmt.Errorf("expected a duration, got %s", t))
	}
}

// frequency accepts a physic string like "400kHz" or a number of Hz.
func (p *parser) frequency(dst *physic.Frequency, keys ...string) {
	v, t, ok := p.get(keys)
	if !ok {
		return
	}
	switch t {
	case jsonparser.String:
		var f physic.Frequency
		if err := f.Set(string(v)); err != nil {
			p.fail(keys, err)
			return
		}
		*dst = f
	case jsonparser.Number:
		hz, err := jsonparser.ParseInt(v)
		if err != nil {
			p.fail(keys, err)
			return
		}
		*dst = physic.Frequency(hz) * physic.Hertz
	default:
		p.fail(keys, fmt.Errorf("expected a frequency, got %s", t))
	}
}

var modes = map[string]ssd1306.AddressingMode{
	"horizontal": ssd1306.HorizontalAddressing,
	"vertical":   ssd1306.VerticalAddressing,
	"page":       ssd1306.PageAddressing,
}

func (p *parser) mode(dst *ssd1306.AddressingMode, keys ...string) {
	v, t, ok := p.get(keys)
	if !ok {
		return
	}
	if t == jsonparser.String {
		if m, ok := modes[strings.ToLower(string(v))]; ok {
			*dst = m
			return
		}
	}
	var b byte
	p.byte(&b, keys...)
	if p.err == nil {
		*dst = ssd1306.AddressingMode(b)
	}
}
