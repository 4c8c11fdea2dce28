// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"gotest.tools/assert"
	"periph.io/x/conn/v3/physic"

	"github.com/GermanBionicSystems/rgbgauge/isl29125"
	"github.com/GermanBionicSystems/rgbgauge/ssd1306"
)

func TestDefault(t *testing.T) {
	c := Default()
	assert.Equal(t, c.Speed, 400*physic.KiloHertz)
	assert.Equal(t, c.ResetPin, "GPIO17")
	assert.Equal(t, c.Display.Addr, uint16(0x3d))
	assert.Equal(t, c.Display.ColumnOffset, 32)
	assert.Equal(t, c.Display.Mode, ssd1306.PageAddressing)
	assert.Equal(t, c.SensorAddr, uint16(0x44))
	assert.Equal(t, c.Sensor.Mode, isl29125.ModeRGB|isl29125.Range10kLux)
	assert.Equal(t, c.Gauge.Divisor, uint16(4))
	assert.Equal(t, c.Gauge.Pace, 50*time.Millisecond)
	assert.Equal(t, c.Gauge.Layout.Columns, 64)
	assert.Equal(t, c.Legend, "R G B")
}

func TestParseEmpty(t *testing.T) {
	c, err := Parse([]byte("{}"))
	assert.NilError(t, err)
	d := Default()
	assert.Equal(t, c.Display.Addr, d.Display.Addr)
	assert.Equal(t, c.Gauge.Layout, d.Gauge.Layout)
	assert.Equal(t, c.Log, d.Log)
}

func TestParse(t *testing.T) {
	c, err := Parse([]byte(`{
		"bus": "/dev/i2c-3",
		"speed": "100kHz",
		"reset_pin": "",
		"legend": "",
		"console": "true",
		"display": {
			"addr": "0x3c",
			"width": 128,
			"height": 64,
			"column_offset": 0,
			"mode": "horizontal",
			"mirror_vertical": true,
			"contrast": "0x7f",
			"reset_hold": 5
		},
		"sensor": {
			"addr": 68,
			"mode": "0x15",
			"wait_conversion": true,
			"timeout": "1s"
		},
		"gauge": {
			"columns": 128,
			"first_page": 2,
			"divisor": 1024,
			"pace": "10ms",
			"max_reinit": 0,
			"filled": "0xff"
		},
		"log": {"level": "debug", "file": "/var/log/rgbgauge.log", "max_backups": 1}
	}`))
	assert.NilError(t, err)
	assert.Equal(t, c.Bus, "/dev/i2c-3")
	assert.Equal(t, c.Speed, 100*physic.KiloHertz)
	assert.Equal(t, c.ResetPin, "")
	assert.Equal(t, c.Legend, "")
	assert.Equal(t, c.Console, true)

	assert.Equal(t, c.Display.Addr, uint16(0x3c))
	assert.Equal(t, c.Display.W, 128)
	assert.Equal(t, c.Display.H, 64)
	assert.Equal(t, c.Display.ColumnOffset, 0)
	assert.Equal(t, c.Display.Mode, ssd1306.HorizontalAddressing)
	assert.Equal(t, c.Display.MirrorVertical, true)
	assert.Equal(t, c.Display.MirrorHorizontal, false)
	assert.Equal(t, c.Display.Contrast, byte(0x7f))
	assert.Equal(t, c.Display.ResetHold, 5*time.Millisecond)
	assert.Equal(t, c.Display.PowerUpDelay, ssd1306.DefaultOpts.PowerUpDelay)

	assert.Equal(t, c.SensorAddr, uint16(0x44))
	assert.Equal(t, c.Sensor.Mode, isl29125.ModeRGB|isl29125.Resolution12)
	assert.Equal(t, c.Sensor.Filter, isl29125.FilterIRMax)
	assert.Equal(t, c.Sensor.WaitConversion, true)
	assert.Equal(t, c.Sensor.Timeout, time.Second)

	assert.Equal(t, c.Gauge.Layout.Col, 0)
	assert.Equal(t, c.Gauge.Layout.Columns, 128)
	assert.Equal(t, c.Gauge.Layout.FirstPage, 2)
	assert.Equal(t, c.Gauge.Divisor, uint16(1024))
	assert.Equal(t, c.Gauge.Pace, 10*time.Millisecond)
	assert.Equal(t, c.Gauge.MaxReinit, 0)
	assert.Equal(t, c.Gauge.Pattern.Filled, byte(0xff))
	assert.Equal(t, c.Gauge.Pattern.Border, byte(0x7e))

	assert.Equal(t, c.Log.Level, "debug")
	assert.Equal(t, c.Log.File, "/var/log/rgbgauge.log")
	assert.Equal(t, c.Log.MaxBackups, 1)
	assert.Equal(t, c.Log.MaxSizeMB, 10)
}

func TestParseMode(t *testing.T) {
	c, err := Parse([]byte(`{"display": {"mode": "0x01"}}`))
	assert.NilError(t, err)
	assert.Equal(t, c.Display.Mode, ssd1306.VerticalAddressing)
	c, err = Parse([]byte(`{"display": {"mode": 2}}`))
	assert.NilError(t, err)
	assert.Equal(t, c.Display.Mode, ssd1306.PageAddressing)
}

func TestParseErrors(t *testing.T) {
	data := []struct {
		json string
		err  string
	}{
		{`[]`, ""},
		{`{"bus": }`, ""},
		{`{"colour": 1}`, `unknown key "colour"`},
		{`{"display": {"adr": 1}}`, `unknown key "display.adr"`},
		{`{"display": 1}`, "display: expected an object"},
		{`{"display": {"addr": "0x3z"}}`, "display.addr"},
		{`{"display": {"contrast": 256}}`, "display.contrast"},
		{`{"display": {"width": -1}}`, "display.width"},
		{`{"display": {"mode": "diagonal"}}`, "display.mode"},
		{`{"sensor": {"timeout": "soon"}}`, "sensor.timeout"},
		{`{"sensor": {"wait_conversion": "yes"}}`, "invalid boolean"},
		{`{"speed": "fast"}`, "speed"},
		{`{"speed": true}`, "expected a frequency"},
		{`{"bus": 1}`, "expected a string"},
		{`{"gauge": {"pace": []}}`, "expected a duration"},
		{`{"gauge": {"columns": false}}`, "expected an integer"},
	}
	for _, d := range data {
		_, err := Parse([]byte(d.json))
		assert.Assert(t, err != nil, d.json)
		if d.err != "" {
			assert.ErrorContains(t, err, d.err, d.json)
		}
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "rgbgauge.json")
	assert.NilError(t, os.WriteFile(p, []byte(`{"speed": 1000000, "gauge": {"divisor": "8"}}`), 0o644))
	c, err := Load(p)
	assert.NilError(t, err)
	assert.Equal(t, c.Speed, physic.MegaHertz)
	assert.Equal(t, c.Gauge.Divisor, uint16(8))

	assert.NilError(t, os.WriteFile(p, []byte(`{"speed": "x"}`), 0o644))
	_, err = Load(p)
	assert.ErrorContains(t, err, p)

	_, err = Load(filepath.Join(dir, "missing.json"))
	assert.Assert(t, errors.Is(err, fs.ErrNotExist))
}
