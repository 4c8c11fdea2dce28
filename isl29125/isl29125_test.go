// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package isl29125

import (
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"periph.io/x/conn/v3/i2c/i2ctest"
)

// initOps is what New sends with DefaultOpts.
var initOps = []i2ctest.IO{
	{Addr: DefaultAddress, W: []byte{0x00}, R: []byte{0x7D}},
	{Addr: DefaultAddress, W: []byte{0x00, 0x46}},
	{Addr: DefaultAddress, W: []byte{0x01, 0x0D}},
	{Addr: DefaultAddress, W: []byte{0x02, 0xBF}},
	{Addr: DefaultAddress, W: []byte{0x03, 0x01}},
}

// sleeper advances the fake clock instead of blocking.
type sleeper struct {
	clockwork.FakeClock
	slept []time.Duration
}

func (s *sleeper) Sleep(d time.Duration) {
	s.slept = append(s.slept, d)
	s.Advance(d)
}

func playback(ops ...i2ctest.IO) *i2ctest.Playback {
	return &i2ctest.Playback{Ops: append(append([]i2ctest.IO{}, initOps...), ops...), DontPanic: true}
}

func TestNew(t *testing.T) {
	bus := playback()
	dev, err := New(bus, DefaultAddress, nil)
	if err != nil {
		t.Fatal(err)
	}
	if s := dev.String(); len(s) == 0 {
		t.Error("string returned empty")
	}
	if err := bus.Close(); err != nil {
		t.Error(err)
	}
}

func TestNewWrongID(t *testing.T) {
	bus := &i2ctest.Playback{
		Ops:       []i2ctest.IO{{Addr: DefaultAddress, W: []byte{0x00}, R: []byte{0x41}}},
		DontPanic: true,
	}
	if _, err := New(bus, DefaultAddress, nil); err == nil {
		t.Fatal("expected error for wrong device id")
	}
}

func TestNewCustomOpts(t *testing.T) {
	bus := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: DefaultAddress, W: []byte{0x00}, R: []byte{0x7D}},
			{Addr: DefaultAddress, W: []byte{0x00, 0x46}},
			{Addr: DefaultAddress, W: []byte{0x01, ModeRGB | Resolution12}},
			{Addr: DefaultAddress, W: []byte{0x02, FilterIRNone}},
			{Addr: DefaultAddress, W: []byte{0x03, IntOnConversionDone}},
		},
		DontPanic: true,
	}
	opts := Opts{Mode: ModeRGB | Resolution12, Filter: FilterIRNone, Interrupt: IntOnConversionDone}
	dev, err := New(bus, DefaultAddress, &opts)
	if err != nil {
		t.Fatal(err)
	}
	if dev.opts.Timeout != DefaultOpts.Timeout {
		t.Errorf("timeout=%s expected %s", dev.opts.Timeout, DefaultOpts.Timeout)
	}
	if err := bus.Close(); err != nil {
		t.Error(err)
	}
}

func TestReadRGB(t *testing.T) {
	bus := playback(
		i2ctest.IO{Addr: DefaultAddress, W: []byte{0x09}, R: []byte{0x34, 0x12, 0x78, 0x56, 0xBC, 0x9A}},
		i2ctest.IO{Addr: DefaultAddress, W: []byte{0x09}, R: []byte{0x34, 0x12, 0x78, 0x56, 0xBC, 0x9A}},
	)
	dev, err := New(bus, DefaultAddress, nil)
	if err != nil {
		t.Fatal(err)
	}
	c, err := dev.ReadRGB()
	if err != nil {
		t.Fatal(err)
	}
	if expected := (RGB{R: 0x5678, G: 0x1234, B: 0x9ABC}); c != expected {
		t.Errorf("got %s expected %s", c, expected)
	}
	c, err = dev.ReadRGB24()
	if err != nil {
		t.Fatal(err)
	}
	if expected := (RGB{R: 0x56, G: 0x12, B: 0x9A}); c != expected {
		t.Errorf("got %s expected %s", c, expected)
	}
	if err := bus.Close(); err != nil {
		t.Error(err)
	}
}

func TestReadRGB24Resolution12(t *testing.T) {
	bus := playback(
		i2ctest.IO{Addr: DefaultAddress, W: []byte{0x01, ModeRGB | Resolution12}},
		i2ctest.IO{Addr: DefaultAddress, W: []byte{0x02, FilterIRMax}},
		i2ctest.IO{Addr: DefaultAddress, W: []byte{0x03, IntNone}},
		i2ctest.IO{Addr: DefaultAddress, W: []byte{0x09}, R: []byte{0xFF, 0x0F, 0x00, 0x08, 0x10, 0x00}},
	)
	dev, err := New(bus, DefaultAddress, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := dev.Configure(ModeRGB|Resolution12, FilterIRMax, IntNone); err != nil {
		t.Fatal(err)
	}
	c, err := dev.ReadRGB24()
	if err != nil {
		t.Fatal(err)
	}
	if expected := (RGB{R: 0x80, G: 0xFF, B: 0x01}); c != expected {
		t.Errorf("got %s expected %s", c, expected)
	}
}

func TestReadRGBWaitConversion(t *testing.T) {
	bus := playback(
		i2ctest.IO{Addr: DefaultAddress, W: []byte{0x08}, R: []byte{0x00}},
		i2ctest.IO{Addr: DefaultAddress, W: []byte{0x08}, R: []byte{0x02}},
		i2ctest.IO{Addr: DefaultAddress, W: []byte{0x09}, R: []byte{1, 0, 2, 0, 3, 0}},
	)
	clk := &sleeper{FakeClock: clockwork.NewFakeClock()}
	opts := DefaultOpts
	opts.WaitConversion = true
	opts.Clock = clk
	dev, err := New(bus, DefaultAddress, &opts)
	if err != nil {
		t.Fatal(err)
	}
	c, err := dev.ReadRGB()
	if err != nil {
		t.Fatal(err)
	}
	if expected := (RGB{R: 2, G: 1, B: 3}); c != expected {
		t.Errorf("got %s expected %s", c, expected)
	}
	if len(clk.slept) != 1 || clk.slept[0] != pollInterval {
		t.Errorf("unexpected sleeps %v", clk.slept)
	}
	if err := bus.Close(); err != nil {
		t.Error(err)
	}
}

func TestReadRGBTimeout(t *testing.T) {
	status := i2ctest.IO{Addr: DefaultAddress, W: []byte{0x08}, R: []byte{0x00}}
	bus := playback(status, status, status)
	clk := &sleeper{FakeClock: clockwork.NewFakeClock()}
	opts := DefaultOpts
	opts.WaitConversion = true
	opts.Timeout = 2 * pollInterval
	opts.Clock = clk
	dev, err := New(bus, DefaultAddress, &opts)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := dev.ReadRGB(); !errors.Is(err, ErrTimeout) {
		t.Fatalf("got %v expected %v", err, ErrTimeout)
	}
	if err := bus.Close(); err != nil {
		t.Error(err)
	}
}

func TestReadRGBError(t *testing.T) {
	dev, err := New(playback(), DefaultAddress, nil)
	if err != nil {
		t.Fatal(err)
	}
	// The playback is exhausted.
	if _, err := dev.ReadRGB(); err == nil {
		t.Error("expected error")
	}
}

func TestBrownout(t *testing.T) {
	bus := playback(
		i2ctest.IO{Addr: DefaultAddress, W: []byte{0x08}, R: []byte{0x04}},
		i2ctest.IO{Addr: DefaultAddress, W: []byte{0x08}, R: []byte{0x02}},
	)
	dev, err := New(bus, DefaultAddress, nil)
	if err != nil {
		t.Fatal(err)
	}
	for _, expected := range []bool{true, false} {
		b, err := dev.Brownout()
		if err != nil {
			t.Fatal(err)
		}
		if b != expected {
			t.Errorf("brownout=%t expected %t", b, expected)
		}
	}
}

func TestHalt(t *testing.T) {
	bus := playback(i2ctest.IO{Addr: DefaultAddress, W: []byte{0x01, Range10kLux}})
	dev, err := New(bus, DefaultAddress, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := dev.Halt(); err != nil {
		t.Fatal(err)
	}
	if err := bus.Close(); err != nil {
		t.Error(err)
	}
}
