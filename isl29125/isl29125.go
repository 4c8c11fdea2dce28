// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package isl29125

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/i2c"
)

// DefaultAddress is the only address the sensor answers to.
const DefaultAddress uint16 = 0x44

const (
	// Registers.
	_REGISTER_ID      byte = 0x00
	_REGISTER_CONFIG1 byte = 0x01
	_REGISTER_CONFIG2 byte = 0x02
	_REGISTER_CONFIG3 byte = 0x03
	_REGISTER_STATUS  byte = 0x08
	_REGISTER_GREEN_L byte = 0x09

	deviceID byte = 0x7D
	// Writing this to the ID register resets every register.
	resetValue byte = 0x46

	statusConversionDone byte = 0x02
	statusBrownout       byte = 0x04

	modeMask byte = 0x07
)

// Configuration register 1.
const (
	ModePowerDown  byte = 0x00
	ModeGreen      byte = 0x01
	ModeRed        byte = 0x02
	ModeBlue       byte = 0x03
	ModeStandby    byte = 0x04
	ModeRGB        byte = 0x05
	ModeRedGreen   byte = 0x06
	ModeGreenBlue  byte = 0x07
	Range375Lux    byte = 0x00
	Range10kLux    byte = 0x08
	Resolution16   byte = 0x00
	Resolution12   byte = 0x10
	SyncOnInterupt byte = 0x20
)

// Configuration register 2, IR compensation.
const (
	IRAdjustLow  byte = 0x00
	IRAdjustMid  byte = 0x20
	IRAdjustMax  byte = 0x3F
	IROffset     byte = 0x80
	FilterIRMax  byte = IROffset | IRAdjustMax
	FilterIRNone byte = 0x00
)

// Configuration register 3, interrupt.
const (
	IntNone     byte = 0x00
	IntGreen    byte = 0x01
	IntRed      byte = 0x02
	IntBlue     byte = 0x03
	IntPersist1 byte = 0x00
	IntPersist2 byte = 0x04
	IntPersist4 byte = 0x08
	IntPersist8 byte = 0x0C
	// IntOnConversionDone raises the INT pin after each RGB conversion.
	IntOnConversionDone byte = 0x10
	// IntOnThreshold raises the INT pin when the green channel crosses the
	// threshold registers.
	IntOnThreshold = IntGreen
)

// ErrTimeout is returned when no conversion completed in Opts.Timeout.
var ErrTimeout = errors.New("isl29125: timed out waiting for conversion")

// RGB is one raw sample.
type RGB struct {
	R, G, B uint16
}

func (c RGB) String() string {
	return fmt.Sprintf("RGB{%d, %d, %d}", c.R, c.G, c.B)
}

// Opts holds the configuration written to the sensor.
type Opts struct {
	// Mode is the configuration register 1 value: operating mode, range and
	// resolution.
	Mode byte
	// Filter is the IR compensation.
	Filter byte
	// Interrupt is the configuration register 3 value.
	Interrupt byte
	// WaitConversion makes ReadRGB poll the status register until a new
	// conversion is available.
	WaitConversion bool
	// Timeout bounds the wait for a conversion.
	Timeout time.Duration
	// Clock is used for polling. Defaults to the real clock.
	Clock clockwork.Clock
}

// DefaultOpts is RGB mode, 10k lux range, 16 bits, maximum IR compensation
// and threshold interrupts.
var DefaultOpts = Opts{
	Mode:      ModeRGB | Range10kLux | Resolution16,
	Filter:    FilterIRMax,
	Interrupt: IntOnThreshold,
	Timeout:   250 * time.Millisecond,
}

const pollInterval = 5 * time.Millisecond

// Dev is a handle to an ISL29125 sensor.
type Dev struct {
	d    *i2c.Dev
	mu   sync.Mutex
	opts Opts
	clk  clockwork.Clock
}

// New returns a configured sensor on the specified bus and address.
//
// The device identity is verified, then the sensor is reset and configured
// with opts. A nil opts selects DefaultOpts.
func New(b i2c.Bus, addr uint16, opts *Opts) (*Dev, error) {
	o := DefaultOpts
	if opts != nil {
		o = *opts
	}
	if o.Clock == nil {
		o.Clock = clockwork.NewRealClock()
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultOpts.Timeout
	}
	dev := &Dev{d: &i2c.Dev{Bus: b, Addr: addr}, opts: o, clk: o.Clock}
	id, err := dev.readRegister(_REGISTER_ID)
	if err != nil {
		return nil, fmt.Errorf("isl29125: error reading device id %w", err)
	}
	if id != deviceID {
		return nil, fmt.Errorf("isl29125: unexpected device id %#02x", id)
	}
	if err := dev.Reset(); err != nil {
		return nil, err
	}
	if err := dev.Configure(o.Mode, o.Filter, o.Interrupt); err != nil {
		return nil, err
	}
	return dev, nil
}

func (dev *Dev) String() string {
	return fmt.Sprintf("isl29125{%s}", dev.d)
}

// Reset returns every register to its power-on value.
func (dev *Dev) Reset() error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	if err := dev.d.Tx([]byte{_REGISTER_ID, resetValue}, nil); err != nil {
		return fmt.Errorf("isl29125: error resetting %w", err)
	}
	return nil
}

// Configure writes the three configuration registers.
func (dev *Dev) Configure(mode, filter, interrupt byte) error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	for _, w := range [][]byte{
		{_REGISTER_CONFIG1, mode},
		{_REGISTER_CONFIG2, filter},
		{_REGISTER_CONFIG3, interrupt},
	} {
		if err := dev.d.Tx(w, nil); err != nil {
			return fmt.Errorf("isl29125: error configuring register %d %w", w[0], err)
		}
	}
	dev.opts.Mode = mode
	dev.opts.Filter = filter
	dev.opts.Interrupt = interrupt
	return nil
}

// ReadRGB returns the last converted sample.
func (dev *Dev) ReadRGB() (RGB, error) {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	if dev.opts.WaitConversion {
		if err := dev.waitConversion(); err != nil {
			return RGB{}, err
		}
	}
	// Green, red, blue; low byte first. The register address auto
	// increments.
	r := make([]byte, 6)
	if err := dev.d.Tx([]byte{_REGISTER_GREEN_L}, r); err != nil {
		return RGB{}, fmt.Errorf("isl29125: error reading %w", err)
	}
	return RGB{
		G: uint16(r[0]) | uint16(r[1])<<8,
		R: uint16(r[2]) | uint16(r[3])<<8,
		B: uint16(r[4]) | uint16(r[5])<<8,
	}, nil
}

// ReadRGB24 returns the last converted sample reduced to 8 bits per channel.
func (dev *Dev) ReadRGB24() (RGB, error) {
	c, err := dev.ReadRGB()
	if err != nil {
		return c, err
	}
	shift := 8
	if dev.opts.Mode&Resolution12 != 0 {
		shift = 4
	}
	return RGB{R: c.R >> shift, G: c.G >> shift, B: c.B >> shift}, nil
}

// Brownout reports whether the sensor saw a power drop since the flag was
// last cleared. It is set after power-on and after Reset.
func (dev *Dev) Brownout() (bool, error) {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	s, err := dev.readRegister(_REGISTER_STATUS)
	if err != nil {
		return false, err
	}
	return s&statusBrownout != 0, nil
}

// Halt powers the sensor down. Implements conn.Resource.
func (dev *Dev) Halt() error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	mode := dev.opts.Mode&^modeMask | ModePowerDown
	if err := dev.d.Tx([]byte{_REGISTER_CONFIG1, mode}, nil); err != nil {
		return fmt.Errorf("isl29125: error halting %w", err)
	}
	return nil
}

func (dev *Dev) waitConversion() error {
	start := dev.clk.Now()
	for {
		s, err := dev.readRegister(_REGISTER_STATUS)
		if err != nil {
			return err
		}
		if s&statusConversionDone != 0 {
			return nil
		}
		if dev.clk.Now().Sub(start) >= dev.opts.Timeout {
			return ErrTimeout
		}
		dev.clk.Sleep(pollInterval)
	}
}

func (dev *Dev) readRegister(reg byte) (byte, error) {
	r := make([]byte, 1)
	if err := dev.d.Tx([]byte{reg}, r); err != nil {
		return 0, err
	}
	return r[0], nil
}

var _ conn.Resource = &Dev{}
