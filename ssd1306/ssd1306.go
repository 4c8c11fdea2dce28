// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ssd1306

// https://cdn-shop.adafruit.com/datasheets/SSD1306.pdf
//
// http://www.buydisplay.com/download/manual/ER-OLED0.66-1_Series_Datasheet.pdf

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/i2c"

	"github.com/GermanBionicSystems/rgbgauge/i2cm"
)

const (
	_CHARGEPUMP          = 0x8D
	_COLUMNADDR          = 0x21
	_COMSCANDEC          = 0xC8
	_COMSCANINC          = 0xC0
	_DISPLAYALLON_RESUME = 0xA4
	_DISPLAYOFF          = 0xAE
	_DISPLAYON           = 0xAF
	_INVERTDISPLAY       = 0xA7
	_MEMORYMODE          = 0x20
	_NORMALDISPLAY       = 0xA6
	_PAGEADDR            = 0x22
	_PAGESTARTADDRESS    = 0xB0
	_SEGREMAP            = 0xA0
	_SETCOMPINS          = 0xDA
	_SETCONTRAST         = 0x81
	_SETDISPLAYCLOCKDIV  = 0xD5
	_SETDISPLAYOFFSET    = 0xD3
	_SETHIGHCOLUMN       = 0x10
	_SETLOWCOLUMN        = 0x00
	_SETMULTIPLEX        = 0xA8
	_SETPRECHARGE        = 0xD9
	_SETSEGMENTREMAP     = 0xA1
	_SETSTARTLINE        = 0x40
	_SETVCOMDETECT       = 0xDB
)

const (
	i2cCmd  = 0x00 // I²C transaction has stream of command bytes
	i2cData = 0x40 // I²C transaction has stream of data bytes
)

// ramColumns is the width of the controller GDDRAM. Narrower panels are wired
// to a band of it, see Opts.ColumnOffset.
const ramColumns = 128

// AddressingMode selects how the controller advances its cursor after each
// data byte.
type AddressingMode byte

// Addressing modes, see page 34.
const (
	// HorizontalAddressing fills the window left to right, then wraps to the
	// next page of the window.
	HorizontalAddressing AddressingMode = 0x00
	// VerticalAddressing fills the window top to bottom, then moves to the
	// next column.
	VerticalAddressing AddressingMode = 0x01
	// PageAddressing stays on the current page; the column wraps within it.
	PageAddressing AddressingMode = 0x02
)

func (m AddressingMode) String() string {
	switch m {
	case HorizontalAddressing:
		return "horizontal"
	case VerticalAddressing:
		return "vertical"
	case PageAddressing:
		return "page"
	default:
		return fmt.Sprintf("AddressingMode(%d)", byte(m))
	}
}

// DefaultOpts is the configuration of the 0.66" 64x48 panel (ER-OLED0.66-1)
// the gauge was designed for.
var DefaultOpts = Opts{
	Addr:         0x3d,
	W:            64,
	H:            48,
	ColumnOffset: 32,
	Mode:         PageAddressing,
	ClockDiv:     0x80,
	ChargePump:   0x14,
	COMPins:      0x12,
	Contrast:     0xCF,
	Precharge:    0x22,
	VCOMDeselect: 0x00,
	ResetHold:    10 * time.Millisecond,
	PowerUpDelay: 100 * time.Millisecond,
}

// Opts defines the options for the device.
//
// Start from DefaultOpts; zero register values are sent as is.
type Opts struct {
	// The I²C address of the display.
	Addr uint16
	W    int
	H    int
	// ColumnOffset is the first GDDRAM column wired to the panel. Panels
	// narrower than 128 pixels are usually centered.
	ColumnOffset int
	Mode         AddressingMode
	// MirrorVertical selects the normal COM scan direction instead of the
	// reversed one.
	MirrorVertical bool
	// MirrorHorizontal maps column 0 to SEG0 instead of SEG127.
	MirrorHorizontal bool

	ClockDiv     byte // Oscillator frequency (high nibble) and divide ratio.
	ChargePump   byte // 0x14 enables the internal regulator.
	COMPins      byte // COM pins hardware configuration; see page 40.
	Contrast     byte
	Precharge    byte
	VCOMDeselect byte

	// Reset is the RES pin. It is optional; when set, Init pulses it low.
	Reset        gpio.PinOut
	ResetHold    time.Duration
	PowerUpDelay time.Duration
	// Clock is used for every hardware settling delay. Defaults to the real
	// clock.
	Clock clockwork.Clock
}

// NewI2C returns a Dev object that communicates over the byte level I²C
// master m to a SSD1306 display controller.
//
// The controller is not touched; call Init before drawing.
func NewI2C(m i2cm.Master, opts *Opts) (*Dev, error) {
	o := DefaultOpts
	if opts != nil {
		o = *opts
	}
	if o.Addr == 0x00 {
		o.Addr = DefaultOpts.Addr
	}
	if o.Clock == nil {
		o.Clock = clockwork.NewRealClock()
	}
	if o.Addr > 0x7f {
		return nil, fmt.Errorf("ssd1306: invalid address %#x", o.Addr)
	}
	addr := i2cm.Addr7(o.Addr)
	if o.W < 2 || o.W > ramColumns {
		return nil, fmt.Errorf("ssd1306: invalid width %d", o.W)
	}
	if o.ColumnOffset < 0 || o.ColumnOffset+o.W > ramColumns {
		return nil, fmt.Errorf("ssd1306: invalid column offset %d for width %d", o.ColumnOffset, o.W)
	}
	if o.H < 8 || o.H > 64 || o.H&7 != 0 {
		return nil, fmt.Errorf("ssd1306: invalid height %d", o.H)
	}
	if o.Mode > PageAddressing {
		return nil, fmt.Errorf("ssd1306: invalid addressing mode %d", o.Mode)
	}
	return &Dev{m: m, addr: addr, opts: o, clk: o.Clock}, nil
}

// NewI2CBus is a shorthand for NewI2C over a periph.io I²C bus.
//
// Acknowledgment is then only checked once per transaction.
func NewI2CBus(b i2c.Bus, opts *Opts) (*Dev, error) {
	return NewI2C(i2cm.NewTxMaster(b), opts)
}

// Dev is an open handle to the display controller.
//
// The driver keeps no frame buffer: the controller cursor and power state are
// only known through the commands sent.
type Dev struct {
	mu   sync.Mutex
	m    i2cm.Master
	addr i2cm.Addr7
	opts Opts
	clk  clockwork.Clock
}

func (d *Dev) String() string {
	return fmt.Sprintf("ssd1306.Dev{%s, %dx%d}", d.addr, d.opts.W, d.opts.H)
}

// Opts returns the options the device was created with.
func (d *Dev) Opts() Opts {
	return d.opts
}

// Pages returns the number of 8 pixel high pages of the panel.
func (d *Dev) Pages() int {
	return d.opts.H / 8
}

// Init resets the controller and programs it from scratch: clock,
// multiplexing, geometry, power, addressing mode. The screen is cleared before
// the panel is turned on.
//
// Init does not depend on the previous controller state, so it can be called
// again to recover from a bus fault.
func (d *Dev) Init() error {
	if err := d.reset(); err != nil {
		return err
	}
	d.mu.Lock()
	for _, c := range InitSequence(&d.opts) {
		if err := d.command(c); err != nil {
			d.mu.Unlock()
			return fmt.Errorf("ssd1306: init: %w", err)
		}
	}
	d.mu.Unlock()
	if err := d.Clear(); err != nil {
		return fmt.Errorf("ssd1306: init: %w", err)
	}
	return d.Command(_DISPLAYON)
}

// reset pulses the RES pin and waits for the controller to come up.
func (d *Dev) reset() error {
	if p := d.opts.Reset; p != nil {
		if err := p.Out(gpio.Low); err != nil {
			return fmt.Errorf("ssd1306: failed to pull RST low: %w", err)
		}
		d.clk.Sleep(d.opts.ResetHold)
		if err := p.Out(gpio.High); err != nil {
			return fmt.Errorf("ssd1306: failed to pull RST high: %w", err)
		}
	}
	d.clk.Sleep(d.opts.PowerUpDelay)
	return nil
}

// InitSequence returns the configuration commands Init sends before clearing
// the screen and turning the panel on.
//
// Page 64 has the recommended flow. Page 28 lists all the commands.
func InitSequence(opts *Opts) []byte {
	// Set COM output scan direction; C0 means normal; C8 means reversed.
	comScan := byte(_COMSCANDEC)
	if opts.MirrorVertical {
		comScan = _COMSCANINC
	}
	// See page 40.
	segRemap := byte(_SETSEGMENTREMAP)
	if opts.MirrorHorizontal {
		segRemap = _SEGREMAP
	}
	return []byte{
		_DISPLAYOFF,
		_SETDISPLAYCLOCKDIV, opts.ClockDiv,
		_SETMULTIPLEX, byte(opts.H - 1),
		_SETDISPLAYOFFSET, 0x00,
		_SETSTARTLINE | 0x00,
		_CHARGEPUMP, opts.ChargePump,
		comScan,
		segRemap,
		_SETCOMPINS, opts.COMPins,
		_SETCONTRAST, opts.Contrast,
		_SETPRECHARGE, opts.Precharge,
		_SETVCOMDETECT, opts.VCOMDeselect,
		_DISPLAYALLON_RESUME, // Display GDDRAM content
		_NORMALDISPLAY,
		_MEMORYMODE, byte(opts.Mode),
	}
}

// Clear blanks the panel.
//
// In page addressing mode the controller never leaves the current page, so
// the panel is cleared one page at a time.
func (d *Dev) Clear() error {
	w := d.opts.W
	if d.opts.Mode == PageAddressing {
		for p := 0; p < d.Pages(); p++ {
			if err := d.SetWindow(Window{ColEnd: w - 1, PageStart: p, PageEnd: p}); err != nil {
				return err
			}
			if err := d.StreamData(zeros(w)); err != nil {
				return err
			}
		}
		return nil
	}
	full := FullWindow(w, d.opts.H)
	if err := d.SetWindow(full); err != nil {
		return err
	}
	return d.StreamData(zeros(full.Size()))
}

func zeros(n int) func(w io.ByteWriter) error {
	return func(w io.ByteWriter) error {
		for i := 0; i < n; i++ {
			if err := w.WriteByte(0); err != nil {
				return err
			}
		}
		return nil
	}
}

// SetContrast changes the screen contrast.
func (d *Dev) SetContrast(level byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.command(_SETCONTRAST); err != nil {
		return err
	}
	return d.command(level)
}

// Invert the display (black on white vs white on black).
func (d *Dev) Invert(blackOnWhite bool) error {
	if blackOnWhite {
		return d.Command(_INVERTDISPLAY)
	}
	return d.Command(_NORMALDISPLAY)
}

// Halt turns off the display. The GDDRAM content is retained.
func (d *Dev) Halt() error {
	return d.Command(_DISPLAYOFF)
}

// On turns the display back on after Halt.
func (d *Dev) On() error {
	return d.Command(_DISPLAYON)
}

// Command sends one command byte in its own transaction.
func (d *Dev) Command(c byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.command(c)
}

// Data sends one data byte in its own transaction. It lands at the
// controller cursor.
func (d *Dev) Data(b byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.send(opData, i2cData, b)
}

// StreamData opens one data transaction and hands fn a writer for its
// payload. Every byte is acknowledged as it is written; after the first
// failure the writer refuses further bytes.
//
// Nothing is buffered, so fn must write exactly the number of bytes the
// current window expects.
func (d *Dev) StreamData(fn func(w io.ByteWriter) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.begin(opData, i2cData); err != nil {
		return err
	}
	s := &stream{d: d}
	if err := fn(s); err != nil {
		d.abort()
		return err
	}
	if s.err != nil {
		d.abort()
		return s.err
	}
	return d.end(opData, 2+s.n)
}

type stream struct {
	d   *Dev
	n   int
	err error
}

func (s *stream) WriteByte(b byte) error {
	if s.err != nil {
		return s.err
	}
	if err := s.d.m.WriteByte(b); err != nil {
		s.err = &BusFault{Op: opData, Stage: StageValue, Index: 2 + s.n, Err: err}
		return s.err
	}
	s.n++
	return nil
}

func (d *Dev) command(c byte) error {
	return d.send(opCommand, i2cCmd, c)
}

// send is one complete transaction: address, control byte, payload.
func (d *Dev) send(op string, control, b byte) error {
	if err := d.begin(op, control); err != nil {
		return err
	}
	if err := d.m.WriteByte(b); err != nil {
		d.abort()
		return &BusFault{Op: op, Stage: StageValue, Index: 2, Err: err}
	}
	return d.end(op, 3)
}

func (d *Dev) begin(op string, control byte) error {
	if err := d.m.Start(); err != nil {
		return &BusFault{Op: op, Stage: StageStart, Err: err}
	}
	if err := d.m.WriteByte(d.addr.Write()); err != nil {
		d.abort()
		return &BusFault{Op: op, Stage: StageAddress, Err: err}
	}
	if err := d.m.WriteByte(control); err != nil {
		d.abort()
		return &BusFault{Op: op, Stage: StageControl, Index: 1, Err: err}
	}
	return nil
}

func (d *Dev) end(op string, n int) error {
	if err := d.m.Stop(); err != nil {
		return &BusFault{Op: op, Stage: StageStop, Index: n, Err: err}
	}
	return nil
}

// abort releases the bus after a failure. The original error is what matters
// to the caller.
func (d *Dev) abort() {
	_ = d.m.Stop()
}

const (
	opCommand = "command"
	opData    = "data"
)

// Transaction stages reported by BusFault.
const (
	StageStart   = "start"
	StageAddress = "address"
	StageControl = "control"
	StageValue   = "value"
	StageStop    = "stop"
)

// BusFault is returned when the controller did not acknowledge a transaction.
//
// The bus state is unknown afterward; the only safe way forward is Init.
type BusFault struct {
	Op    string // "command" or "data"
	Stage string // One of the Stage constants.
	Index int    // Position of the failed byte in the transaction.
	Err   error
}

func (f *BusFault) Error() string {
	return fmt.Sprintf("ssd1306: %s %s error at byte %d: %v", f.Op, f.Stage, f.Index, f.Err)
}

func (f *BusFault) Unwrap() error {
	return f.Err
}

// IsBusFault reports whether err is, or wraps, a BusFault.
func IsBusFault(err error) bool {
	var f *BusFault
	return errors.As(err, &f)
}

var _ conn.Resource = &Dev{}
