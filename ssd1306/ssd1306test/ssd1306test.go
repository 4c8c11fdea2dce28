// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package ssd1306test implements a simulated SSD1306 controller attached to
// an i2cm.Master, to test code driving the display without hardware.
//
// The simulator keeps the controller registers and the 128x64 GDDRAM, and
// exposes the window last set and the number of data bytes received since,
// which is what drawing code has to get right.
package ssd1306test

import (
	"errors"
	"fmt"
	"sync"

	"github.com/GermanBionicSystems/rgbgauge/i2cm"
)

// Controller geometry.
const (
	Columns = 128
	Pages   = 8
)

// Addressing modes, as set by command 0x20.
const (
	ModeHorizontal byte = 0x00
	ModeVertical   byte = 0x01
	ModePage       byte = 0x02
)

// Window is a column and page range in controller coordinates.
type Window struct {
	ColStart, ColEnd   int
	PageStart, PageEnd int
}

// Size returns the number of bytes the window holds.
func (w Window) Size() int {
	return (w.ColEnd - w.ColStart + 1) * (w.PageEnd - w.PageStart + 1)
}

type txState int

const (
	idle txState = iota
	started
	addressed
	commands
	data
	ignored
)

// arity is the number of parameter bytes following a command byte.
var arity = map[byte]int{
	0x20: 1, // memory addressing mode
	0x21: 2, // column address
	0x22: 2, // page address
	0x26: 6, // horizontal scroll right
	0x27: 6, // horizontal scroll left
	0x29: 5, // vertical and right scroll
	0x2A: 5, // vertical and left scroll
	0x81: 1, // contrast
	0x8D: 1, // charge pump
	0xA3: 2, // vertical scroll area
	0xA8: 1, // multiplex ratio
	0xD3: 1, // display offset
	0xD5: 1, // clock divide
	0xD9: 1, // pre-charge period
	0xDA: 1, // COM pins
	0xDB: 1, // VCOMH deselect
}

// Controller is a simulated SSD1306. It implements i2cm.Master.
//
// The zero value is not usable, use New.
type Controller struct {
	mu   sync.Mutex
	addr i2cm.Addr7

	// Registers.
	On          bool
	Inverted    bool
	EntireOn    bool
	Mode        byte
	Contrast    byte
	Multiplex   byte
	Offset      byte
	StartLine   byte
	ClockDiv    byte
	ChargePump  byte
	COMPins     byte
	Precharge   byte
	VCOMH       byte
	SegRemap    bool
	COMScanDec  bool
	Scrolling   bool
	ColumnRange [2]int
	PageRange   [2]int

	// GDDRAM, one byte per column per page, LSB on top.
	RAM [Pages][Columns]byte

	col, page                 int
	pageModeCol, pageModePage int

	state   txState
	pending []byte

	windowSet  bool
	sinceSet   int
	dataBytes  int
	cmdLog     []byte
	unknown    []byte
	protoError error
}

// New returns a controller answering at addr in its power-on reset state.
func New(addr i2cm.Addr7) *Controller {
	c := &Controller{addr: addr}
	c.PowerOn()
	return c
}

// PowerOn puts the registers back to their power-on reset values. The RAM is
// left untouched; its content is undefined after power-on.
func (c *Controller) PowerOn() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.On = false
	c.Inverted = false
	c.EntireOn = false
	c.Mode = ModePage
	c.Contrast = 0x7F
	c.Multiplex = 63
	c.Offset = 0
	c.StartLine = 0
	c.ClockDiv = 0x80
	c.ChargePump = 0x10
	c.COMPins = 0x12
	c.Precharge = 0x22
	c.VCOMH = 0x20
	c.SegRemap = false
	c.COMScanDec = false
	c.Scrolling = false
	c.ColumnRange = [2]int{0, Columns - 1}
	c.PageRange = [2]int{0, Pages - 1}
	c.col, c.page, c.pageModeCol, c.pageModePage = 0, 0, 0, 0
	c.state = idle
	c.pending = nil
	c.windowSet = false
	c.sinceSet = 0
}

func (c *Controller) String() string {
	return fmt.Sprintf("ssd1306test.Controller{%s}", c.addr)
}

// Start implements i2cm.Master.
func (c *Controller) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = started
	return nil
}

// Stop implements i2cm.Master.
func (c *Controller) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == idle {
		c.protoError = errors.New("ssd1306test: stop without start")
		return c.protoError
	}
	c.state = idle
	return nil
}

// WriteByte implements i2cm.Master.
func (c *Controller) WriteByte(b byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state {
	case idle:
		c.protoError = i2cm.ErrNotStarted
		return c.protoError
	case started:
		if b>>1 != byte(c.addr) {
			c.state = ignored
			return i2cm.ErrNoDevice
		}
		if b&1 != 0 {
			// Status reads are not simulated.
			c.state = ignored
			return i2cm.ErrNACK
		}
		c.state = addressed
	case addressed:
		switch b {
		case 0x00:
			c.state = commands
		case 0x40:
			c.state = data
		default:
			c.state = ignored
			return i2cm.ErrNACK
		}
	case commands:
		c.command(b)
	case data:
		c.write(b)
	case ignored:
		return i2cm.ErrNACK
	}
	return nil
}

func (c *Controller) command(b byte) {
	c.cmdLog = append(c.cmdLog, b)
	if len(c.pending) != 0 {
		c.pending = append(c.pending, b)
		if len(c.pending) == arity[c.pending[0]]+1 {
			c.exec(c.pending)
			c.pending = nil
		}
		return
	}
	if arity[b] == 0 {
		c.exec([]byte{b})
		return
	}
	c.pending = []byte{b}
}

func (c *Controller) exec(cmd []byte) {
	op := cmd[0]
	switch {
	case op <= 0x0F:
		c.pageModeCol = c.pageModeCol&0xF0 | int(op&0x0F)
		c.cursorMoved()
	case op >= 0x10 && op <= 0x1F:
		c.pageModeCol = int(op&0x0F)<<4 | c.pageModeCol&0x0F
		c.cursorMoved()
	case op == 0x20:
		c.Mode = cmd[1] & 0x03
	case op == 0x21:
		c.ColumnRange = [2]int{int(cmd[1] & 0x7F), int(cmd[2] & 0x7F)}
		if c.Mode != ModePage {
			c.col = c.ColumnRange[0]
		}
		c.windowSet = true
		c.sinceSet = 0
	case op == 0x22:
		c.PageRange = [2]int{int(cmd[1] & 0x07), int(cmd[2] & 0x07)}
		if c.Mode != ModePage {
			c.page = c.PageRange[0]
		}
		c.windowSet = true
		c.sinceSet = 0
	case op == 0x26 || op == 0x27 || op == 0x29 || op == 0x2A || op == 0xA3:
	case op == 0x2E:
		c.Scrolling = false
	case op == 0x2F:
		c.Scrolling = true
	case op >= 0x40 && op <= 0x7F:
		c.StartLine = op & 0x3F
	case op == 0x81:
		c.Contrast = cmd[1]
	case op == 0x8D:
		c.ChargePump = cmd[1]
	case op == 0xA0 || op == 0xA1:
		c.SegRemap = op == 0xA1
	case op == 0xA4 || op == 0xA5:
		c.EntireOn = op == 0xA5
	case op == 0xA6 || op == 0xA7:
		c.Inverted = op == 0xA7
	case op == 0xA8:
		c.Multiplex = cmd[1]
	case op == 0xAE || op == 0xAF:
		c.On = op == 0xAF
	case op >= 0xB0 && op <= 0xB7:
		c.pageModePage = int(op & 0x07)
		c.cursorMoved()
	case op == 0xC0 || op == 0xC8:
		c.COMScanDec = op == 0xC8
	case op == 0xD3:
		c.Offset = cmd[1]
	case op == 0xD5:
		c.ClockDiv = cmd[1]
	case op == 0xD9:
		c.Precharge = cmd[1]
	case op == 0xDA:
		c.COMPins = cmd[1]
	case op == 0xDB:
		c.VCOMH = cmd[1]
	default:
		c.unknown = append(c.unknown, op)
	}
}

// cursorMoved handles the page mode cursor commands. They only move the
// cursor in page addressing mode.
func (c *Controller) cursorMoved() {
	if c.Mode == ModePage {
		c.page = c.pageModePage
		c.col = c.pageModeCol
		c.sinceSet = 0
	}
}

func (c *Controller) write(b byte) {
	c.RAM[c.page][c.col] = b
	c.dataBytes++
	c.sinceSet++
	switch c.Mode {
	case ModeHorizontal:
		c.col++
		if c.col > c.ColumnRange[1] {
			c.col = c.ColumnRange[0]
			c.page++
			if c.page > c.PageRange[1] {
				c.page = c.PageRange[0]
			}
		}
	case ModeVertical:
		c.page++
		if c.page > c.PageRange[1] {
			c.page = c.PageRange[0]
			c.col++
			if c.col > c.ColumnRange[1] {
				c.col = c.ColumnRange[0]
			}
		}
	default:
		c.col++
		if c.col >= Columns {
			c.col = c.pageModeCol
		}
	}
}

// LastWindow returns the column and page ranges last set. ok is false if no
// window was ever set.
func (c *Controller) LastWindow() (w Window, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	w = Window{
		ColStart:  c.ColumnRange[0],
		ColEnd:    c.ColumnRange[1],
		PageStart: c.PageRange[0],
		PageEnd:   c.PageRange[1],
	}
	return w, c.windowSet
}

// BytesSinceWindow returns the number of data bytes received since the
// window, or in page addressing mode the cursor, was last set.
func (c *Controller) BytesSinceWindow() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sinceSet
}

// Cursor returns the page and column the next data byte will be written to.
func (c *Controller) Cursor() (page, col int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.page, c.col
}

// DataBytes returns the total number of data bytes received.
func (c *Controller) DataBytes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dataBytes
}

// Commands returns every command byte received, parameters included.
func (c *Controller) Commands() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]byte(nil), c.cmdLog...)
}

// ResetLog forgets the command log and the data byte counter.
func (c *Controller) ResetLog() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cmdLog = nil
	c.dataBytes = 0
}

// Unknown returns the command bytes the simulator did not recognize.
func (c *Controller) Unknown() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]byte(nil), c.unknown...)
}

// Pending reports whether a command is waiting for parameter bytes.
func (c *Controller) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending) != 0
}

// Err returns the first framing error seen, like a byte outside a
// transaction.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.protoError
}

// Row returns n bytes of page starting at column col.
func (c *Controller) Row(page, col, n int) []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]byte, n)
	copy(out, c.RAM[page][col:col+n])
	return out
}

// Fill sets every RAM byte to b, to simulate leftover content.
func (c *Controller) Fill(b byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for p := range c.RAM {
		for i := range c.RAM[p] {
			c.RAM[p][i] = b
		}
	}
}

var _ i2cm.Master = &Controller{}
