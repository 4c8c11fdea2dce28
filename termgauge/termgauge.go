// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package termgauge draws the three colour gauges on a terminal using ANSI
// color codes.
//
// Useful to watch the sensor without a display attached.
package termgauge

import (
	"bytes"
	"fmt"
	"image/color"
	"io"
	"sync"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
	"periph.io/x/conn/v3"

	"github.com/GermanBionicSystems/rgbgauge/gauge"
)

// Opts represents the options available for this console.
type Opts struct {
	Palette *ansi256.Palette
	// Colors is the fill of the red, green and blue gauges.
	Colors [3]color.NRGBA
	// Empty is the colour of the unfilled part of a gauge.
	Empty color.NRGBA

	_ struct{}
}

// DefaultOpts uses the default palette and pure channel colours.
var DefaultOpts = Opts{
	Colors: [3]color.NRGBA{
		{R: 255, A: 255},
		{G: 255, A: 255},
		{B: 255, A: 255},
	},
	Empty: color.NRGBA{R: 48, G: 48, B: 48, A: 255},
}

// Dev prints gauges on one console line, redrawn in place.
type Dev struct {
	w      io.Writer
	colors [3]string
	empty  string

	mu  sync.Mutex
	buf bytes.Buffer
}

// New returns a Dev that prints to w. A nil w selects stdout, with ANSI
// translation on Windows.
func New(w io.Writer, opts *Opts) *Dev {
	o := DefaultOpts
	if opts != nil {
		o = *opts
	}
	p := o.Palette
	if p == nil {
		p = ansi256.Default
	}
	if w == nil {
		w = colorable.NewColorableStdout()
	}
	d := &Dev{w: w, empty: p.Block(o.Empty)}
	for i, c := range o.Colors {
		d.colors[i] = p.Block(c)
	}
	return d
}

func (d *Dev) String() string {
	return "TermGauge"
}

// Halt implements conn.Resource.
//
// It resets the terminal colours and ends the line.
func (d *Dev) Halt() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, err := d.w.Write([]byte("\n\033[0m"))
	return err
}

// Show prints the three gauges, each max cells wide, over the previous ones.
func (d *Dev) Show(levels [3]int, max int) error {
	if max < 0 {
		return fmt.Errorf("termgauge: invalid gauge width %d", max)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.buf.Reset()
	_, _ = d.buf.WriteString("\r\033[0m")
	for ch, l := range levels {
		if l < 0 {
			l = 0
		} else if l > max {
			l = max
		}
		for i := 0; i < max; i++ {
			if i < l {
				_, _ = d.buf.WriteString(d.colors[ch])
			} else {
				_, _ = d.buf.WriteString(d.empty)
			}
		}
		_, _ = d.buf.WriteString("\033[0m ")
	}
	_, err := d.buf.WriteTo(d.w)
	return err
}

var _ conn.Resource = &Dev{}
var _ gauge.Mirror = &Dev{}
var _ fmt.Stringer = &Dev{}
