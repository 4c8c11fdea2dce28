// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ssd1306

import "fmt"

// Window is a rectangle of the panel, in columns and 8 pixel high pages.
// Both ends are inclusive.
type Window struct {
	ColStart, ColEnd   int
	PageStart, PageEnd int
}

// FullWindow returns the window covering a w x h panel.
func FullWindow(w, h int) Window {
	return Window{ColEnd: w - 1, PageEnd: h/8 - 1}
}

// Columns returns the window width.
func (w Window) Columns() int {
	return w.ColEnd - w.ColStart + 1
}

// Pages returns the window height in pages.
func (w Window) Pages() int {
	return w.PageEnd - w.PageStart + 1
}

// Size returns the number of data bytes that fill the window exactly.
func (w Window) Size() int {
	return w.Columns() * w.Pages()
}

func (w Window) String() string {
	return fmt.Sprintf("cols %d-%d pages %d-%d", w.ColStart, w.ColEnd, w.PageStart, w.PageEnd)
}

// SetWindow defines where the following data bytes land. w is relative to the
// panel; Opts.ColumnOffset is added.
//
// The column and page ranges are sent with commands 0x21 and 0x22. In page
// addressing mode the controller ignores them, so the page and start column
// cursor commands follow; a page mode window must then be one page high.
//
// Data written after SetWindow fills the window; writing more than Size()
// bytes wraps around and overwrites its start.
func (d *Dev) SetWindow(w Window) error {
	pages := d.Pages()
	if w.ColStart < 0 || w.ColStart > w.ColEnd || w.ColEnd >= d.opts.W {
		return fmt.Errorf("ssd1306: invalid window %s for width %d", w, d.opts.W)
	}
	if w.PageStart < 0 || w.PageStart > w.PageEnd || w.PageEnd >= pages {
		return fmt.Errorf("ssd1306: invalid window %s for %d pages", w, pages)
	}
	if d.opts.Mode == PageAddressing && w.PageStart != w.PageEnd {
		return fmt.Errorf("ssd1306: window %s spans pages in page addressing mode", w)
	}
	cs := byte(w.ColStart + d.opts.ColumnOffset)
	ce := byte(w.ColEnd + d.opts.ColumnOffset)
	cmds := []byte{
		_COLUMNADDR, cs, ce,
		_PAGEADDR, byte(w.PageStart), byte(w.PageEnd),
	}
	if d.opts.Mode == PageAddressing {
		cmds = append(cmds,
			_PAGESTARTADDRESS|byte(w.PageStart),
			_SETLOWCOLUMN|(cs&0x0F),
			_SETHIGHCOLUMN|(cs>>4),
		)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, c := range cmds {
		if err := d.command(c); err != nil {
			return err
		}
	}
	return nil
}

// WindowCommandBytes returns the number of command bytes SetWindow sends.
func (d *Dev) WindowCommandBytes() int {
	if d.opts.Mode == PageAddressing {
		return 9
	}
	return 6
}
