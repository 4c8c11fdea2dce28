// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package legend rasterizes a short line of text into display pages.
//
// The output is one byte per column per page, least significant bit on top,
// the layout a SSD1306 expects in its data stream.
package legend

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/GermanBionicSystems/rgbgauge/ssd1306"
)

// Opts controls how text is drawn.
type Opts struct {
	// Size is the font size in points, at 72 DPI so one point is one pixel.
	Size float64
	// Threshold is the gray level above which a pixel is lit.
	Threshold uint8
	// Invert draws dark text on a lit background.
	Invert bool
}

// DefaultOpts fits a label in a 16 pixel high strip.
var DefaultOpts = Opts{
	Size:      12,
	Threshold: 0x80,
}

// DefaultText names the gauges from top to bottom.
const DefaultText = "R G B"

var (
	parseOnce sync.Once
	goRegular *truetype.Font
	parseErr  error
)

func face(size float64) (font.Face, error) {
	parseOnce.Do(func() {
		goRegular, parseErr = truetype.Parse(goregular.TTF)
	})
	if parseErr != nil {
		return nil, fmt.Errorf("legend: %w", parseErr)
	}
	return truetype.NewFace(goRegular, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	}), nil
}

// Image draws text centered on a cols x pages*8 canvas.
func Image(text string, cols, pages int, opts *Opts) (image.Image, error) {
	o := DefaultOpts
	if opts != nil {
		o = *opts
	}
	if cols <= 0 || pages <= 0 {
		return nil, fmt.Errorf("legend: invalid size %dx%d pages", cols, pages)
	}
	if o.Size <= 0 {
		return nil, fmt.Errorf("legend: invalid font size %g", o.Size)
	}
	f, err := face(o.Size)
	if err != nil {
		return nil, err
	}
	fg, bg := color.White, color.Black
	if o.Invert {
		fg, bg = bg, fg
	}
	w, h := float64(cols), float64(pages*8)
	dc := gg.NewContext(cols, pages*8)
	dc.SetColor(bg)
	dc.Clear()
	dc.SetColor(fg)
	dc.SetFontFace(f)
	dc.DrawStringAnchored(text, w/2, h/2, 0.5, 0.5)
	return dc.Image(), nil
}

// Render draws text and returns it as pages*cols bytes, page by page.
func Render(text string, cols, pages int, opts *Opts) ([]byte, error) {
	o := DefaultOpts
	if opts != nil {
		o = *opts
	}
	img, err := Image(text, cols, pages, &o)
	if err != nil {
		return nil, err
	}
	return Pack(img, cols, pages, o.Threshold), nil
}

// Pack converts the top left cols x pages*8 pixels of img to page bytes.
// Pixels outside img are dark.
func Pack(img image.Image, cols, pages int, threshold uint8) []byte {
	b := img.Bounds()
	out := make([]byte, cols*pages)
	for p := 0; p < pages; p++ {
		for x := 0; x < cols; x++ {
			var v byte
			for bit := 0; bit < 8; bit++ {
				pt := image.Point{X: b.Min.X + x, Y: b.Min.Y + p*8 + bit}
				if !pt.In(b) {
					continue
				}
				if color.GrayModel.Convert(img.At(pt.X, pt.Y)).(color.Gray).Y > threshold {
					v |= 1 << uint(bit)
				}
			}
			out[p*cols+x] = v
		}
	}
	return out
}

// Display is the part of the display driver Draw needs.
type Display interface {
	SetWindow(w ssd1306.Window) error
	StreamData(fn func(w io.ByteWriter) error) error
}

// Draw renders text into w and streams it one page at a time, so it works
// in every addressing mode.
func Draw(d Display, w ssd1306.Window, text string, opts *Opts) error {
	cols, pages := w.Columns(), w.Pages()
	data, err := Render(text, cols, pages, opts)
	if err != nil {
		return err
	}
	for p := 0; p < pages; p++ {
		pw := ssd1306.Window{ColStart: w.ColStart, ColEnd: w.ColEnd, PageStart: w.PageStart + p, PageEnd: w.PageStart + p}
		if err := d.SetWindow(pw); err != nil {
			return fmt.Errorf("legend: %w", err)
		}
		row := data[p*cols : (p+1)*cols]
		err := d.StreamData(func(bw io.ByteWriter) error {
			for _, b := range row {
				if err := bw.WriteByte(b); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("legend: %w", err)
		}
	}
	return nil
}
