// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package gauge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/GermanBionicSystems/rgbgauge/ssd1306"
)

// Channels in a Sample.
const (
	Red = iota
	Green
	Blue
)

var channelNames = [3]string{"red", "green", "blue"}

// Sample is one raw reading per channel, in Red, Green, Blue order.
type Sample [3]uint16

// Source produces samples.
type Source interface {
	Sample() (Sample, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func() (Sample, error)

// Sample implements Source.
func (f SourceFunc) Sample() (Sample, error) {
	return f()
}

// Display is the part of the display driver the renderer needs.
//
// *ssd1306.Dev implements it.
type Display interface {
	SetWindow(w ssd1306.Window) error
	StreamData(fn func(w io.ByteWriter) error) error
}

// Initializer brings a display back to a known state.
//
// *ssd1306.Dev implements it.
type Initializer interface {
	Init() error
}

// Mirror receives the levels drawn by each frame.
type Mirror interface {
	Show(levels [3]int, max int) error
}

// Layout is where the three gauges sit, in display coordinates.
type Layout struct {
	// Col is the first column of every gauge.
	Col int
	// Columns is the width of a gauge including its two border columns.
	Columns int
	// FirstPage is the page of the red gauge; green and blue follow.
	FirstPage int
}

// Window returns the one page window of channel ch.
func (l Layout) Window(ch int) ssd1306.Window {
	return ssd1306.Window{
		ColStart:  l.Col,
		ColEnd:    l.Col + l.Columns - 1,
		PageStart: l.FirstPage + ch,
		PageEnd:   l.FirstPage + ch,
	}
}

// Opts is the renderer configuration.
type Opts struct {
	Layout  Layout
	Pattern Pattern
	// Divisor scales raw readings down; the result is clamped to the gauge
	// interior. With 8 bit readings and the 62 pixel interior of a 64 column
	// gauge, 4 spans the whole range (255/4 = 63, clamped to 62) while 2 is
	// full from 124 up.
	Divisor uint16
	// Pace is the delay after each channel is drawn.
	Pace time.Duration
	// MaxReinit is the number of consecutive display re-initializations
	// Runner attempts after a bus fault. 0 stops at the first fault.
	MaxReinit int
	Clock     clockwork.Clock
	Logger    zerolog.Logger
	Mirror    Mirror
}

// DefaultOpts fills the top three pages of a 64 pixel wide panel and
// divides 8 bit readings by 4.
var DefaultOpts = Opts{
	Layout:    Layout{Col: 0, Columns: 64, FirstPage: 0},
	Pattern:   DefaultPattern,
	Divisor:   4,
	Pace:      50 * time.Millisecond,
	MaxReinit: 3,
	Logger:    zerolog.Nop(),
}

// ErrHalted is returned by Runner.Run once re-initialization gave up.
var ErrHalted = errors.New("gauge: halted")

// Renderer draws frames.
type Renderer struct {
	d      Display
	src    Source
	opts   Opts
	scaler Scaler
	clk    clockwork.Clock
	log    zerolog.Logger

	mu     sync.Mutex
	last   Sample
	levels [3]int
	frames int
}

// New returns a Renderer drawing samples from src on d.
//
// A nil opts selects DefaultOpts.
func New(d Display, src Source, opts *Opts) (*Renderer, error) {
	o := DefaultOpts
	if opts != nil {
		o = *opts
	}
	if o.Layout.Columns < 2 {
		return nil, fmt.Errorf("gauge: gauge width %d, need at least 2 columns", o.Layout.Columns)
	}
	if o.Layout.Col < 0 || o.Layout.FirstPage < 0 {
		return nil, fmt.Errorf("gauge: invalid layout %+v", o.Layout)
	}
	if o.Pace < 0 {
		return nil, fmt.Errorf("gauge: negative pace %s", o.Pace)
	}
	if o.MaxReinit < 0 {
		return nil, fmt.Errorf("gauge: negative MaxReinit %d", o.MaxReinit)
	}
	if o.Clock == nil {
		o.Clock = clockwork.NewRealClock()
	}
	return &Renderer{
		d:      d,
		src:    src,
		opts:   o,
		scaler: Scaler{Divisor: o.Divisor, Max: o.Layout.Columns - 2},
		clk:    o.Clock,
		log:    o.Logger.With().Str("component", "gauge").Logger(),
	}, nil
}

func (r *Renderer) String() string {
	l := r.opts.Layout
	return fmt.Sprintf("gauge.Renderer{col %d, %d columns, page %d}", l.Col, l.Columns, l.FirstPage)
}

// Levels returns the levels drawn by the last complete frame.
func (r *Renderer) Levels() [3]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.levels
}

// Frames returns the number of complete frames drawn.
func (r *Renderer) Frames() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames
}

// Frame samples the source once and redraws the three gauges.
//
// A source error is logged and the previous sample is drawn. A display error
// aborts the frame and is returned; the gauges drawn before it stay as they
// are.
func (r *Renderer) Frame() error {
	s, err := r.src.Sample()
	r.mu.Lock()
	if err != nil {
		r.log.Warn().Err(err).Msg("sample failed, drawing the previous one")
		s = r.last
	} else {
		r.last = s
	}
	r.mu.Unlock()

	var levels [3]int
	for ch := range s {
		levels[ch] = r.scaler.Scale(s[ch])
		if err := r.draw(ch, levels[ch]); err != nil {
			return err
		}
		if r.opts.Pace > 0 {
			r.clk.Sleep(r.opts.Pace)
		}
	}

	r.mu.Lock()
	r.levels = levels
	r.frames++
	r.mu.Unlock()
	if r.opts.Mirror != nil {
		if err := r.opts.Mirror.Show(levels, r.scaler.Max); err != nil {
			r.log.Debug().Err(err).Msg("mirror failed")
		}
	}
	return nil
}

func (r *Renderer) draw(ch, level int) error {
	w := r.opts.Layout.Window(ch)
	if err := r.d.SetWindow(w); err != nil {
		return fmt.Errorf("gauge: %s window: %w", channelNames[ch], err)
	}
	err := r.d.StreamData(func(bw io.ByteWriter) error {
		return EncodeRow(bw, r.opts.Layout.Columns, level, r.opts.Pattern)
	})
	if err != nil {
		return fmt.Errorf("gauge: %s row: %w", channelNames[ch], err)
	}
	return nil
}

// Runner draws frames until stopped, recovering the display from bus
// faults.
type Runner struct {
	r      *Renderer
	reinit Initializer
}

// NewRunner returns a Runner driving r and re-initializing with reinit.
func NewRunner(r *Renderer, reinit Initializer) *Runner {
	return &Runner{r: r, reinit: reinit}
}

// Run draws frames until ctx is done, then returns nil.
//
// After a frame failed with a bus fault the display is re-initialized; once
// Opts.MaxReinit consecutive attempts did not produce a good frame, the last
// error is returned wrapped in ErrHalted. Any other frame error, such as a
// window outside the panel, is returned as is since re-initializing cannot
// clear it.
func (rn *Runner) Run(ctx context.Context) error {
	log := rn.r.log
	failures := 0
	for {
		if ctx.Err() != nil {
			return nil
		}
		err := rn.r.Frame()
		if err == nil {
			if failures != 0 {
				log.Info().Int("attempts", failures).Msg("display recovered")
			}
			failures = 0
			continue
		}
		if !ssd1306.IsBusFault(err) {
			log.Error().Err(err).Msg("frame failed")
			return err
		}
		for {
			if failures >= rn.r.opts.MaxReinit {
				log.Error().Err(err).Msg("giving up on display")
				return fmt.Errorf("%w: %w", ErrHalted, err)
			}
			failures++
			log.Warn().Err(err).Int("attempt", failures).Msg("re-initializing display")
			if err = rn.reinit.Init(); err == nil {
				break
			}
			if ctx.Err() != nil {
				return nil
			}
		}
	}
}
