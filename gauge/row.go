// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package gauge

import (
	"fmt"
	"io"
)

// Pattern is the column bytes of a bar row. Bit 0 is the top pixel of the
// page.
type Pattern struct {
	Border byte
	Filled byte
	Empty  byte
}

// DefaultPattern draws a 6 pixel high outlined bar with a dotted fill.
var DefaultPattern = Pattern{
	Border: 0x7E, // 0b01111110
	Filled: 0x5A, // 0b01011010
	Empty:  0x42, // 0b01000010
}

// EncodeRow writes exactly cols bytes to w: one border byte, value filled
// bytes, cols-2-value empty bytes, one border byte.
//
// value is clamped to [0, cols-2]. cols must be at least 2.
func EncodeRow(w io.ByteWriter, cols, value int, p Pattern) error {
	if cols < 2 {
		return fmt.Errorf("gauge: row of %d columns, need at least 2", cols)
	}
	inner := cols - 2
	if value < 0 {
		value = 0
	} else if value > inner {
		value = inner
	}
	if err := w.WriteByte(p.Border); err != nil {
		return err
	}
	for i := 0; i < inner; i++ {
		b := p.Empty
		if i < value {
			b = p.Filled
		}
		if err := w.WriteByte(b); err != nil {
			return err
		}
	}
	return w.WriteByte(p.Border)
}

// Scaler maps a raw channel reading to a gauge level.
type Scaler struct {
	// Divisor is applied first. 0 is treated as 1.
	Divisor uint16
	// Max is the highest level, normally the interior column count.
	Max int
}

// Scale returns min(raw/Divisor, Max).
func (s Scaler) Scale(raw uint16) int {
	d := s.Divisor
	if d == 0 {
		d = 1
	}
	v := int(raw / d)
	if v > s.Max {
		return s.Max
	}
	return v
}
