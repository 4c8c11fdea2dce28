// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package gauge draws three horizontal bar gauges, one per colour channel,
// on a page addressed display.
//
// Each gauge is one page high. A frame samples the source once, then for
// each channel sets a one page window and streams one bar row into it.
// Nothing is buffered between frames: every frame redraws the three rows in
// full.
//
// Sensor failures are not fatal; the last good sample is drawn again. Bus
// faults abort the frame. Runner re-initializes the display a bounded number
// of times before giving up.
package gauge
