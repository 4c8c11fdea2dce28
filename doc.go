// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package rgbgauge is a container for the packages of the RGB gauge: a
// colour sensor read over I²C, shown as three bar gauges on a small SSD1306
// OLED panel.
//
// The program lives in cmd/rgbgauge. The display driver is ssd1306, written
// against the byte level I²C master in i2cm; the sensor driver is isl29125;
// gauge draws the frames.
package rgbgauge
