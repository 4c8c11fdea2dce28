// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package ssd1306 controls a monochrome OLED display via a SSD1306 controller
// over I²C.
//
// The driver keeps no frame buffer. Drawing is done by setting an addressing
// window with SetWindow and streaming exactly as many data bytes as the window
// holds with StreamData. Each data byte covers 8 vertical pixels of a page,
// least significant bit on top.
//
// Every command byte is sent in its own transaction: address, control byte,
// payload. Each byte must be acknowledged; a missing acknowledgment is
// returned as a *BusFault and leaves the controller in an unknown state. Init
// is a total reset and can be called again to recover.
//
// Some boards expose a RES / Reset pin. If present, it must normally be High.
// Pass it in Opts.Reset and Init pulses it before configuring the controller.
//
// # Datasheets
//
// https://cdn-shop.adafruit.com/datasheets/SSD1306.pdf
//
// 0.66" 64x48 panel, "ER-OLED0.66-1":
// http://www.buydisplay.com/download/manual/ER-OLED0.66-1_Series_Datasheet.pdf
package ssd1306
