// Copyright 2018 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ssd1306_test

import (
	"fmt"
	"io"
	"log"

	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/GermanBionicSystems/rgbgauge/ssd1306"
)

func Example() {
	// Make sure periph is initialized.
	if _, err := host.Init(); err != nil {
		log.Fatal(err)
	}
	// Use i2creg I²C bus registry to find the first available I²C bus.
	b, err := i2creg.Open("")
	if err != nil {
		log.Fatal(err)
	}
	defer b.Close()

	opts := ssd1306.DefaultOpts
	opts.Reset = gpioreg.ByName("GPIO17")
	dev, err := ssd1306.NewI2CBus(b, &opts)
	if err != nil {
		log.Fatalf("failed to create display: %v", err)
	}
	if err := dev.Init(); err != nil {
		log.Fatalf("failed to initialize display: %v", err)
	}
	fmt.Printf("device=%s\n", dev)

	// Draw a 2 pixel high line across the top page.
	w := ssd1306.Window{ColEnd: opts.W - 1}
	if err := dev.SetWindow(w); err != nil {
		log.Fatal(err)
	}
	err = dev.StreamData(func(bw io.ByteWriter) error {
		for i := 0; i < w.Size(); i++ {
			if err := bw.WriteByte(0x03); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Fatal(err)
	}
	_ = dev.Halt()
}
