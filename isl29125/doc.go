// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package isl29125 provides a driver for the Renesas (Intersil) ISL29125
// digital RGB color light sensor.
//
// The sensor converts red, green and blue light intensity into 12 or 16 bit
// counts, over a 375 lux or a 10,000 lux range. An IR compensation filter
// can be configured to remove the infrared component.
//
// For detailed information, refer to the [datasheet].
//
// [datasheet]: https://www.renesas.com/us/en/document/dst/isl29125-datasheet
package isl29125
