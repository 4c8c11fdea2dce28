// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package i2cm

import (
	"errors"
	"fmt"
)

var (
	// ErrNACK signals that the device did not acknowledge a written byte.
	ErrNACK = errors.New("i2cm: NACK received")
	// ErrNoDevice signals that no device acknowledged the address byte.
	ErrNoDevice = errors.New("i2cm: no such device")
	// ErrNotStarted is returned when bytes are written outside a transaction.
	ErrNotStarted = errors.New("i2cm: no transaction in progress")
)

// Master is a byte level I²C bus master.
//
// Only one transaction can be outstanding at a time. All calls block until
// the bus operation completed.
type Master interface {
	// Start opens a transaction. Calling Start while a transaction is open is
	// a repeated start.
	Start() error
	// WriteByte writes one byte. A non-nil error means the byte was not
	// acknowledged.
	WriteByte(b byte) error
	// Stop closes the transaction and releases the bus.
	Stop() error
}

// Addr7 is a 7 bit device address.
type Addr7 uint8

// Valid reports whether the address fits in 7 bits.
func (a Addr7) Valid() bool {
	return a <= 0x7f
}

// Write returns the address byte that opens a write transaction.
func (a Addr7) Write() byte {
	return byte(a) << 1
}

// Read returns the address byte that opens a read transaction.
func (a Addr7) Read() byte {
	return byte(a)<<1 | 1
}

func (a Addr7) String() string {
	return fmt.Sprintf("%#02x", uint8(a))
}
