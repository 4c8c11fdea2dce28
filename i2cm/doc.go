// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package i2cm models an I²C bus master at the byte level: a transaction is
// opened with Start, bytes are written one at a time and each one is either
// acknowledged by the addressed device or not, and Stop closes the
// transaction.
//
// Drivers that need to observe acknowledgment per byte, or to stream a long
// payload without buffering it, are written against Master. TxMaster adapts a
// transaction-level bus such as periph.io's i2c.Bus to Master; on such buses
// the acknowledgment of the whole transaction is only known once Stop is
// called.
package i2cm
